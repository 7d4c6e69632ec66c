package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/sparqlc/internal/querysparql"
)

// PrefixEntry is one configured prefix.
type PrefixEntry struct {
	Name string `json:"name"`
	IRI  string `json:"iri"`
}

// PrefixesResult is the output of the prefixes command.
type PrefixesResult struct {
	Prefixes []PrefixEntry `json:"prefixes"`
	Preamble string        `json:"preamble"`
}

// NewPrefixesCommand creates the prefixes command.
func NewPrefixesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prefixes",
		Short: "Show the configured prefixes and their preamble",
		Long: `Show the configured prefixes and the preamble prepended to queries
that do not declare their own.

Prefixes come from --prefix-file, the config file's prefixes list,
SPARQLC_PREFIXES and --prefix.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := opts.prefixes()
			result := PrefixesResult{
				Prefixes: make([]PrefixEntry, 0, m.Len()),
				Preamble: querysparql.ComposePrefixes(m),
			}
			for name, iri := range m.All() {
				result.Prefixes = append(result.Prefixes, PrefixEntry{Name: name, IRI: iri})
			}

			f := opts.formatter(cmd)
			if f.IsJSON() {
				return f.Success(result)
			}
			if len(result.Prefixes) == 0 {
				f.Line("No prefixes configured.")
				return nil
			}
			rows := make([][]string, len(result.Prefixes))
			for i, p := range result.Prefixes {
				rows[i] = []string{p.Name, p.IRI}
			}
			if err := f.Table([]string{"name", "iri"}, rows); err != nil {
				return err
			}
			f.Line("%s", result.Preamble)
			return nil
		},
	}
}
