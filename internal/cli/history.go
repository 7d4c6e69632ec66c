package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlc/internal/ir"
	"github.com/roach88/sparqlc/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit        int
	ThisEndpoint bool // only entries for the configured endpoint
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded requests from the journal",
		Long: `List recorded requests from the journal, oldest first.

Requires --journal (or journal in sparqlc.yaml). Every request made with
a journal configured is recorded, including failures.

Examples:
  sparqlc --journal ./sparqlc.db history
  sparqlc --journal ./sparqlc.db history --limit 5 --format json
  sparqlc --journal ./sparqlc.db --endpoint http://localhost:8890/sparql history --this-endpoint`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "show the most recent N entries (0 = all)")
	cmd.Flags().BoolVar(&opts.ThisEndpoint, "this-endpoint", false, "only show requests to the configured endpoint")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cfg := opts.config
	if cfg == nil || cfg.Journal == "" {
		return NewExitError(ExitCommandError, "no journal: set --journal, SPARQLC_JOURNAL or journal in sparqlc.yaml")
	}

	journal, err := store.Open(cfg.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "open journal", err)
	}
	defer journal.Close()

	var entries []ir.JournalEntry
	if opts.ThisEndpoint {
		if cfg.Endpoint == "" {
			return NewExitError(ExitCommandError, "--this-endpoint needs an endpoint")
		}
		entries, err = journal.ListByEndpoint(cmd.Context(), cfg.Endpoint)
		if err == nil && opts.Limit > 0 && len(entries) > opts.Limit {
			entries = entries[len(entries)-opts.Limit:]
		}
	} else {
		entries, err = journal.List(cmd.Context(), opts.Limit)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "read journal", err)
	}

	f := opts.formatter(cmd)
	if f.IsJSON() {
		return f.Success(entries)
	}
	if len(entries) == 0 {
		f.Line("No requests recorded.")
		return nil
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			strconv.FormatInt(e.Seq, 10),
			e.RequestID,
			strconv.Itoa(e.StatusCode),
			e.Outcome,
			strconv.Itoa(e.Bindings),
			summarize(e.Query, 60),
		}
	}
	return f.Table([]string{"seq", "request", "status", "outcome", "rows", "query"}, rows)
}

// summarize collapses whitespace and truncates s to n runes.
func summarize(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
