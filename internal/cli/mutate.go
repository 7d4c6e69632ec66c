package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlc/internal/client"
	"github.com/roach88/sparqlc/internal/ir"
	"github.com/roach88/sparqlc/internal/queryir"
	"github.com/roach88/sparqlc/internal/querysparql"
	"github.com/roach88/sparqlc/internal/reshape"
)

// MutationResult is the outcome of one executed or dry-run mutation.
type MutationResult struct {
	Query    string        `json:"query"`
	Message  string        `json:"message,omitempty"`
	Response *ir.ResultSet `json:"response,omitempty"`
}

// compileMutation renders m exactly as the client would send it.
func compileMutation(m queryir.Mutation, prefixes *ir.OrderedMap) (string, error) {
	query, err := querysparql.NewCompiler().Compile(m)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "invalid mutation", err)
	}
	return querysparql.EnsurePrefixes(query, prefixes), nil
}

// responseMessage extracts the status text update endpoints usually
// return as the only cell.
func responseMessage(rs *ir.ResultSet) string {
	if t := reshape.Cell(rs); t != nil {
		return t.Value
	}
	return ""
}

// runMutation compiles m, then either prints it (dry run) or executes it.
func runMutation(cmd *cobra.Command, opts *RootOptions, m queryir.Mutation, dryRun bool) error {
	query, err := compileMutation(m, opts.prefixes())
	if err != nil {
		return err
	}

	f := opts.formatter(cmd)
	if dryRun {
		if f.IsJSON() {
			return f.Success(MutationResult{Query: query})
		}
		f.Line("%s", query)
		return nil
	}

	s, err := opts.openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	rs, err := s.client.Apply(cmd.Context(), m)
	if err != nil {
		return err
	}

	res := MutationResult{Query: query, Message: responseMessage(rs), Response: rs}
	if f.IsJSON() {
		return f.Success(res)
	}
	printMutationResult(f, res, opts.Verbose)
	return nil
}

func printMutationResult(f *OutputFormatter, res MutationResult, verbose bool) {
	if verbose {
		f.Line("%s", res.Query)
	}
	if res.Message != "" {
		f.Pass("%s", res.Message)
		return
	}
	f.Pass("done")
}

// toScalars turns CLI arguments into values: raw term syntax by default,
// quoted literals when literal is set.
func toScalars(args []string, literal bool) ir.ValueSpec {
	if len(args) == 0 {
		return nil
	}
	out := make(ir.ValueSpec, len(args))
	for i, a := range args {
		if literal {
			out[i] = ir.Literal(a)
		} else {
			out[i] = ir.Raw(a)
		}
	}
	return out
}

// SetOptions holds flags for the set command.
type SetOptions struct {
	*RootOptions
	Inverted bool
	Literal  bool
	DryRun   bool
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <graph> <node> <predicate> [value...]",
		Short: "Replace the values of one predicate on a node",
		Long: `Replace the values of one predicate on a node.

Every existing <node> <predicate> ?x triple in the graph is deleted and one
triple per value is inserted. With no values the predicate is cleared.
With --inverted the node is the object and the values are subjects.

Terms are SPARQL syntax passed through verbatim ("<urn:x>", "ex:y", "42",
"'text'"); --literal quotes every value as a plain literal instead.

Examples:
  sparqlc set '<urn:g>' '<urn:alice>' foaf:age 42
  sparqlc set '<urn:g>' '<urn:alice>' foaf:nick --literal ally al
  sparqlc set '<urn:g>' '<urn:alice>' foaf:knows --inverted '<urn:bob>'
  sparqlc set '<urn:g>' '<urn:alice>' foaf:age --dry-run`,
		Args: wrapArgs(cobra.MinimumNArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, values := ir.Raws(args[1]), toScalars(args[3:], opts.Literal)
			m := queryir.Set{Graph: args[0], Predicate: args[2], Inverted: opts.Inverted}
			if opts.Inverted {
				m.Subject, m.Object = values, node
			} else {
				m.Subject, m.Object = node, values
			}
			return runMutation(cmd, opts.RootOptions, m, opts.DryRun)
		},
	}

	cmd.Flags().BoolVar(&opts.Inverted, "inverted", false, "treat the node as the object")
	cmd.Flags().BoolVar(&opts.Literal, "literal", false, "quote values as plain literals")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the update instead of sending it")

	return cmd
}

// MSetOptions holds flags for the mset command.
type MSetOptions struct {
	*RootOptions
	DryRun bool
}

// NewMSetCommand creates the mset command.
func NewMSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MSetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mset <graph> <subject> <predicate=value>...",
		Short: "Insert several literal attributes on one subject",
		Long: `Insert several literal attributes on one subject.

Each value is written as a quoted, escaped literal. Existing values are
kept. Attributes are written in argument order.

Examples:
  sparqlc mset '<urn:g>' '<urn:alice>' foaf:name=Alice foaf:mbox=alice@example.org
  sparqlc mset '<urn:g>' '<urn:alice>' '<http://x/p?a=b>=v' --dry-run`,
		Args: wrapArgs(cobra.MinimumNArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := ir.NewOrderedMap()
			for _, a := range args[2:] {
				pred, val, err := parseAttribute(a)
				if err != nil {
					return WrapExitError(ExitCommandError, "usage", err)
				}
				attrs.Set(pred, val)
			}
			m := queryir.MultiSet{Graph: args[0], Subject: args[1], Attributes: attrs}
			return runMutation(cmd, opts.RootOptions, m, opts.DryRun)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the update instead of sending it")

	return cmd
}

// parseAttribute splits predicate=value. An IRI predicate in angle
// brackets may itself contain '='.
func parseAttribute(s string) (string, string, error) {
	if strings.HasPrefix(s, "<") {
		end := strings.Index(s, ">")
		if end < 0 || !strings.HasPrefix(s[end+1:], "=") {
			return "", "", fmt.Errorf("invalid attribute %q: want predicate=value", s)
		}
		return s[:end+1], s[end+2:], nil
	}
	pred, val, ok := strings.Cut(s, "=")
	if !ok || pred == "" {
		return "", "", fmt.Errorf("invalid attribute %q: want predicate=value", s)
	}
	return pred, val, nil
}

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	DryRun bool
}

// ApplyResult is the outcome of a plan.
type ApplyResult struct {
	Plan      string           `json:"plan"`
	Mutations []MutationResult `json:"mutations"`
	Applied   int              `json:"applied"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <plan.cue>",
		Short: "Run a batch of set/mset mutations from a CUE plan",
		Long: `Run a batch of set/mset mutations from a CUE plan.

The plan's prefixes are added to the configured ones. Mutations run in
order; the first failure stops the batch.

Plan format:
  prefixes: {foaf: "http://xmlns.com/foaf/0.1/"}
  mutations: [
    {set: {graph: "<urn:g>", subject: "<urn:alice>", predicate: "foaf:age", object: 42}},
    {set: {graph: "<urn:g>", subject: "<urn:alice>", predicate: "foaf:nick", object: [{literal: "al"}]}},
    {mset: {graph: "<urn:g>", subject: "<urn:alice>", attributes: {"foaf:name": "Alice"}}},
  ]

Examples:
  sparqlc apply plan.cue
  sparqlc apply plan.cue --dry-run --format json`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the updates instead of sending them")

	return cmd
}

func runApply(cmd *cobra.Command, opts *ApplyOptions, path string) error {
	plan, err := LoadPlan(opts.Fs, path)
	if err != nil {
		return WrapExitError(ExitCommandError, "load plan", err)
	}

	prefixes := opts.prefixes()
	for name, iri := range plan.Prefixes.All() {
		prefixes.Set(name, iri)
	}

	result := ApplyResult{Plan: path, Mutations: make([]MutationResult, 0, len(plan.Mutations))}
	for _, m := range plan.Mutations {
		query, err := compileMutation(m, prefixes)
		if err != nil {
			return err
		}
		result.Mutations = append(result.Mutations, MutationResult{Query: query})
	}

	f := opts.formatter(cmd)
	if opts.DryRun {
		if f.IsJSON() {
			return f.Success(result)
		}
		for _, r := range result.Mutations {
			f.Line("%s", r.Query)
		}
		return nil
	}

	s, err := opts.openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	s.client.SetPrefixes(prefixes)

	for i, m := range plan.Mutations {
		rs, err := s.client.Apply(cmd.Context(), m)
		if err != nil {
			return applyFailed(f, result, i, err)
		}
		result.Mutations[i].Response = rs
		result.Mutations[i].Message = responseMessage(rs)
		result.Applied++
		if !f.IsJSON() {
			printMutationResult(f, result.Mutations[i], opts.Verbose)
		}
	}

	if f.IsJSON() {
		return f.Success(result)
	}
	f.Line("%d mutation(s) applied", result.Applied)
	return nil
}

// applyFailed reports a mid-batch failure with the count already applied.
func applyFailed(f *OutputFormatter, result ApplyResult, index int, err error) error {
	msg := fmt.Sprintf("mutation %d of %d failed after %d applied", index+1, len(result.Mutations), result.Applied)
	if f.IsJSON() {
		f.Error(errorCode(err), fmt.Sprintf("%s: %v", msg, err), map[string]any{
			"applied": result.Applied,
			"query":   result.Mutations[index].Query,
		})
		return &ExitError{Code: ExitFailure, Message: msg, Err: err, Reported: true}
	}
	f.Fail("%s", msg)
	if client.IsInvalidMutation(err) {
		return WrapExitError(ExitCommandError, msg, err)
	}
	return WrapExitError(ExitFailure, msg, err)
}
