package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlc/internal/ir"
	"github.com/roach88/sparqlc/internal/reshape"
)

// exactArgs is cobra.ExactArgs with a command-error exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.ExactArgs(n))
}

func wrapArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "usage", err)
		}
		return nil
	}
}

// readQueryText returns arg, or stdin when arg is "-".
func readQueryText(cmd *cobra.Command, arg string) (string, error) {
	text := arg
	if arg == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", WrapExitError(ExitCommandError, "read query from stdin", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", NewExitError(ExitCommandError, "empty query")
	}
	return text, nil
}

// runQuery opens a session, runs text and returns the parsed results.
func runQuery(cmd *cobra.Command, opts *RootOptions, text string) (*ir.ResultSet, error) {
	s, err := opts.openSession()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return s.client.Query(cmd.Context(), text)
}

// NewQueryCommand creates the query command.
func NewQueryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sparql|->",
		Short: "Run a query and print the full result set",
		Long: `Run a query and print the full result set.

The configured prefixes are prepended unless the query declares its own.
With --format json the data is the standard SPARQL results document.

Examples:
  sparqlc query 'SELECT ?s WHERE { ?s ?p ?o } LIMIT 10'
  echo 'ASK { ?s ?p ?o }' | sparqlc query -
  sparqlc --prefix foaf=http://xmlns.com/foaf/0.1/ query 'SELECT ?n WHERE { ?x foaf:name ?n }'`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readQueryText(cmd, args[0])
			if err != nil {
				return err
			}
			rs, err := runQuery(cmd, opts, text)
			if err != nil {
				return err
			}

			f := opts.formatter(cmd)
			if f.IsJSON() {
				return f.Success(rs)
			}
			return printResultSet(f, rs)
		},
	}
}

func printResultSet(f *OutputFormatter, rs *ir.ResultSet) error {
	if rs.IsBoolean() {
		f.Line("%s", strconv.FormatBool(*rs.Boolean))
		return nil
	}
	if len(rs.Vars) == 0 {
		f.Line("(%d rows)", rs.Len())
		return nil
	}
	if err := f.Table(rs.Vars, bindingTable(rs.Vars, rs.Bindings)); err != nil {
		return err
	}
	f.Line("(%d rows)", rs.Len())
	return nil
}

// shapeCommand describes one reshaping command.
type shapeCommand struct {
	name  string
	short string
	json  func(rs *ir.ResultSet) any
	text  func(f *OutputFormatter, rs *ir.ResultSet) error
}

var shapeCommands = []shapeCommand{
	{
		name:  "rows",
		short: "Print the result bindings",
		json:  func(rs *ir.ResultSet) any { return reshape.Rows(rs) },
		text: func(f *OutputFormatter, rs *ir.ResultSet) error {
			return f.Table(rs.Vars, bindingTable(rs.Vars, reshape.Rows(rs)))
		},
	},
	{
		name:  "cols",
		short: "Print one column per variable",
		json:  func(rs *ir.ResultSet) any { return reshape.Cols(rs) },
		text: func(f *OutputFormatter, rs *ir.ResultSet) error {
			cols := reshape.Cols(rs)
			for _, v := range rs.Vars {
				f.Line("%s: %s", v, joinTerms(cols[v]))
			}
			return nil
		},
	},
	{
		name:  "row",
		short: "Print the first binding",
		json:  func(rs *ir.ResultSet) any { return reshape.Row(rs) },
		text: func(f *OutputFormatter, rs *ir.ResultSet) error {
			row := reshape.Row(rs)
			if row == nil {
				return nil
			}
			for _, v := range rs.Vars {
				if t, ok := row.Get(v); ok {
					f.Line("%s = %s", v, termText(t))
				}
			}
			return nil
		},
	},
	{
		name:  "col",
		short: "Print the values of the representative variable",
		json:  func(rs *ir.ResultSet) any { return reshape.Col(rs) },
		text: func(f *OutputFormatter, rs *ir.ResultSet) error {
			for _, t := range reshape.Col(rs) {
				f.Line("%s", termText(t))
			}
			return nil
		},
	},
	{
		name:  "cell",
		short: "Print the first value of the first binding",
		json:  func(rs *ir.ResultSet) any { return reshape.Cell(rs) },
		text: func(f *OutputFormatter, rs *ir.ResultSet) error {
			if t := reshape.Cell(rs); t != nil {
				f.Line("%s", termText(*t))
			}
			return nil
		},
	},
}

func newShapeCommand(opts *RootOptions, shape shapeCommand) *cobra.Command {
	return &cobra.Command{
		Use:   shape.name + " <sparql|->",
		Short: shape.short,
		Long: fmt.Sprintf(`%s.

Runs the query like "sparqlc query" and reshapes the result. Empty
results print nothing in text mode and null or [] in JSON.`, shape.short),
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readQueryText(cmd, args[0])
			if err != nil {
				return err
			}
			rs, err := runQuery(cmd, opts, text)
			if err != nil {
				return err
			}

			f := opts.formatter(cmd)
			if f.IsJSON() {
				return f.Success(shape.json(rs))
			}
			return shape.text(f, rs)
		},
	}
}
