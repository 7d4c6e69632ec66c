// Package cli implements the sparqlc command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/sparqlc/internal/client"
	"github.com/roach88/sparqlc/internal/config"
	"github.com/roach88/sparqlc/internal/ir"
	"github.com/roach88/sparqlc/internal/store"
)

// RootOptions holds global flags for all commands, and the configuration
// resolved from them before any subcommand runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Endpoint   string
	Prefixes   []string // name=iri
	PrefixFile string
	ConfigFile string
	Journal    string

	// Fs serves config, .env, CUE and scenario files. Default: the OS filesystem.
	Fs afero.Fs
	// Home overrides the home directory used to find the config file.
	Home string

	config *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sparqlc CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sparqlc",
		Short: "sparqlc - SPARQL endpoint client",
		Long: `Query a SPARQL endpoint and reshape its results, or compose
set/mset updates against a named graph.

Settings come from flags, SPARQLC_* environment variables, a .env file
and sparqlc.yaml, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Endpoint, "endpoint", "", "SPARQL endpoint URL")
	flags.StringArrayVar(&opts.Prefixes, "prefix", nil, "prefix declaration name=iri (repeatable)")
	flags.StringVar(&opts.PrefixFile, "prefix-file", "", "CUE file with a prefixes struct")
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default ./sparqlc.yaml or ~/.config/sparqlc/sparqlc.yaml)")
	flags.StringVar(&opts.Journal, "journal", "", "SQLite file recording every request")
	flags.Duration("timeout", 0, "HTTP timeout (default 30s)")

	// Add subcommands
	cmd.AddCommand(NewQueryCommand(opts))
	for _, shape := range shapeCommands {
		cmd.AddCommand(newShapeCommand(opts, shape))
	}
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewMSetCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewPrefixesCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads configuration and sets up logging.
func (opts *RootOptions) resolve(cmd *cobra.Command) error {
	if !isValidFormat(opts.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	loader := config.Loader{Fs: opts.Fs, ConfigFile: opts.ConfigFile, Home: opts.Home}
	cfg, err := loader.Load(cmd.Flags())
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}

	if opts.PrefixFile != "" {
		fromFile, err := LoadPrefixFile(opts.Fs, opts.PrefixFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "prefix file", err)
		}
		// Flag and config prefixes win over the file.
		for name, iri := range cfg.Prefixes.All() {
			fromFile.Set(name, iri)
		}
		cfg.Prefixes = fromFile
	}

	opts.config = cfg
	opts.Format = cfg.Format
	opts.Verbose = cfg.Verbose

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if cfg.File != "" {
		opts.logger.Debug("config loaded", "file", cfg.File)
	}
	return nil
}

// formatter builds the output formatter for cmd.
func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// prefixes returns the resolved prefix map.
func (opts *RootOptions) prefixes() *ir.OrderedMap {
	if opts.config == nil {
		return ir.NewOrderedMap()
	}
	return opts.config.Prefixes.Clone()
}

// session is a client plus the journal it records into, if any.
type session struct {
	client  *client.Client
	journal *store.Store
}

func (s *session) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

// openSession builds a client from the resolved configuration. The caller
// must Close the session.
func (opts *RootOptions) openSession() (*session, error) {
	cfg := opts.config
	if cfg == nil || cfg.Endpoint == "" {
		return nil, NewExitError(ExitCommandError, "no endpoint: set --endpoint, SPARQLC_ENDPOINT or endpoint in sparqlc.yaml")
	}

	s := &session{}
	clientOpts := []client.Option{
		client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		client.WithLogger(opts.logger),
		client.WithPrefixes(cfg.Prefixes.Clone()),
	}
	if cfg.Journal != "" {
		journal, err := store.Open(cfg.Journal)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open journal", err)
		}
		s.journal = journal
		clientOpts = append(clientOpts, client.WithRecorder(journal))
	}

	c, err := client.New(cfg.Endpoint, clientOpts...)
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "create client", err)
	}
	s.client = c
	return s, nil
}

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported through the output formatter: a JSON envelope on
// stdout with --format json, a red line on stderr otherwise.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return execute(ctx, &RootOptions{}, args, stdin, stdout, stderr)
}

func execute(ctx context.Context, opts *RootOptions, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !exitErr.Reported {
		format := opts.Format
		if !isValidFormat(format) {
			format = "text"
		}
		f := &OutputFormatter{Format: format, Writer: stdout, ErrWriter: stderr, Verbose: opts.Verbose}
		f.ReportError(err)
	}
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
