package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/leofalp/chatlog/core/history"
	"github.com/leofalp/chatlog/core/tokens"
	"github.com/leofalp/chatlog/internal/config"
	"github.com/leofalp/chatlog/internal/transcript"
	"github.com/leofalp/chatlog/providers/ai"
	"github.com/leofalp/chatlog/providers/memory/pgmemory"
	"github.com/leofalp/chatlog/providers/observability"
	"github.com/leofalp/chatlog/providers/observability/slogobs"
)

// errNoSource is returned when neither --input nor a database session is set.
var errNoSource = errors.New("no transcript source: use --input, or --database-url with --session")

// app carries the resolved global settings into every command.
type app struct {
	configPath      string
	input           string
	inputFormat     string
	databaseURL     string
	session         string
	table           string
	estimateTokens  bool
	repairArguments bool
	logLevel        string
	logFormat       string

	cfg      *config.Config
	observer *slogobs.Observer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "chatlog",
		Short: "Query and export chat-completion transcripts",
		Long: `chatlog reads a conversation transcript (JSON, JSONL or YAML file, stdin,
or a PostgreSQL session) and lets you filter it, compute statistics, summarize
tool usage, rebuild the turn timeline, and export it as JSON, Markdown or CSV.

Examples:
  chatlog stats -i conversation.json --estimate-tokens
  chatlog filter -i conversation.jsonl --role assistant --content error
  chatlog export -i conversation.json --format markdown -o conversation.md
  chatlog import -i conversation.json --database-url $DATABASE_URL --session s1`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML config file (default: $"+config.EnvConfig+")")
	flags.StringVarP(&a.input, "input", "i", "", `Transcript file, or "-" for stdin`)
	flags.StringVar(&a.inputFormat, "input-format", "", "Transcript format: json, jsonl, yaml (default: from extension)")
	flags.StringVar(&a.databaseURL, "database-url", "", "PostgreSQL connection string (default: $"+config.EnvDatabaseURL+")")
	flags.StringVar(&a.session, "session", "", "Stored session to read or write")
	flags.StringVar(&a.table, "table", "", "Table holding stored transcripts (default: "+config.DefaultTable+")")
	flags.BoolVar(&a.estimateTokens, "estimate-tokens", false, "Estimate token counts (about 4 characters per token)")
	flags.BoolVar(&a.repairArguments, "repair-arguments", false, "Repair malformed tool call arguments before parsing")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: compact, pretty, json")

	root.AddCommand(
		newFilterCmd(a),
		newStatsCmd(a),
		newToolsCmd(a),
		newTimelineCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// setup loads the configuration, lets explicitly set flags override it, and
// builds the logger. Logs go to stderr so stdout stays machine-readable.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("database-url") {
		cfg.Database.URL = a.databaseURL
	}
	if flags.Changed("session") {
		cfg.Database.Session = a.session
	}
	if flags.Changed("table") {
		cfg.Database.Table = a.table
	}
	if flags.Changed("estimate-tokens") {
		cfg.Tokens.Estimate = a.estimateTokens
	}
	if flags.Changed("repair-arguments") {
		cfg.RepairArguments = a.repairArguments
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := slogobs.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.observer = slogobs.New(
		slogobs.WithLevel(level),
		slogobs.WithFormat(slogobs.ParseFormat(cfg.Log.Format)),
		slogobs.WithOutput(cmd.ErrOrStderr()),
	)
	return nil
}

// historyOptions translates the configuration into engine options.
func (a *app) historyOptions() []history.Option {
	opts := []history.Option{history.WithObserver(a.observer)}
	if a.cfg.Tokens.Estimate {
		counter := tokens.NewCharCounter(tokens.WithCharactersPerToken(a.cfg.Tokens.CharactersPerToken))
		opts = append(opts, history.WithTokenCounter(counter))
	}
	if a.cfg.RepairArguments {
		opts = append(opts, history.WithArgumentRepair())
	}
	return opts
}

// readInput decodes the transcript named by --input.
func (a *app) readInput(cmd *cobra.Command) ([]ai.Message, error) {
	format, err := transcript.ParseFormat(a.inputFormat)
	if err != nil {
		return nil, err
	}
	if a.input == "-" {
		return transcript.Read(cmd.InOrStdin(), format)
	}
	if format == transcript.FormatAuto {
		return transcript.ReadFile(a.input)
	}
	data, err := os.ReadFile(a.input)
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	return transcript.Decode(data, format)
}

// connect opens a pool and checks that it can reach the server.
func (a *app) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, a.cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}

// loadHistory reads the transcript from --input when given, otherwise from
// the configured database session.
func (a *app) loadHistory(cmd *cobra.Command) (*history.History, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if a.input != "" {
		messages, err := a.readInput(cmd)
		if err != nil {
			return nil, err
		}
		a.observer.Debug(ctx, "Transcript read",
			observability.String("source", a.input),
			observability.Int(observability.AttrMessagesCount, len(messages)),
		)
		return history.New(messages, a.historyOptions()...), nil
	}

	if a.cfg.Database.URL == "" || a.cfg.Database.Session == "" {
		return nil, errNoSource
	}
	pool, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	store := pgmemory.New(pool, a.cfg.Database.Session, pgmemory.WithTableName(a.cfg.Database.Table))
	return history.Load(ctx, store, a.historyOptions()...)
}

// writeJSON prints v as indented JSON without HTML escaping.
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
