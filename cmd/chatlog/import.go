package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/chatlog/providers/memory"
	"github.com/leofalp/chatlog/providers/memory/pgmemory"
	"github.com/leofalp/chatlog/providers/observability"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		replace      bool
		createSchema bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store a transcript file in a PostgreSQL session",
		Long: `Read the transcript given with --input and append it to the session given
with --session. The whole import runs in one transaction.

Examples:
  chatlog import -i chat.json --database-url postgres://localhost/chatlog --session s1
  chatlog import -i chat.jsonl --session s1 --replace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.input == "" {
				return errors.New("import needs --input")
			}
			if a.cfg.Database.URL == "" || a.cfg.Database.Session == "" {
				return errors.New("import needs --database-url and --session")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			messages, err := a.readInput(cmd)
			if err != nil {
				return err
			}

			pool, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			start := time.Now()
			tableOpt := pgmemory.WithTableName(a.cfg.Database.Table)
			if createSchema {
				if err := pgmemory.New(pool, a.cfg.Database.Session, tableOpt).EnsureSchema(ctx); err != nil {
					return err
				}
			}

			tx, err := pool.Begin(ctx)
			if err != nil {
				return fmt.Errorf("begin import: %w", err)
			}
			defer func() { _ = tx.Rollback(ctx) }()

			store := pgmemory.New(tx, a.cfg.Database.Session, tableOpt)
			if replace {
				if err := store.ClearMessages(ctx); err != nil {
					return err
				}
			}
			stored, err := memory.AppendAll(ctx, store, messages)
			if err != nil {
				return fmt.Errorf("import stopped after %d of %d messages: %w", stored, len(messages), err)
			}
			if err := tx.Commit(ctx); err != nil {
				return fmt.Errorf("commit import: %w", err)
			}

			a.observer.Info(ctx, "Transcript imported",
				observability.String(observability.AttrMemorySessionID, a.cfg.Database.Session),
				observability.Int(observability.AttrMessagesCount, stored),
				observability.Duration(observability.AttrDuration, time.Since(start)),
			)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d messages into session %q\n", stored, a.cfg.Database.Session)
			return err
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&replace, "replace", false, "Delete the session's existing messages first")
	flags.BoolVar(&createSchema, "create-schema", true, "Create the table and indexes if missing")
	return cmd
}
