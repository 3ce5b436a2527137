// Command pbbctl runs maintenance tasks against the PBB database: bulk
// spreadsheet imports, schema migrations and admin account management.
// Results go to stdout, logs to stderr.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pesafrisma19/pbbkemang/internal/config"
	"github.com/pesafrisma19/pbbkemang/internal/database"
	"github.com/pesafrisma19/pbbkemang/internal/logger"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs. The database is opened lazily
// so that --help never dials Postgres.
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.Database
	in  io.Reader
	out io.Writer
}

func (a *app) open(ctx context.Context) (*database.Database, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := database.NewPostgresPool(ctx, a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.db = db
	return db, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "pbbctl",
		Short:         "Maintenance tool for the PBB Kemang database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg != nil {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.NewWithWriter(cfg.Server.Env, os.Stderr)
			return nil
		},
	}

	root.AddCommand(newImportCmd(a), newMigrateCmd(a), newAdminCmd(a))
	return root
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return database.Migrate(a.cfg.Database.DSN(), a.log.Named("migrate"))
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{in: os.Stdin, out: os.Stdout}
	defer a.close()

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pbbctl: %v\n", err)
		a.close()
		stop()
		os.Exit(1)
	}
}
