// Command lendingctl runs operator tasks against the lending database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-lending/lending/config"
	"github.com/Astemirdum/book-lending/lending/internal/repository"
	"github.com/Astemirdum/book-lending/lending/internal/service"
	"github.com/Astemirdum/book-lending/lending/migrations"
	"github.com/Astemirdum/book-lending/pkg/logger"
	"github.com/Astemirdum/book-lending/pkg/postgres"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lendingctl",
		Short:         "Operator tasks for the book lending service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newReconcileCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.NewConfig()
			db, err := postgres.NewPostgresDB(cmd.Context(), &cfg.Database, &migrations.MigrationFiles)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newReconcileCmd() *cobra.Command {
	var parallelism int
	cmd := &cobra.Command{
		Use:   "reconcile [book-id...]",
		Short: "Recompute review aggregates of the given books, or of every book",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			log := logger.NewLogger(cfg.Log, "lendingctl")
			defer func() { _ = log.Sync() }()

			db, err := postgres.NewPostgresDB(cmd.Context(), &cfg.Database, nil)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := newService(db, log, cfg, parallelism)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				n, err := svc.ReconcileAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "reconciled %d books\n", n)
				return nil
			}
			for _, ref := range args {
				b, err := svc.RecomputeBookAggregates(cmd.Context(), ref)
				if err != nil {
					return fmt.Errorf("%s: %w", ref, err)
				}
				fmt.Fprintf(out, "%s\taverage=%.2f\ttotal=%d\n", b.DisplayID, b.AverageRating, b.TotalReviews)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&parallelism, "parallelism", "p", 0, "concurrent repairs, defaults to RECONCILE_PARALLELISM")
	return cmd
}

func newService(db *sqlx.DB, log *zap.Logger, cfg *config.Config, parallelism int) (*service.Service, error) {
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return nil, err
	}
	if parallelism <= 0 {
		parallelism = cfg.Reconcile.Parallelism
	}
	return service.NewService(repo, log, service.WithReconcileParallelism(parallelism)), nil
}
