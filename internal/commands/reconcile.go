package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"school-finance-backend/internal/lock"
	"school-finance-backend/internal/repository"
	service "school-finance-backend/internal/services/reconciliation"
)

func (a *app) reconciliationService(ctx context.Context) (*service.ReconciliationService, func(), error) {
	store, closeStore, err := openStore(a.cfg, a.log)
	if err != nil {
		return nil, nil, err
	}
	locker, closeLocker, err := newLocker(ctx, a.cfg, a.log)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return newReconciliationService(a, store, locker), func() {
		closeLocker()
		closeStore()
	}, nil
}

func newReconciliationService(a *app, store repository.Store, locker lock.Locker) *service.ReconciliationService {
	return service.NewReconciliationService(store, locker, a.log, service.Options{
		Workers:  a.cfg.MatchWorkers,
		LockTTL:  a.cfg.MatchLockTTL,
		Location: a.cfg.Location(),
	})
}

func schoolFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "school", "", "school id (required)")
	_ = cmd.MarkFlagRequired("school")
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newImportCommand(a *app) *cobra.Command {
	var school string

	cmd := &cobra.Command{
		Use:   "import <statement.csv|statement.xlsx>",
		Short: "Import a bank statement for a school",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schoolID, err := uuid.Parse(school)
			if err != nil {
				return fmt.Errorf("invalid --school: %w", err)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening statement: %w", err)
			}
			defer f.Close()

			svc, closeDeps, err := a.reconciliationService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDeps()

			result, err := svc.ImportFile(cmd.Context(), schoolID, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	schoolFlag(cmd, &school)

	return cmd
}

func newMatchCommand(a *app) *cobra.Command {
	var school string

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run matching over a school's unmatched bank transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schoolID, err := uuid.Parse(school)
			if err != nil {
				return fmt.Errorf("invalid --school: %w", err)
			}

			svc, closeDeps, err := a.reconciliationService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDeps()

			run, err := svc.RunMatching(cmd.Context(), schoolID)
			if err != nil {
				return err
			}
			return printJSON(cmd, run.Batch)
		},
	}
	schoolFlag(cmd, &school)

	return cmd
}
