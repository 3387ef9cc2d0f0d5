package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solveit/internal/app"
	"solveit/internal/seed"
	"solveit/internal/service"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "solvectl",
		Short:         "SolveIT operator commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	// each command bootstraps lazily so --help works without a database
	bootstrap := func(migrate bool) (*app.Runtime, error) {
		return app.Bootstrap(configPath, migrate)
	}

	root.AddCommand(
		newMigrateCmd(bootstrap),
		newSeedCmd(bootstrap),
		newSweepCmd(bootstrap),
		newRecomputeCmd(bootstrap),
		newImportStudentsCmd(bootstrap),
	)
	return root
}

type bootstrapFunc func(migrate bool) (*app.Runtime, error)

func newMigrateCmd(bootstrap bootstrapFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(true)
			if err != nil {
				return err
			}
			defer rt.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newSeedCmd(bootstrap bootstrapFunc) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create admin accounts and the staff directory from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := seed.Load(file)
			if err != nil {
				return err
			}
			rt, err := bootstrap(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			staff := service.NewStaffService(rt.Repo, rt.Logger, rt.Config.Server.BaseURL)
			res, err := seed.NewSeeder(rt.Repo, staff, rt.Logger).Run(cmd.Context(), dir)
			if res != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "admins created: %d, staff created: %d, skipped: %d\n",
					res.AdminsCreated, res.StaffCreated, len(res.Skipped))
				for _, c := range res.Credentials {
					fmt.Fprintf(out, "%s\t%s\n", c.Email, c.TempPassword)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "config/staff.seed.yaml", "seed file")
	return cmd
}

func newSweepCmd(bootstrap bootstrapFunc) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one escalation sweep now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now().UTC()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				now = t.UTC()
			}

			rt, err := bootstrap(false)
			if err != nil {
				return err
			}
			defer rt.Close()

			svc := newEscalationService(rt)
			res, err := svc.Sweep(cmd.Context(), now)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluate deadlines as of this RFC3339 time (default now)")
	return cmd
}

func newRecomputeCmd(bootstrap bootstrapFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Recalculate every staff performance score from the counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(false)
			if err != nil {
				return err
			}
			defer rt.Close()

			processed, failed, err := service.NewPerformanceScorer(rt.Repo, rt.Logger).RecomputeAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d staff scores, %d failed\n", processed, failed)
			if failed > 0 {
				return fmt.Errorf("%d scores could not be updated", failed)
			}
			return nil
		},
	}
}

func newImportStudentsCmd(bootstrap bootstrapFunc) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import-students",
		Short: "Create student accounts from an xlsx sheet (name, email, phone, college)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			rt, err := bootstrap(false)
			if err != nil {
				return err
			}
			defer rt.Close()

			users := service.NewUserService(rt.Repo, rt.Logger)
			rows, err := users.ParseImportFile(f)
			if err != nil {
				return err
			}
			res, err := users.ImportStudents(cmd.Context(), rows, "")
			if err != nil {
				return err
			}
			rt.Logger.Info("student import finished", zap.Int("success", res.Success), zap.Int("failed", res.Failed))
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "xlsx file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// newEscalationService wires the engine with inline notification delivery
func newEscalationService(rt *app.Runtime) service.EscalationService {
	scorer := service.NewPerformanceScorer(rt.Repo, rt.Logger)
	return service.NewEscalationService(rt.Repo, scorer, rt.SyncDispatcher(nil), nil, rt.Logger, rt.Config.Escalation.BatchSize)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
