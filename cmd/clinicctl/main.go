package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-scheduling/internal/app"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/identity"
	"github.com/hackgods/clinic-scheduling/internal/logging"
	"github.com/hackgods/clinic-scheduling/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicctl",
		Short: "Clinic scheduling operator tool",
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(regenerateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func connect(ctx context.Context) (config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if cfg.StorageDriver != config.StoragePostgres {
		return config.Config{}, nil, fmt.Errorf("clinicctl needs STORAGE_DRIVER=%s", config.StoragePostgres)
	}
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 2, MinConns: 1})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, pool, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format(time.DateTime)
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func regenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Materialize a doctor's weekly availability into slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctorFlag, _ := cmd.Flags().GetString("doctor")
			weeks, _ := cmd.Flags().GetInt("weeks")
			specFlag, _ := cmd.Flags().GetString("specialization")

			doctorID, err := uuid.Parse(doctorFlag)
			if err != nil {
				return fmt.Errorf("--doctor must be a UUID: %w", err)
			}
			var specID *uuid.UUID
			if specFlag != "" {
				id, err := uuid.Parse(specFlag)
				if err != nil {
					return fmt.Errorf("--specialization must be a UUID: %w", err)
				}
				specID = &id
			}

			ctx := cmd.Context()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if weeks == 0 {
				weeks = cfg.RegenDefaultWeeks
			}

			log := logging.New(cfg.Env, cfg.LogLevel, "clinicctl")
			svc := app.NewServices(app.PostgresBackend(pool), cfg, log)

			res, err := svc.Slots.Regenerate(ctx, doctorID, weeks, specID)
			if err != nil {
				return err
			}
			fmt.Printf("Inserted %d slot(s) for doctor %s over %d week(s).\n", res.Inserted, doctorID, weeks)
			return nil
		},
	}
	cmd.Flags().String("doctor", "", "Doctor user id")
	cmd.Flags().Int("weeks", 0, "Weeks ahead to generate (default REGEN_DEFAULT_WEEKS)")
	cmd.Flags().String("specialization", "", "Specialization id; required when the doctor has several")
	_ = cmd.MarkFlagRequired("doctor")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userFlag, _ := cmd.Flags().GetString("user")
			roleFlag, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("--user must be a UUID: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			tok, err := identity.NewManager(cfg.JWTSecret, cfg.JWTIssuer).
				Issue(identity.Identity{UserID: userID, Role: identity.Role(roleFlag)}, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().String("user", "", "User id (token subject)")
	cmd.Flags().String("role", string(identity.RolePatient), "Role: admin, doctor or patient")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
