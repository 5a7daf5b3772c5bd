package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/juliasaboya/ScheduleEngine/internal/models"
	"github.com/juliasaboya/ScheduleEngine/internal/repository"
	"github.com/juliasaboya/ScheduleEngine/pkg/catalog"
	"github.com/juliasaboya/ScheduleEngine/pkg/config"
	"github.com/juliasaboya/ScheduleEngine/pkg/database"
	"github.com/juliasaboya/ScheduleEngine/pkg/logger"
)

type activityUpserter interface {
	Upsert(ctx context.Context, activity *models.Activity) error
}

func newMigrateCmd() *cobra.Command {
	var seedPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the catalog schema and optionally load a YAML seed",
		Long: `Create the activities and export job tables when missing.

With --seed, every activity of the YAML file is inserted or updated by id.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logr.Sync() //nolint:errcheck

			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
			logr.Info("schema migrated", zap.String("driver", cfg.Database.Driver))

			if seedPath == "" {
				return nil
			}
			count, err := seedCatalog(ctx, repository.NewActivityRepository(db), seedPath)
			if err != nil {
				return err
			}
			logr.Info("catalog seeded", zap.String("file", seedPath), zap.Int("activities", count))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d activities\n", count)
			return nil
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", "", "YAML catalog file to load")
	return cmd
}

func seedCatalog(ctx context.Context, repo activityUpserter, path string) (int, error) {
	activities, err := catalog.LoadFile(path)
	if err != nil {
		return 0, err
	}
	for i := range activities {
		if err := repo.Upsert(ctx, &activities[i]); err != nil {
			return i, fmt.Errorf("seed %q: %w", activities[i].Name, err)
		}
	}
	return len(activities), nil
}
