package main

import (
	"github.com/spf13/cobra"

	"portfolio-rag/internal/db"
)

func migrateCMD(cfgPath *string) *cobra.Command {
	var migDir string
	var direction string
	var steps int

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			dsn, err := db.DSNWithPassword(cfg.Database.URL, cfg.Database.Password)
			if err != nil {
				return err
			}
			if migDir == "" {
				migDir = cfg.Database.MigrationsPath
			}
			return db.Migrate(migDir, dsn, direction, steps)
		},
	}
	migrate.Flags().StringVar(&migDir, "dir", "", "migrations source (defaults to database.migrations_path)")
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return migrate
}
