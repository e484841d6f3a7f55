package main

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plug/fuel-api/internal/pkg/database"
	"github.com/plug/fuel-api/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded schema (idempotent)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		names, err := fs.Glob(migrations.FS, "*.sql")
		if err != nil {
			return err
		}
		sort.Strings(names)

		db, err := database.NewPostgres(viper.GetString("database-url"), database.PoolOptions{MaxOpenConns: 1})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer database.ClosePostgres(db)

		for _, name := range names {
			body, err := fs.ReadFile(migrations.FS, name)
			if err != nil {
				return err
			}
			if _, err := db.ExecContext(cmd.Context(), string(body)); err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
			log.Info().Str("file", name).Msg("Migration applied")
		}
		return nil
	},
}
