package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solarops/internal/repository/sqlite"
)

var migrationsPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|steps N|version]",
	Short: "Apply or inspect database migrations",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DB.Driver == "sqlite" || cfg.DB.Driver == "" {
			if args[0] != "up" {
				return eris.Errorf("sqlite only supports `migrate up`")
			}
			db, err := sqlite.Open(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			if err := sqlite.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			zap.L().Info("sqlite schema applied", zap.String("path", cfg.DB.Path))
			return nil
		}

		m, err := migrate.New("file://"+migrationsPath, cfg.DB.DSN())
		if err != nil {
			return eris.Wrap(err, "create migrate instance")
		}
		defer func() { _, _ = m.Close() }()

		switch args[0] {
		case "up":
			if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return eris.Wrap(err, "migration up")
			}
			zap.L().Info("migrations applied successfully")
		case "down":
			if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return eris.Wrap(err, "migration down")
			}
			zap.L().Info("migrations reverted successfully")
		case "steps":
			if len(args) < 2 {
				return eris.New("steps requires a number argument")
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return eris.Wrapf(err, "invalid steps argument %q", args[1])
			}
			if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return eris.Wrap(err, "migration steps")
			}
			zap.L().Info("applied migration steps", zap.Int("steps", n))
		case "version":
			version, dirty, err := m.Version()
			if err != nil {
				return eris.Wrap(err, "get version")
			}
			fmt.Printf("version: %d, dirty: %v\n", version, dirty)
		default:
			return eris.Errorf("unknown migrate command %q", args[0])
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsPath, "path", "db/migrations", "migrations directory")
	rootCmd.AddCommand(migrateCmd)
}
