package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/classroom/internal/config"
	"github.com/sakif/classroom/internal/repository/postgres"
	sqliteRepo "github.com/sakif/classroom/internal/repository/sqlite"
)

// migrator is what both repository packages' Migrator types provide.
type migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Close() error
}

// NewMigrateCmd creates the migrate subcommand and its up/down/version
// children.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply or roll back the embedded schema migrations on the configured
database (sqlite or postgres). "serve" applies pending migrations on its own;
this command is for running them ahead of a deploy or undoing them.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				return printVersion(cmd, m)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration (drops all tables)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("All migrations rolled back")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m migrator) error {
				return printVersion(cmd, m)
			})
		},
	})

	return cmd
}

func printVersion(cmd *cobra.Command, m migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		cmd.Printf("Schema version %d (dirty)\n", version)
		return nil
	}
	cmd.Printf("Schema version %d\n", version)
	return nil
}

// withMigrator opens a migrator for the configured driver, runs fn and
// closes it.
func withMigrator(fn func(migrator) error) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return err
	}

	m, err := openMigrator(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, m.Close())
	}()

	return fn(m)
}

func openMigrator(cfg config.DatabaseConfig) (migrator, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		conn, err := sqliteRepo.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		m, err := sqliteRepo.NewMigrator(conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return m, nil
	case config.DriverPostgres:
		return postgres.NewMigrator(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
