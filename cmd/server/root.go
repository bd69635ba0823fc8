package main

import (
	"github.com/spf13/cobra"

	"github.com/sakif/classroom/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classroom",
		Short: "Classroom API - teachers, students, classes and assignments",
		Long: `Classroom is a multi-tenant classroom backend: teachers manage their
classes and assignments, students read those of their teacher.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default ./config.yaml if present)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// loadConfig reads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	return config.Load(configFile)
}
