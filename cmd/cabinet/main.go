package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/cabinet/config"
)

var version = "dev"

var configFiles []string

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "cabinet",
	Short:   "Hierarchical file manager backed by S3-compatible storage",
	Long: `Cabinet is a file-manager service that keeps a folder hierarchy and
file metadata in a relational database while the file bytes live in an
S3-compatible object store. It exposes a REST API for folder management,
server-proxied and presigned uploads, downloads, and recursive deletion.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&configFiles, "config", nil, "config file path, repeatable (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (env: CABINET_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (env: CABINET_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("bucket", "", "object store bucket (env: CABINET_STORAGE_BUCKET)")
	rootCmd.PersistentFlags().String("endpoint", "", "S3-compatible endpoint URL (env: CABINET_STORAGE_ENDPOINT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
