/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/surya-d-naidu/UniOD/internal/database"
	"github.com/surya-d-naidu/UniOD/internal/logging"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations to create or update database schema.
This command will:
- Create the users, od_requests, sessions and audit_logs tables
- Update table schemas if needed
- Create indexes for the list and export queries

The command uses the database configuration from the config file or environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := logging.GetLogger()

		// 2. 连接数据库
		logger.WithField("driver", cfg.Database.Driver).Info("connecting to database")
		db, err := database.ConnectWithRetry(cmd.Context(), cfg.Database, database.NewRetryPolicy(cfg.Retry))
		if err != nil {
			return err
		}
		defer database.Close(db)

		// 3. 执行迁移
		logger.Info("running database migrations")
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		logger.Info("database migrations completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
