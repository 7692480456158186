/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/surya-d-naidu/UniOD/internal/container"
	"github.com/surya-d-naidu/UniOD/internal/logging"
)

// seedAdminCmd represents the seed-admin command
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the administrator account",
	Long: `Create the administrator account described by the admin.* settings
when it does not exist yet. An existing account is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctr, err := container.NewContainer(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		created, err := ctr.AdminSeeder().Seed(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}

		entry := logging.GetLogger().WithField("registration_number", cfg.Admin.RegistrationNumber)
		if created {
			entry.Info("admin account created")
		} else {
			entry.Info("admin account already exists")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)
}
