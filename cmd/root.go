/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "uniod",
	Short: "University OD request tracker API server",
	Long: `UniOD is a REST API server for university on-duty (OD) requests.
Students register, submit OD requests for dates and sessions, and
administrators review them and export the records as a spreadsheet.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.uniod)")
}

// GetRootCmd 返回根命令（用于测试）
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig 加载配置并按配置初始化日志
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.SetLogger(logger)

	return cfg, configPath, nil
}
