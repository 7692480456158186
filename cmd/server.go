/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/container"
	"github.com/surya-d-naidu/UniOD/internal/logging"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the UniOD API server.
The server connects to the configured database, applies migrations,
seeds the administrator account when missing and serves the REST API
on the configured host and port.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		cfg, configPath, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host, _ = cmd.Flags().GetString("host")
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		logger := logging.GetLogger()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 2. 初始化容器
		ctr, err := container.NewContainer(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// 3. 初始管理员,失败不影响启动
		if cfg.Admin.Seed {
			ctr.AdminSeeder().SeedBestEffort(ctx)
		}

		// 4. 配置文件变更时热更新日志级别
		if configPath != "" {
			watcher := config.NewConfigWatcher(cfg, configPath)
			watcher.OnConfigChange(func(newCfg *config.Config) {
				logging.SetLoggerLevel(logging.ParseLevel(newCfg.Log.Level))
				logger.WithField("level", newCfg.Log.Level).Info("log level reloaded")
			})
			watcher.OnError(func(err error) {
				logger.WithError(err).Warn("ignoring invalid config change")
			})
			if err := watcher.Start(); err != nil {
				logger.WithError(err).Warn("config watcher not started")
			} else {
				defer watcher.Stop()
			}
		}

		if config.IsProduction(cfg) {
			gin.SetMode(gin.ReleaseMode)
		}

		// 5. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:              addr,
			Handler:           ctr.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.WithFields(logrus.Fields{
				"addr":          addr,
				"approval_mode": cfg.Approval.Mode,
				"driver":        cfg.Database.Driver,
			}).Info("server starting")
			errCh <- srv.ListenAndServe()
		}()

		// 等待中断信号
		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down server")

		// 优雅关闭
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		logger.Info("server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// 服务器配置标志
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}
