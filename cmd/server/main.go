package main

import (
	"log"
	"os"

	"mtrbac/pkg/config"
	"mtrbac/pkg/logger"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "mtrbac",
		Short:         "Multi-tenant RBAC backend",
		SilenceUsage:  true,
		SilenceErrors: false,
		// 不带子命令时直接启动服务
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Migrate the main database and seed system data",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "sync-tenants",
			Short: "Provision missing tables for every active tenant",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSyncTenants(cmd.Context())
			},
		},
	)
	return root
}

// loadConfig 加载配置并初始化日志
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return cfg
}
