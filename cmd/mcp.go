package cmd

import (
	"fmt"

	internalApp "github.com/haierkeys/prompt-workspace-service/internal/app"
	"github.com/haierkeys/prompt-workspace-service/internal/mcp"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type mcpFlags struct {
	config string
}

func init() {
	mcpEnv := new(mcpFlags)

	// MCP 通过 stdio 通信，所有日志必须写入文件而不是标准输出
	var mcpCommand = &cobra.Command{
		Use:   "mcp [-c config_file]",
		Short: "Run MCP server over stdio",
		Run: func(cmd *cobra.Command, args []string) {
			if len(mcpEnv.config) <= 0 {
				mcpEnv.config = "config/config.yaml"
			}

			s, err := newMCPBackend(mcpEnv.config)
			if err != nil {
				bootstrapLogger.Error("mcp service start err", zap.Error(err))
				return
			}

			if err := mcp.Run(s.app); err != nil {
				s.logger.Error("mcp service err", zap.Error(err))
			}
		},
	}

	rootCmd.AddCommand(mcpCommand)
	fs := mcpCommand.Flags()
	fs.StringVarP(&mcpEnv.config, "config", "c", "", "config file")
}

// newMCPBackend 复用 run 的初始化流程，但不启动 HTTP 服务
func newMCPBackend(configPath string) (*Server, error) {
	appConfig, _, err := internalApp.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	s := &Server{config: appConfig}

	if err := initLoggerWithConfig(s, appConfig); err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}

	if err := initStorageWithConfig(appConfig); err != nil {
		return nil, fmt.Errorf("initStorage: %w", err)
	}

	db, err := initDatabaseWithConfig(appConfig)
	if err != nil {
		return nil, fmt.Errorf("initDatabase: %w", err)
	}
	s.db = db

	app, err := internalApp.NewApp(appConfig, s.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create app container: %w", err)
	}
	s.app = app

	return s, nil
}
