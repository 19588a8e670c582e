package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"exam-planner/config"
	"exam-planner/pkg/database"
	applogger "exam-planner/pkg/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "planner",
	Short:         "考试排期命令行工具",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "配置文件路径（默认 ./config/config.yaml）")
}

// Execute 执行根命令
func Execute() error { return rootCmd.Execute() }

// bootstrap 加载配置并初始化日志
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, logger, nil
}

// openDB 连接数据库，返回关闭函数
func openDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	closeFn := func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
	}
	return db, closeFn, nil
}
