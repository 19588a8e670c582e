package main

import (
	"github.com/spf13/cobra"

	"exam-planner/pkg/database"
)

var migrateDown int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移（--down N 回滚 N 步）",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, closeDB, err := openDB(cfg, logger)
		if err != nil {
			return err
		}
		defer closeDB()

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if migrateDown > 0 {
			return database.RollbackMigrations(sqlDB, migrateDown, logger)
		}
		return database.RunMigrations(sqlDB, logger)
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateDown, "down", 0, "回滚步数")
	rootCmd.AddCommand(migrateCmd)
}
