package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"exam-planner/internal/catalog"
	"exam-planner/internal/repository"
)

var importDataDir string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "将 CSV 目录导入数据库（单事务）",
	Long: `读取 --data 目录下的 departments / formations / groups / memberships /
modules / professors / rooms / slots 八个 CSV 文件并写入数据库。
文件中的 *_id 列仅作为文件间引用键，入库后主键由数据库生成。`,
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

		ctx := cmd.Context()
		var stats *catalog.ImportStats
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			importer := catalog.NewImporter(repository.NewRepository(tx), importDataDir, rune(cfg.Export.Delimiter[0]), logger)
			var err error
			stats, err = importer.Import(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("导入失败: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "导入完成: 院系 %d, 专业 %d, 班组 %d (成员 %d), 模块 %d, 教师 %d, 考场 %d, 时段 %d\n",
			stats.Departments, stats.Formations, stats.Groups, stats.Members,
			stats.Modules, stats.Professors, stats.Rooms, stats.Slots)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDataDir, "data", "data", "CSV 目录所在文件夹")
	rootCmd.AddCommand(importCmd)
}
