package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"exam-planner/internal/repository"
	"exam-planner/internal/service"
)

var exportOpts struct {
	runID  string
	format string
	out    string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "导出已落库运行的考试安排（CSV / XLSX）",
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

		svc := service.NewService(cfg, repository.NewRepository(db), nil, nil, logger)
		buf, filename, err := svc.Export.ExportExams(cmd.Context(), exportOpts.runID, exportOpts.format)
		if err != nil {
			return err
		}

		out := exportOpts.out
		if out == "" {
			out = filepath.Join(cfg.Export.Dir, filename)
		}
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("写入导出文件失败: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已导出: %s\n", out)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportOpts.runID, "run", "", "运行 ID（默认最近一次）")
	f.StringVar(&exportOpts.format, "format", service.FormatCSV, "导出格式: csv | xlsx")
	f.StringVarP(&exportOpts.out, "out", "o", "", "导出文件路径（默认 <export.dir>/<建议文件名>）")
	rootCmd.AddCommand(exportCmd)
}
