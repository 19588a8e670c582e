package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"exam-planner/internal/repository"
	"exam-planner/internal/service"
)

var checkRunID string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "重新审计已落库运行的冲突",
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
		ctx := cmd.Context()

		runID := checkRunID
		if runID == "" {
			latest, err := svc.Planning.GetLatestRun(ctx)
			if err != nil {
				return fmt.Errorf("查询最近运行失败: %w", err)
			}
			runID = latest.ID
		}

		summary, err := svc.Planning.CheckConflicts(ctx, runID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "运行 %s\n", runID)
		printConflicts(cmd.OutOrStdout(), summary)
		if !summary.Clean {
			return errConflictsFound
		}
		return nil
	},
}

// errConflictsFound 审计发现冲突时以非零状态退出
var errConflictsFound = errors.New("审计发现冲突")

func init() {
	checkCmd.Flags().StringVar(&checkRunID, "run", "", "运行 ID（默认最近一次）")
	rootCmd.AddCommand(checkCmd)
}
