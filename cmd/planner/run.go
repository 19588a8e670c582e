package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exam-planner/config"
	"exam-planner/internal/catalog"
	"exam-planner/internal/dto"
	"exam-planner/internal/export"
	"exam-planner/internal/planner"
	"exam-planner/internal/repository"
	"exam-planner/internal/service"
	"exam-planner/pkg/redis"
)

const (
	sourceDB  = "db"
	sourceCSV = "csv"
)

type runFlags struct {
	source    string
	dataDir   string
	out       string
	startDate string
	days      int
	seed      int64
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "执行一次排考并导出 CSV",
	Long: `执行一次贪心排考。
默认从数据库读取目录并将考试写入 exams 表；
--source csv 时从 --data 目录读取 CSV 目录，结果只保存在内存并导出。`,
	RunE: runPlanning,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.source, "source", sourceDB, "目录来源: db | csv")
	f.StringVar(&runOpts.dataDir, "data", "data", "CSV 目录所在文件夹（--source csv）")
	f.StringVarP(&runOpts.out, "out", "o", "", "导出文件路径（默认 <export.dir>/planning_examens.csv）")
	f.StringVar(&runOpts.startDate, "start-date", "", "首个考试日 YYYY-MM-DD")
	f.IntVar(&runOpts.days, "days", 0, "排考天数")
	f.Int64Var(&runOpts.seed, "seed", 0, "时段洗牌种子（0 表示按时间取）")
	rootCmd.AddCommand(runCmd)
}

func runPlanning(cmd *cobra.Command, _ []string) error {
	// 离线模式收到信号即停止；数据库模式下运行与信号解耦，跑完并落库状态后退出
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := applyRunFlags(cfg, runOpts); err != nil {
		return err
	}
	out := runOpts.out
	if out == "" {
		out = filepath.Join(cfg.Export.Dir, export.DefaultCSVName)
	}

	switch runOpts.source {
	case sourceCSV:
		return runOffline(ctx, cfg, runOpts.dataDir, out, logger, cmd.OutOrStdout())
	case sourceDB:
		return runWithDB(ctx, cfg, out, logger, cmd)
	default:
		return fmt.Errorf("未知的目录来源 %q（可选 db | csv）", runOpts.source)
	}
}

// applyRunFlags 命令行参数覆盖配置
func applyRunFlags(cfg *config.Config, f runFlags) error {
	if f.startDate != "" {
		cfg.Planner.StartDate = f.startDate
	}
	if f.days > 0 {
		cfg.Planner.Days = f.days
	}
	if f.seed != 0 {
		cfg.Planner.Seed = f.seed
	}
	return cfg.Validate()
}

// ════════════════════════════════════════════════════════════
// 数据库模式：走 PlanningService，考试落库
// ════════════════════════════════════════════════════════════

func runWithDB(ctx context.Context, cfg *config.Config, out string, logger *zap.Logger, cmd *cobra.Command) error {
	db, closeDB, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 不可用，使用进程内互斥", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// 命令行进程不暴露指标
	svc := service.NewService(cfg, repository.NewRepository(db), rdb, nil, logger)

	result, err := svc.Planning.Run(ctx, &dto.RunPlanningRequest{})
	if err != nil {
		return fmt.Errorf("排考失败: %w", err)
	}
	printSummary(cmd.OutOrStdout(), result)

	if result.Placed == 0 {
		return nil
	}
	buf, _, err := svc.Export.ExportExams(ctx, result.ID, service.FormatCSV)
	if err != nil {
		return fmt.Errorf("导出失败: %w", err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("写入导出文件失败: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已导出: %s\n", out)
	return nil
}

// ════════════════════════════════════════════════════════════
// 离线模式：CSV 目录 → 内存排考 → CSV 导出
// ════════════════════════════════════════════════════════════

func runOffline(ctx context.Context, cfg *config.Config, dataDir, out string, logger *zap.Logger, w io.Writer) error {
	opts, err := cfg.Planner.Options()
	if err != nil {
		return err
	}
	seed := cfg.Planner.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	loader := catalog.NewCSVLoader(dataDir, rune(cfg.Export.Delimiter[0]), logger)
	cat, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	if cat.IsEmpty() {
		return service.ErrEmptyCatalog
	}

	// 内存中不存在写失败，直接接受每一场
	accept := planner.CommitFunc(func(context.Context, planner.Assignment) error { return nil })

	started := time.Now()
	engine := planner.NewEngine(opts, accept,
		planner.WithSlotOrder(planner.ShuffleOrder(seed)),
		planner.WithLogger(logger),
	)
	result, err := engine.Run(ctx, cat)
	if err != nil {
		return err
	}
	sizes := lo.SliceToMap(cat.Groups, func(g planner.Group) (string, int) { return g.ID, g.Size })
	report := planner.DetectConflicts(result.Placed, cat.Rooms, sizes, opts)
	finished := time.Now()

	summary := &dto.PlanningRunResponse{
		ID:             "offline",
		Status:         "completed",
		StartDate:      planner.DayOf(opts.StartDate).String(),
		Days:           opts.Days,
		Seed:           seed,
		Placed:         len(result.Placed),
		UnplacedCount:  len(result.Unplaced),
		CommitFailures: result.CommitFailures,
		Unplaced: lo.Map(result.Unplaced, func(u planner.Unplaced, _ int) dto.UnplacedResponse {
			return dto.UnplacedResponse{GroupID: u.GroupID, ModuleID: u.ModuleID, Reason: string(u.Reason)}
		}),
		Conflicts: service.ConflictSummaryOf(report),
		ElapsedMs: finished.Sub(started).Milliseconds(),
	}
	printSummary(w, summary)

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("创建导出文件失败: %w", err)
	}
	defer f.Close()

	rows := export.RowsFromAssignments(result.Placed, cat)
	if err := export.WriteCSV(f, rows, rune(cfg.Export.Delimiter[0])); err != nil {
		return err
	}
	fmt.Fprintf(w, "已导出: %s\n", out)
	return nil
}
