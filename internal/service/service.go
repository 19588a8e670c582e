package service

import (
	"go.uber.org/zap"

	"exam-planner/config"
	"exam-planner/internal/catalog"
	"exam-planner/internal/repository"
	"exam-planner/pkg/metrics"
	"exam-planner/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Planning PlanningService
	Exam     ExamService
	Export   ExportService
}

// NewService 创建 Service 聚合
// rdb 为 nil 时运行锁降级为进程内互斥，且不缓存运行摘要
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	m *metrics.PlannerMetrics,
	logger *zap.Logger,
) *Service {
	var store RunStore
	if rdb != nil {
		store = rdb
	}
	loader := catalog.NewRepoLoader(repo, logger)

	return &Service{
		Planning: NewPlanningService(cfg, repo, loader, store, m, logger),
		Exam:     NewExamService(repo, logger),
		Export:   NewExportService(cfg, repo, logger),
	}
}
