package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DEVASANJAY001/qamatrixx/internal/model"
)

// ChangeLogRepository 变更日志数据访问接口
type ChangeLogRepository interface {
	Create(ctx context.Context, log *model.ConcernChangeLog) error
	ListBySNo(ctx context.Context, sNo int, offset, limit int) ([]model.ConcernChangeLog, int64, error)
}

type changeLogRepo struct {
	db *gorm.DB
}

// NewChangeLogRepo 创建 ChangeLogRepository 实例
func NewChangeLogRepo(db *gorm.DB) ChangeLogRepository {
	return &changeLogRepo{db: db}
}

func (r *changeLogRepo) Create(ctx context.Context, log *model.ConcernChangeLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *changeLogRepo) ListBySNo(ctx context.Context, sNo int, offset, limit int) ([]model.ConcernChangeLog, int64, error) {
	var logs []model.ConcernChangeLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ConcernChangeLog{}).Where("s_no = ?", sNo)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
