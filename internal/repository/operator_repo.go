package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/DEVASANJAY001/qamatrixx/internal/model"
)

// OperatorRepository 操作员数据访问接口
type OperatorRepository interface {
	Create(ctx context.Context, op *model.Operator) error
	GetByID(ctx context.Context, id string) (*model.Operator, error)
	GetByUsername(ctx context.Context, username string) (*model.Operator, error)
}

type operatorRepo struct {
	db *gorm.DB
}

// NewOperatorRepo 创建 OperatorRepository 实例
func NewOperatorRepo(db *gorm.DB) OperatorRepository {
	return &operatorRepo{db: db}
}

func (r *operatorRepo) Create(ctx context.Context, op *model.Operator) error {
	return r.db.WithContext(ctx).Create(op).Error
}

func (r *operatorRepo) GetByID(ctx context.Context, id string) (*model.Operator, error) {
	var op model.Operator
	err := r.db.WithContext(ctx).
		Where("operator_id = ?", id).
		First(&op).Error
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *operatorRepo) GetByUsername(ctx context.Context, username string) (*model.Operator, error) {
	var op model.Operator
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&op).Error
	if err != nil {
		return nil, err
	}
	return &op, nil
}
