package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/DEVASANJAY001/qamatrixx/internal/model"
	pkgerrors "github.com/DEVASANJAY001/qamatrixx/pkg/errors"
)

// pgUniqueViolation PostgreSQL 唯一约束冲突错误码
const pgUniqueViolation = "23505"

// ConcernRepository 质量问题数据访问接口
type ConcernRepository interface {
	Create(ctx context.Context, c *model.QAConcern) error
	BatchCreate(ctx context.Context, cs []model.QAConcern) error
	GetBySNo(ctx context.Context, sNo int) (*model.QAConcern, error)
	// List 按序号升序返回全部记录（即集合的原始顺序）
	List(ctx context.Context) ([]model.QAConcern, error)
	// MaxSNo 包含已软删除记录的最大序号，空表返回 0
	MaxSNo(ctx context.Context) (int, error)
	Update(ctx context.Context, c *model.QAConcern) error
	Delete(ctx context.Context, sNo int, deletedBy string) error
	// ReplaceAll 在一个事务内清空集合并写入新记录（重置为基线）
	ReplaceAll(ctx context.Context, cs []model.QAConcern) error
}

type concernRepo struct {
	db *gorm.DB
}

// NewConcernRepo 创建 ConcernRepository 实例
func NewConcernRepo(db *gorm.DB) ConcernRepository {
	return &concernRepo{db: db}
}

func (r *concernRepo) Create(ctx context.Context, c *model.QAConcern) error {
	return translateError(r.db.WithContext(ctx).Create(c).Error)
}

func (r *concernRepo) BatchCreate(ctx context.Context, cs []model.QAConcern) error {
	if len(cs) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(cs, 200).Error)
}

func (r *concernRepo) GetBySNo(ctx context.Context, sNo int) (*model.QAConcern, error) {
	var c model.QAConcern
	err := r.db.WithContext(ctx).
		Where("s_no = ?", sNo).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *concernRepo) List(ctx context.Context) ([]model.QAConcern, error) {
	var cs []model.QAConcern
	err := r.db.WithContext(ctx).Order("s_no ASC").Find(&cs).Error
	return cs, err
}

func (r *concernRepo) MaxSNo(ctx context.Context) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.QAConcern{}).
		Select("COALESCE(MAX(s_no), 0)").
		Scan(&max).Error
	return max, err
}

func (r *concernRepo) Update(ctx context.Context, c *model.QAConcern) error {
	oldVersion := c.Version
	values := concernColumns(c)
	values["version"] = oldVersion + 1

	result := r.db.WithContext(ctx).
		Model(&model.QAConcern{}).
		Where("s_no = ? AND version = ?", c.SNo, oldVersion).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	c.Version = oldVersion + 1
	return nil
}

func (r *concernRepo) Delete(ctx context.Context, sNo int, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.QAConcern{}).
		Where("s_no = ?", sNo).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *concernRepo) ReplaceAll(ctx context.Context, cs []model.QAConcern) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 基线会重新从 1 编号，必须物理删除才能释放序号
		if err := tx.Unscoped().Where("1 = 1").Delete(&model.QAConcern{}).Error; err != nil {
			return err
		}
		if len(cs) == 0 {
			return nil
		}
		return translateError(tx.CreateInBatches(cs, 200).Error)
	})
}

// concernColumns 可更新列（不含主键与创建审计字段）
func concernColumns(c *model.QAConcern) map[string]interface{} {
	return map[string]interface{}{
		"source":                       c.Source,
		"operation_station":            c.OperationStation,
		"designation":                  c.Designation,
		"concern":                      c.Concern,
		"defect_rating":                c.DefectRating,
		"weekly_recurrence":            c.WeeklyRecurrence,
		"recurrence":                   c.Recurrence,
		"recurrence_count_plus_defect": c.RecurrenceCountPlusDefect,
		"trim":                         c.Trim,
		"chassis":                      c.Chassis,
		"final":                        c.Final,
		"q_control":                    c.QControl,
		"q_control_detail":             c.QControlDetail,
		"control_rating_mfg":           c.ControlRating.MFG,
		"control_rating_quality":       c.ControlRating.Quality,
		"control_rating_plant":         c.ControlRating.Plant,
		"workstation_status":           c.WorkstationStatus,
		"mfg_status":                   c.MFGStatus,
		"plant_status":                 c.PlantStatus,
		"resp":                         c.Resp,
		"mfg_action":                   c.MFGAction,
		"target":                       c.Target,
		"updated_by":                   c.UpdatedBy,
		"updated_at":                   gorm.Expr("NOW()"),
	}
}

// translateError 将序号唯一约束冲突转换为业务错误
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pkgerrors.ErrDuplicateSNo
	}
	return err
}
