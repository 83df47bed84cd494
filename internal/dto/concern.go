package dto

import "github.com/DEVASANJAY001/qamatrixx/internal/model"

// ── 质量问题模块 DTO ──

// ConcernListRequest 列表/导出查询参数（所有条件 AND 组合）
type ConcernListRequest struct {
	Search       string `form:"search"`
	Source       string `form:"source"`
	Designation  string `form:"designation"`
	DefectRating int    `form:"rating"       binding:"omitempty,oneof=1 3 5"`
	Status       string `form:"status"       binding:"omitempty,oneof=NG OK"`
	Level        string `form:"level"        binding:"omitempty,oneof=Workstation MFG Plant"`
	LevelStatus  string `form:"level_status" binding:"omitempty,oneof=NG OK"`
}

// CreateConcernRequest 手工录入请求
type CreateConcernRequest struct {
	Source           string `json:"source"            binding:"omitempty,max=100"`
	OperationStation string `json:"operation_station" binding:"omitempty,max=100"`
	Designation      string `json:"designation"       binding:"omitempty,max=100"`
	Concern          string `json:"concern"           binding:"required"`
	DefectRating     int    `json:"defect_rating"     binding:"required,oneof=1 3 5"`
	WeeklyRecurrence []int  `json:"weekly_recurrence" binding:"omitempty,len=6,dive,min=0"`
	Resp             string `json:"resp"              binding:"omitempty,max=100"`
	MFGAction        string `json:"mfg_action"`
	Target           string `json:"target"            binding:"omitempty,max=100"`
}

// UpdateScoreRequest 单个检查项评分更新；Value 为 null 表示清空
type UpdateScoreRequest struct {
	Group string `json:"group" binding:"required"`
	Check string `json:"check" binding:"required"`
	Value *int   `json:"value"`
}

// UpdateWeeklyRequest 周复发计数更新
type UpdateWeeklyRequest struct {
	Week  *int `json:"week"  binding:"required,min=0,max=5"`
	Count *int `json:"count" binding:"required"`
}

// UpdateFieldRequest 文本字段或缺陷等级更新
type UpdateFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// ConcernListResponse 列表响应（Showing N of M）
type ConcernListResponse struct {
	Items   []model.QAConcern `json:"items"`
	Showing int               `json:"showing"`
	Total   int               `json:"total"`
}

// FacetsResponse 筛选下拉选项
type FacetsResponse struct {
	Sources      []string `json:"sources"`
	Designations []string `json:"designations"`
}

// ImportResponse 导入结果
type ImportResponse struct {
	Imported int `json:"imported"`
	FirstSNo int `json:"first_sno,omitempty"`
	LastSNo  int `json:"last_sno,omitempty"`
}

// RecomputeResponse 全量重算结果
type RecomputeResponse struct {
	Total   int `json:"total"`
	Changed int `json:"changed"`
}

// ChangeLogListRequest 变更历史分页参数
type ChangeLogListRequest struct {
	PaginationRequest
}

// ChangeLogResponse 变更历史条目
type ChangeLogResponse struct {
	ID         string `json:"id"`
	SNo        int    `json:"s_no"`
	ChangeType string `json:"change_type"`
	Field      string `json:"field,omitempty"`
	OldValue   any    `json:"old_value,omitempty"`
	NewValue   any    `json:"new_value,omitempty"`
	OperatorID string `json:"operator_id,omitempty"`
	CreatedAt  string `json:"created_at"`
}
