package model

// 操作员角色
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Operator 操作员表，对应 operators
type Operator struct {
	OperatorID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"operator_id"`
	Username     string `gorm:"type:varchar(64);not null;uniqueIndex"          json:"username"`
	DisplayName  string `gorm:"type:varchar(100);not null;default:''"          json:"display_name"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'viewer'"     json:"role"` // admin | editor | viewer
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Operator) TableName() string { return "operators" }
