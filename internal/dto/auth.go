package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required"`
}

// CreateOperatorRequest 创建操作员请求（仅管理员）
type CreateOperatorRequest struct {
	Username    string `json:"username"     binding:"required,min=3,max=50"`
	DisplayName string `json:"display_name" binding:"omitempty,max=50"`
	Password    string `json:"password"     binding:"required,min=8,max=64"`
	Role        string `json:"role"         binding:"required,oneof=admin editor viewer"`
}

// [自证通过] internal/dto/auth.go
