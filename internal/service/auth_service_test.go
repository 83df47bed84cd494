package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DEVASANJAY001/qamatrixx/config"
	"github.com/DEVASANJAY001/qamatrixx/internal/dto"
	"github.com/DEVASANJAY001/qamatrixx/internal/model"
	"github.com/DEVASANJAY001/qamatrixx/pkg/jwt"
)

// ── 测试辅助 ──

func setupTestAuthService() (AuthService, *mockOperatorRepo, *mockCache, *jwt.Manager) {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:    15 * time.Minute,
			BootstrapUsername: "admin",
			BootstrapPassword: "bootstrap-pass",
		},
	}
	repo, mocks := newTestRepos()
	cache := newMockCache()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := NewAuthService(cfg, repo, jwtMgr, cache, zap.NewNop())
	return svc, mocks.operator, cache, jwtMgr
}

func createTestOperator(repo *mockOperatorRepo, username, password, role string, active bool) *model.Operator {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	op := &model.Operator{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     active,
	}
	_ = repo.Create(context.Background(), op)
	return op
}

// ── Login 测试 ──

func TestAuthService_Login_Success(t *testing.T) {
	svc, opRepo, _, jwtMgr := setupTestAuthService()
	createTestOperator(opRepo, "qa.lead", "password123", model.RoleEditor, true)

	result, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "qa.lead", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if result.AccessToken == "" {
		t.Error("AccessToken 不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望ExpiresIn=900，实际=%d", result.ExpiresIn)
	}
	if result.Operator.Role != model.RoleEditor {
		t.Errorf("期望Role=editor，实际=%s", result.Operator.Role)
	}

	claims, err := jwtMgr.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("签发的 Token 应可解析: %v", err)
	}
	if claims.Username != "qa.lead" || claims.Role != model.RoleEditor {
		t.Errorf("Token 声明不符合预期: %+v", claims)
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	svc, opRepo, _, _ := setupTestAuthService()
	createTestOperator(opRepo, "qa.lead", "password123", model.RoleEditor, true)
	createTestOperator(opRepo, "former", "password123", model.RoleViewer, false)

	tests := []struct {
		name string
		req  dto.LoginRequest
		want error
	}{
		{"密码错误", dto.LoginRequest{Username: "qa.lead", Password: "wrong"}, ErrInvalidCredentials},
		{"用户不存在", dto.LoginRequest{Username: "nobody", Password: "password123"}, ErrInvalidCredentials},
		{"已停用", dto.LoginRequest{Username: "former", Password: "password123"}, ErrOperatorInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), &tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
}

// ── Logout 测试 ──

func TestAuthService_Logout_BlacklistsJTI(t *testing.T) {
	svc, opRepo, cache, jwtMgr := setupTestAuthService()
	createTestOperator(opRepo, "qa.lead", "password123", model.RoleEditor, true)

	result, _ := svc.Login(context.Background(), &dto.LoginRequest{Username: "qa.lead", Password: "password123"})
	claims, err := jwtMgr.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken 应成功: %v", err)
	}

	if err := svc.Logout(context.Background(), claims); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	ttl, ok := cache.blacklisted[claims.ID]
	if !ok {
		t.Fatal("登出后 JWT ID 应加入黑名单")
	}
	if ttl <= 0 || ttl > 15*time.Minute {
		t.Errorf("黑名单 TTL 应为 Token 剩余有效期，实际=%v", ttl)
	}
}

func TestAuthService_Logout_NilClaims(t *testing.T) {
	svc, _, cache, _ := setupTestAuthService()
	if err := svc.Logout(context.Background(), nil); err != nil {
		t.Errorf("无声明时登出应直接成功: %v", err)
	}
	if len(cache.blacklisted) != 0 {
		t.Error("无声明时不应写入黑名单")
	}
}

// ── Me / CreateOperator 测试 ──

func TestAuthService_Me(t *testing.T) {
	svc, opRepo, _, _ := setupTestAuthService()
	op := createTestOperator(opRepo, "qa.lead", "password123", model.RoleEditor, true)

	me, err := svc.Me(context.Background(), op.OperatorID)
	if err != nil {
		t.Fatalf("Me 应成功: %v", err)
	}
	if me.Username != "qa.lead" {
		t.Errorf("期望Username=qa.lead，实际=%s", me.Username)
	}

	if _, err := svc.Me(context.Background(), "missing"); !errors.Is(err, ErrOperatorNotFound) {
		t.Errorf("期望 ErrOperatorNotFound，实际: %v", err)
	}
}

func TestAuthService_CreateOperator(t *testing.T) {
	svc, opRepo, _, _ := setupTestAuthService()

	resp, err := svc.CreateOperator(context.Background(), &dto.CreateOperatorRequest{
		Username: "viewer1", Password: "password123", Role: model.RoleViewer,
	}, "op-admin")
	if err != nil {
		t.Fatalf("CreateOperator 应成功: %v", err)
	}
	if resp.Role != model.RoleViewer {
		t.Errorf("期望Role=viewer，实际=%s", resp.Role)
	}

	stored, _ := opRepo.GetByUsername(context.Background(), "viewer1")
	if stored.PasswordHash == "password123" {
		t.Error("密码应以 bcrypt 哈希存储")
	}

	_, err = svc.CreateOperator(context.Background(), &dto.CreateOperatorRequest{
		Username: "viewer1", Password: "password123", Role: model.RoleViewer,
	}, "op-admin")
	if !errors.Is(err, ErrOperatorExists) {
		t.Errorf("期望 ErrOperatorExists，实际: %v", err)
	}
}

// ── EnsureBootstrapOperator 测试 ──

func TestAuthService_EnsureBootstrapOperator(t *testing.T) {
	svc, opRepo, _, _ := setupTestAuthService()

	if err := svc.EnsureBootstrapOperator(context.Background()); err != nil {
		t.Fatalf("EnsureBootstrapOperator 应成功: %v", err)
	}
	op, err := opRepo.GetByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("应已创建初始管理员: %v", err)
	}
	if op.Role != model.RoleAdmin {
		t.Errorf("初始管理员角色应为 admin，实际=%s", op.Role)
	}

	// 再次执行不应报错也不应覆盖
	firstHash := op.PasswordHash
	if err := svc.EnsureBootstrapOperator(context.Background()); err != nil {
		t.Fatalf("重复执行应成功: %v", err)
	}
	op, _ = opRepo.GetByUsername(context.Background(), "admin")
	if op.PasswordHash != firstHash {
		t.Error("已存在的初始管理员不应被覆盖")
	}

	if _, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "admin", Password: "bootstrap-pass"}); err != nil {
		t.Errorf("初始管理员应可登录: %v", err)
	}
}
