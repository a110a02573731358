package logger

import (
	"io"
	"os"
	"path/filepath"

	"mtrbac/pkg/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 进程级日志实例；Initialize 之前是默认配置的 logrus 实例
var Logger = logrus.New()

// Initialize 初始化日志
func Initialize(cfg *config.Config) error {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if cfg.Log.FilePath != "" {
		logDir := filepath.Dir(cfg.Log.FilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return err
		}

		// 配置日志轮转
		rotateLogger := &lumberjack.Logger{
			Filename:   cfg.Log.FilePath,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
			Compress:   cfg.Log.Compress,
		}

		// 同时输出到文件和控制台
		l.SetOutput(io.MultiWriter(os.Stdout, rotateLogger))
	}

	Logger = l
	return nil
}

// GetLogger 获取日志实例；未初始化时返回默认实例（测试、CLI 子命令）
func GetLogger() *logrus.Logger {
	return Logger
}

// WithTenant 返回带租户字段的日志条目
func WithTenant(key string) *logrus.Entry {
	return GetLogger().WithField("tenant", key)
}
