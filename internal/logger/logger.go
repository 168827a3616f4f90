package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/palemoky/uno-server/internal/config"
)

var logFile *os.File

// Init 按配置初始化全局 logrus 实例
func Init(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logrus.SetLevel(level)

	switch cfg.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.File == "" {
		logrus.SetOutput(os.Stdout)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	Close()
	logFile = f
	logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	return nil
}

// Close closes the log file
func Close() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// Room 返回带房间字段的日志入口
func Room(roomID string) *logrus.Entry {
	return logrus.WithField("room_id", roomID)
}

// Player 返回带房间和玩家字段的日志入口
func Player(roomID, playerID string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"room_id": roomID, "player_id": playerID})
}

// LogPanic logs a panic with stack trace
func LogPanic(r any) {
	logrus.WithField("stack", string(debug.Stack())).Errorf("💥 panic: %v", r)
}
