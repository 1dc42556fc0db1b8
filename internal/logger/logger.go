// Package logger 初始化全局 zerolog 日志。
package logger

import (
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/partyhub/internal/config"
)

// Init 设置全局日志级别和输出格式
func Init(cfg config.LogConfig) error {
	return InitWriter(cfg, os.Stderr)
}

// InitWriter 与 Init 相同，但指定输出目标
func InitWriter(cfg config.LogConfig, w io.Writer) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}

// LogPanic 记录 recover 到的 panic 及其堆栈
func LogPanic(r any, where string) {
	log.Error().
		Interface("panic", r).
		Str("where", where).
		Bytes("stack", debug.Stack()).
		Msg("recovered from panic")
}
