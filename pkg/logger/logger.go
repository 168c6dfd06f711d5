package logger

import (
	"os"
	"path/filepath"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger 全局日志实例
	Logger *zap.Logger
	// Sugar 带语法糖的日志实例（支持格式化）
	Sugar *zap.SugaredLogger
)

// Init 初始化日志系统
func Init(cfg *config.LoggingConfig) error {
	level := parseLevel(cfg.Level)

	consoleEncoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var cores []zapcore.Core

	// console 输出彩色易读格式，file 输出无色 JSON
	if cfg.Output == "console" || cfg.Output == "both" || cfg.Output == "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderConfig),
			zapcore.AddSync(os.Stdout),
			level,
		))
	}
	if cfg.Output == "file" || cfg.Output == "both" {
		fileEncoderConfig := consoleEncoderConfig
		fileEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

		fileWriter, err := getFileWriter(cfg.File)
		if err != nil {
			return err
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderConfig),
			zapcore.AddSync(fileWriter),
			level,
		))
	}

	core := zapcore.NewTee(cores...)
	Logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	Sugar = Logger.Sugar()

	zap.ReplaceGlobals(Logger)

	Sugar.Infof("Logger initialized: output=%s, level=%s", cfg.Output, cfg.Level)
	return nil
}

// getFileWriter 获取文件写入器
func getFileWriter(logFile string) (*os.File, error) {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	return os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// parseLevel 解析日志级别
func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Debug 调试级别日志
func Debug(msg string, fields ...zap.Field) {
	if Logger != nil {
		Logger.Debug(msg, fields...)
	}
}

// Debugf 格式化调试日志
func Debugf(format string, args ...interface{}) {
	if Sugar != nil {
		Sugar.Debugf(format, args...)
	}
}

// Info 信息级别日志
func Info(msg string, fields ...zap.Field) {
	if Logger != nil {
		Logger.Info(msg, fields...)
	}
}

// Infof 格式化信息日志
func Infof(format string, args ...interface{}) {
	if Sugar != nil {
		Sugar.Infof(format, args...)
	}
}

// Warn 警告级别日志
func Warn(msg string, fields ...zap.Field) {
	if Logger != nil {
		Logger.Warn(msg, fields...)
	}
}

// Warnf 格式化警告日志
func Warnf(format string, args ...interface{}) {
	if Sugar != nil {
		Sugar.Warnf(format, args...)
	}
}

// Error 错误级别日志
func Error(msg string, fields ...zap.Field) {
	if Logger != nil {
		Logger.Error(msg, fields...)
	}
}

// Errorf 格式化错误日志
func Errorf(format string, args ...interface{}) {
	if Sugar != nil {
		Sugar.Errorf(format, args...)
	}
}

// Fatalf 格式化致命错误日志并退出
func Fatalf(format string, args ...interface{}) {
	if Sugar != nil {
		Sugar.Fatalf(format, args...)
	}
}

// Sync 刷新缓冲的日志
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
