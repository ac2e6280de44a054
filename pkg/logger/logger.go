package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type requestIDKey struct{}

var (
	mu     sync.RWMutex
	base   = zap.NewNop()
	sugar  = base.Sugar()
	output *os.File
)

// SetupLogger 初始化日志配置: 同时输出到控制台和 logs/ 下按日期命名的文件
func SetupLogger() error {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %v", err)
	}

	logFileName := filepath.Join(logDir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %v", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(logFile), zapcore.InfoLevel),
	)

	SetLogger(zap.New(core, zap.AddCaller()))

	mu.Lock()
	output = logFile
	mu.Unlock()
	return nil
}

// SetLogger 替换全局日志实例，测试中可传入 zaptest 或 observer 构造的 logger
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Sync 刷新缓冲并关闭日志文件
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
	if output != nil {
		_ = output.Close()
		output = nil
	}
}

// L 返回结构化日志实例
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Info 记录信息级别的日志
func Info(format string, v ...interface{}) {
	current().Infof(format, v...)
}

// Warning 记录警告级别的日志
func Warning(format string, v ...interface{}) {
	current().Warnf(format, v...)
}

// Error 记录错误级别的日志
func Error(format string, v ...interface{}) {
	current().Errorf(format, v...)
}

// ContextWithRequestID 将请求ID写入 context
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext 读取 context 中的请求ID
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithContext 返回带有 request_id 字段的日志实例
func WithContext(ctx context.Context) *zap.SugaredLogger {
	l := current()
	if id := RequestIDFromContext(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}
