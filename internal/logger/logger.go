package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = [...]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var levelColors = [...]string{
	DEBUG: "\033[36m", // cyan
	INFO:  "\033[32m", // green
	WARN:  "\033[33m", // yellow
	ERROR: "\033[31m", // red
}

const resetColor = "\033[0m"

// 全局日志级别与输出目标
var (
	globalLevel           = INFO
	output      io.Writer = os.Stderr
	outputMu    sync.Mutex
)

// SetGlobalLevel 设置全局日志级别
func SetGlobalLevel(level Level) {
	globalLevel = level
}

// SetOutput 重定向日志输出（测试用）
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	output = w
}

// Logger 日志记录器
type Logger struct {
	module string
}

// New 创建新的日志记录器
func New(module string) *Logger {
	return &Logger{module: module}
}

// log 内部日志方法
func (l *Logger) log(level Level, format string, args ...any) {
	if level < globalLevel {
		return
	}

	timestamp := time.Now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)

	outputMu.Lock()
	defer outputMu.Unlock()
	fmt.Fprintf(output, "%s%s%s [%s] %s: %s\n",
		levelColors[level], levelNames[level], resetColor,
		timestamp, l.module, msg)
}

// Debug 调试日志
func (l *Logger) Debug(format string, args ...any) {
	l.log(DEBUG, format, args...)
}

// Info 信息日志
func (l *Logger) Info(format string, args ...any) {
	l.log(INFO, format, args...)
}

// Warn 警告日志
func (l *Logger) Warn(format string, args ...any) {
	l.log(WARN, format, args...)
}

// Error 错误日志
func (l *Logger) Error(format string, args ...any) {
	l.log(ERROR, format, args...)
}
