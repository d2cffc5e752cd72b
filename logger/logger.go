package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level defines the log level
type Level int32

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

var (
	currentLevel atomic.Int32
	std          = log.New(os.Stderr, "", log.LstdFlags)
)

func init() {
	currentLevel.Store(int32(InfoLevel))
}

// SetLevel sets the global log level from its string form.
// Unknown values fall back to info.
func SetLevel(levelStr string) {
	level := InfoLevel
	switch strings.ToLower(levelStr) {
	case "debug":
		level = DebugLevel
	case "info":
		level = InfoLevel
	case "warn", "warning":
		level = WarnLevel
	case "error":
		level = ErrorLevel
	case "fatal":
		level = FatalLevel
	}
	currentLevel.Store(int32(level))
}

// SetOutput sets the output destination for the logger
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Debug logs a message at DebugLevel
func Debug(v ...interface{}) {
	if shouldLog(DebugLevel) {
		output("DEBUG", fmt.Sprint(v...))
	}
}

// Debugf logs a formatted message at DebugLevel
func Debugf(format string, v ...interface{}) {
	if shouldLog(DebugLevel) {
		output("DEBUG", fmt.Sprintf(format, v...))
	}
}

// Info logs a message at InfoLevel
func Info(v ...interface{}) {
	if shouldLog(InfoLevel) {
		output("INFO", fmt.Sprint(v...))
	}
}

// Infof logs a formatted message at InfoLevel
func Infof(format string, v ...interface{}) {
	if shouldLog(InfoLevel) {
		output("INFO", fmt.Sprintf(format, v...))
	}
}

// Warn logs a message at WarnLevel
func Warn(v ...interface{}) {
	if shouldLog(WarnLevel) {
		output("WARN", fmt.Sprint(v...))
	}
}

// Warnf logs a formatted message at WarnLevel
func Warnf(format string, v ...interface{}) {
	if shouldLog(WarnLevel) {
		output("WARN", fmt.Sprintf(format, v...))
	}
}

// Error logs a message at ErrorLevel
func Error(v ...interface{}) {
	if shouldLog(ErrorLevel) {
		output("ERROR", fmt.Sprint(v...))
	}
}

// Errorf logs a formatted message at ErrorLevel
func Errorf(format string, v ...interface{}) {
	if shouldLog(ErrorLevel) {
		output("ERROR", fmt.Sprintf(format, v...))
	}
}

// Fatal logs a message at FatalLevel and exits
func Fatal(v ...interface{}) {
	output("FATAL", fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf logs a formatted message at FatalLevel and exits
func Fatalf(format string, v ...interface{}) {
	output("FATAL", fmt.Sprintf(format, v...))
	os.Exit(1)
}

func shouldLog(level Level) bool {
	return level >= Level(currentLevel.Load())
}

func output(levelStr, msg string) {
	// 使用标准 log 包处理时间戳和并发
	std.Output(3, fmt.Sprintf("[%s] %s", levelStr, msg))
}
