// pkg/logger/global.go
package logger

import (
	"io"
)

var globalLogger *Logger

func InitGlobal(logPath, logLevel string, debug bool) error {
	var err error
	globalLogger, err = NewLogger(logPath, logLevel, debug)
	return err
}

// SetOutput перенаправляет глобальный логгер в writer
func SetOutput(w io.Writer, logLevel string) {
	globalLogger = NewWriterLogger(w, logLevel)
}

func GetLogger() *Logger {
	return globalLogger
}

// Глобальные методы для удобства
func Debug(format string, v ...interface{}) {
	if globalLogger != nil {
		globalLogger.Debug(format, v...)
	}
}

func Info(format string, v ...interface{}) {
	if globalLogger != nil {
		globalLogger.Info(format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	if globalLogger != nil {
		globalLogger.Warn(format, v...)
	}
}

func Error(format string, v ...interface{}) {
	if globalLogger != nil {
		globalLogger.Error(format, v...)
	}
}

func Payment(event, paymentID string, userID int64, plan string) {
	if globalLogger != nil {
		globalLogger.Payment(event, paymentID, userID, plan)
	}
}
