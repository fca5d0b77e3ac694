// pkg/logger/logger.go

package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Уровни логирования
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

// Logger printf-обертка над zerolog
type Logger struct {
	logFile   *os.File
	zl        zerolog.Logger
	logLevel  string
	debugMode bool
}

// NewLogger создает логгер, пишущий в консоль и (если задан путь) в файл
func NewLogger(logPath string, logLevel string, debug bool) (*Logger, error) {
	var console io.Writer = os.Stdout
	if debug {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"}
	}

	writers := []io.Writer{console}
	var file *os.File
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, fmt.Errorf("ошибка создания директории логов: %w", err)
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, err
		}
		file = f
		writers = append(writers, f)
	}

	return newLogger(io.MultiWriter(writers...), file, logLevel, debug), nil
}

// NewWriterLogger создает логгер поверх произвольного writer (используется в тестах)
func NewWriterLogger(w io.Writer, logLevel string) *Logger {
	return newLogger(w, nil, logLevel, false)
}

func newLogger(w io.Writer, file *os.File, logLevel string, debug bool) *Logger {
	level := strings.ToUpper(logLevel)
	return &Logger{
		logFile:   file,
		zl:        zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger(),
		logLevel:  level,
		debugMode: debug,
	}
}

func toZerologLevel(level string) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	default:
		// неизвестный уровень - логируем всё
		return zerolog.DebugLevel
	}
}

// Zerolog возвращает нижележащий zerolog.Logger для компонентов со структурным API
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

// Методы для разных уровней
func (l *Logger) Debug(format string, v ...interface{}) {
	l.zl.Debug().Msgf(format, v...)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.zl.Info().Msgf(format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.zl.Warn().Msgf(format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.zl.Error().Msgf(format, v...)
}

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.zl.Fatal().Msgf(format, v...)
}

// Payment пишет событие платежного конвейера с контекстом для ручной сверки
func (l *Logger) Payment(event, paymentID string, userID int64, plan string) {
	l.zl.Info().
		Str("payment_id", paymentID).
		Int64("user_id", userID).
		Str("plan", plan).
		Msgf("💳 %s", event)
}

// Status выводит сводку состояния сервиса
func (l *Logger) Status(stats map[string]string) {
	ev := l.zl.Info()
	for key, value := range stats {
		ev = ev.Str(key, value)
	}
	ev.Msg("📊 СТАТУС СЕРВИСА")
}

func (l *Logger) Close() {
	if l.logFile != nil {
		l.logFile.Close()
	}
}
