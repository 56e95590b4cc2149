// Package logging provides component scoped loggers for shortest.
//
// Loggers are created once per package and resolve the process wide zap core
// on every call, so they may be created before Initialize runs:
//
//	var runnerLog, _ = logging.NewLogger("runner")
//
//	runnerLog.Infof("running %d tests", n)
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls the global log output.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" mapstructure:"level"`

	// Format is console or json.
	Format string `yaml:"format" mapstructure:"format"`

	// File enables a rotated JSON log file at the given path.
	File string `yaml:"file" mapstructure:"file"`

	MaxSize    int  `yaml:"max_size" mapstructure:"max_size"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int  `yaml:"max_age" mapstructure:"max_age"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// DefaultConfig returns console logging at info level.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     7,
	}
}

// Logger writes leveled messages tagged with a component name.
type Logger struct {
	component string
	fields    []interface{}
}

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	globalLogger atomic.Pointer[zap.Logger]
	globalPath   atomic.Pointer[string]

	initMu   sync.Mutex
	initOnce sync.Once
	initErr  error
)

// getSessionID returns or creates the session ID for this execution
func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// Initialize installs the global logger. Only the first call has an effect.
func Initialize(cfg Config) error {
	initMu.Lock()
	defer initMu.Unlock()

	initOnce.Do(func() {
		level := zap.NewAtomicLevel()
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			level.SetLevel(zap.InfoLevel)
		}

		cores := []zapcore.Core{
			zapcore.NewCore(getEncoder(cfg.Format), zapcore.Lock(os.Stderr), level),
		}

		if cfg.File != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.File), 0750); err != nil {
				initErr = fmt.Errorf("failed to create log directory: %w", err)
			} else {
				fileWriter := zapcore.AddSync(&lumberjack.Logger{
					Filename:   cfg.File,
					MaxSize:    cfg.MaxSize,
					MaxBackups: cfg.MaxBackups,
					MaxAge:     cfg.MaxAge,
					Compress:   cfg.Compress,
				})
				cores = append(cores, zapcore.NewCore(getEncoder("json"), fileWriter, level))
				path := cfg.File
				globalPath.Store(&path)
			}
		}

		logger := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel)).
			With(zap.String("session", getSessionID()))
		globalLogger.Store(logger)
	})

	return initErr
}

func getEncoder(format string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// base returns the global logger, falling back to a warn level stderr logger
// before Initialize has run.
func base() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	return fallbackLogger()
}

var (
	fallbackOnce sync.Once
	fallback     *zap.Logger
)

func fallbackLogger() *zap.Logger {
	fallbackOnce.Do(func() {
		core := zapcore.NewCore(getEncoder("console"), zapcore.Lock(os.Stderr), zap.WarnLevel)
		fallback = zap.New(core)
	})
	return fallback
}

// NewLogger creates a new logger for a specific component.
//
// The returned error reports a failed file logging setup; the logger is
// usable either way and falls back to stderr.
func NewLogger(component string) (*Logger, error) {
	initMu.Lock()
	defer initMu.Unlock()
	return &Logger{component: component}, initErr
}

// With returns a logger that adds the given key/value pairs to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(keysAndValues))
	fields = append(fields, l.fields...)
	fields = append(fields, keysAndValues...)
	return &Logger{component: l.component, fields: fields}
}

func (l *Logger) sugar() *zap.SugaredLogger {
	s := base().Named(l.component).Sugar()
	if len(l.fields) > 0 {
		s = s.With(l.fields...)
	}
	return s
}

// Printf logs a formatted message at info level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.sugar().Infof(format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.sugar().Debugf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.sugar().Infof(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.sugar().Warnf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.sugar().Errorf(format, v...)
}

// Component returns the component name of the logger.
func (l *Logger) Component() string {
	return l.component
}

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return getSessionID()
}

// LogPath returns the path to the log file, or "" when logging to stderr only.
func (l *Logger) LogPath() string {
	if p := globalPath.Load(); p != nil {
		return *p
	}
	return ""
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

// DefaultLogFile returns the default log file location for a session.
func DefaultLogFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".shortest", "logs", getSessionID()+"-shortest.log"), nil
}

// Sync flushes any buffered log entries.
func Sync() {
	if logger := globalLogger.Load(); logger != nil {
		// Error is commonly ignored for stderr, which cannot be synced on some platforms.
		_ = logger.Sync()
	}
}

// ResetForTest drops the global logger so Initialize can run again.
func ResetForTest() {
	initMu.Lock()
	defer initMu.Unlock()

	Sync()
	globalLogger.Store(nil)
	globalPath.Store(nil)
	initOnce = sync.Once{}
	initErr = nil
}
