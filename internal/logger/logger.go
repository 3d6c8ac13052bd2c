package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"wastedetect/internal/config"
)

// Log file names, one per level. The log handlers serve them back by name.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to rotated files and stdout/stderr.
type Logger struct {
	sugar  *zap.SugaredLogger
	logDir string
	files  map[string]*lumberjack.Logger
}

// NewLogger creates a Logger and ensures the log directory and the level files exist.
func NewLogger(cfg *config.Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		return nil, err
	}
	// lumberjack only creates a file on its first write.
	for _, name := range []string{InfoFile, WarningFile, ErrorFile} {
		file, err := os.OpenFile(filepath.Join(cfg.LogDirectory, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		file.Close()
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.MessageKey = "message"
	encoderCfg.LevelKey = "level"

	fileEncoder := zapcore.NewJSONEncoder(encoderCfg)
	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	files := map[string]*lumberjack.Logger{
		InfoFile:    rotated(cfg.LogDirectory, InfoFile),
		WarningFile: rotated(cfg.LogDirectory, WarningFile),
		ErrorFile:   rotated(cfg.LogDirectory, ErrorFile),
	}

	core := zapcore.NewTee(
		zapcore.NewCore(fileEncoder, zapcore.AddSync(files[InfoFile]), exactly(zapcore.InfoLevel)),
		zapcore.NewCore(fileEncoder, zapcore.AddSync(files[WarningFile]), exactly(zapcore.WarnLevel)),
		zapcore.NewCore(fileEncoder, zapcore.AddSync(files[ErrorFile]), atLeast(zapcore.ErrorLevel)),
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), between(zapcore.InfoLevel, zapcore.WarnLevel)),
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), atLeast(zapcore.ErrorLevel)),
	)

	return &Logger{
		sugar:  zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar(),
		logDir: cfg.LogDirectory,
		files:  files,
	}, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func rotated(dir, name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
}

func exactly(level zapcore.Level) zap.LevelEnablerFunc {
	return func(l zapcore.Level) bool { return l == level }
}

func atLeast(level zapcore.Level) zap.LevelEnablerFunc {
	return func(l zapcore.Level) bool { return l >= level }
}

func between(lo, hi zapcore.Level) zap.LevelEnablerFunc {
	return func(l zapcore.Level) bool { return l >= lo && l <= hi }
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// With returns a child logger carrying the given key/value pairs on every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...), logDir: l.logDir, files: l.files}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// Dir returns the directory the level files are written to.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the specified log file. A file that does not exist is already clean.
func (l *Logger) CleanLogs(fileName string) error {
	if l.logDir == "" {
		return nil
	}
	fileName = filepath.Base(fileName)
	// lumberjack reopens a closed file in append mode on the next write.
	if lj, ok := l.files[fileName]; ok {
		lj.Close()
	}

	filePath := filepath.Join(l.logDir, fileName)
	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_TRUNC, 0644)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		l.Error("Error opening file: %v", err)
		return err
	}
	defer file.Close()

	l.Info("File %s has been cleared.", fileName)
	return nil
}
