// Package logging owns the durable run log.
//
// Every command's output and every stage detail is appended to one file
// through logrus. Library loggers (controller-runtime, klog) are bridged into
// the same file through a zap core wrapped as a logr.Logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"
)

// Logger is the durable log.
type Logger struct {
	*logrus.Logger

	path   string
	out    io.Writer
	closer io.Closer
	once   sync.Once
}

// Open appends to the log file at path, creating its directory.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	// #nosec G304
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	l := New(f)
	l.path = path
	l.closer = f
	return l, nil
}

// New creates a logger writing to w.
func New(w io.Writer) *Logger {
	lr := logrus.New()
	lr.SetOutput(w)
	lr.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   true,
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
	lr.SetLevel(logrus.InfoLevel)
	return &Logger{Logger: lr, out: w}
}

// SetDebug toggles debug level.
func (l *Logger) SetDebug(debug bool) {
	if debug {
		l.SetLevel(logrus.DebugLevel)
		return
	}
	l.SetLevel(logrus.InfoLevel)
}

// Path is the log file location, empty for writer-backed loggers.
func (l *Logger) Path() string {
	return l.path
}

// Writer is the raw sink for streamed command output.
func (l *Logger) Writer() io.Writer {
	return l.out
}

// Logr returns a logr.Logger writing to the same sink.
func (l *Logger) Logr() logr.Logger {
	level := zapcore.InfoLevel
	if l.IsLevelEnabled(logrus.DebugLevel) {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(zapcore.AddSync(l.out)), level)
	return zapr.NewLogger(zap.New(core))
}

// InstallGlobal routes controller-runtime and klog output into the log.
func (l *Logger) InstallGlobal() {
	lg := l.Logr()
	ctrllog.SetLogger(lg.WithName("controller-runtime"))
	klog.SetLogger(lg.WithName("klog"))
}

// Close closes the underlying file, if any. It is safe to call twice.
func (l *Logger) Close() error {
	var err error
	l.once.Do(func() {
		if l.closer != nil {
			err = l.closer.Close()
		}
	})
	return err
}
