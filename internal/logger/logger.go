package logger

import (
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logMu sync.Mutex
	base  = zap.NewNop()
	sink  *dailyFile
)

// Init builds the process logger. Warnings and errors go to stderr with
// colored levels; when logDir is set every entry from INFO up is also appended
// as JSON to logDir/logs/YYYY-MM-DD.log.
func Init(logDir string) error {
	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig()),
		zapcore.Lock(os.Stderr),
		zap.WarnLevel,
	)
	cores := []zapcore.Core{console}

	var df *dailyFile
	if logDir != "" {
		// If caller passes /var/log/ttylogin, write logs to /var/log/ttylogin/logs.
		// If caller already passes .../logs, keep it as-is.
		resolved := logDir
		if path.Base(filepath.ToSlash(logDir)) != "logs" {
			resolved = filepath.Join(logDir, "logs")
		}
		if err := os.MkdirAll(resolved, 0750); err != nil {
			return err
		}
		df = &dailyFile{dir: resolved}
		if err := df.rotate(time.Now()); err != nil {
			return err
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			df,
			zap.InfoLevel,
		))
	}

	logMu.Lock()
	defer logMu.Unlock()
	if sink != nil {
		_ = sink.Close()
	}
	sink = df
	base = zap.New(zapcore.NewTee(cores...))
	return nil
}

// L returns the process logger. Before Init it discards everything.
func L() *zap.Logger {
	logMu.Lock()
	defer logMu.Unlock()
	return base
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	_ = base.Sync()
	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
	base = zap.NewNop()
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	cfg.CallerKey = ""
	return cfg
}

// dailyFile is a zapcore.WriteSyncer that reopens its target when the day
// changes.
type dailyFile struct {
	mu   sync.Mutex
	dir  string
	day  string
	file *os.File
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotateLocked(time.Now()); err != nil {
		return 0, err
	}
	return d.file.Write(p)
}

func (d *dailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func (d *dailyFile) rotate(t time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rotateLocked(t)
}

func (d *dailyFile) rotateLocked(t time.Time) error {
	day := t.Format("2006-01-02")
	if d.file != nil && d.day == day {
		return nil
	}
	if d.file != nil {
		_ = d.file.Close()
		d.file = nil
	}
	filePath := filepath.Join(d.dir, day+".log")
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return err
	}
	d.file = f
	d.day = day
	return nil
}
