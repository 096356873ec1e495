package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLBeforeInitDiscards(t *testing.T) {
	Close()
	L().Info("nobody hears this")
}

func TestInitWritesDailyFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	L().Info("session started", zap.String("tty", "tty2"))
	Close()

	name := filepath.Join(dir, "logs", time.Now().Format("2006-01-02")+".log")
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"session started"`) || !strings.Contains(string(b), `"tty":"tty2"`) {
		t.Fatalf("unexpected log content: %s", b)
	}
}

func TestInitKeepsExplicitLogsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	if err := Init(dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer Close()
	if _, err := os.Stat(filepath.Join(dir, "logs")); !os.IsNotExist(err) {
		t.Fatalf("expected no nested logs dir, stat err=%v", err)
	}
}
