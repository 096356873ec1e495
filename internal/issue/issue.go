// Package issue renders the pre-login banner.
package issue

import (
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hnrobert/ttylogin/internal/hostfs"
)

//go:embed default_issue
var DefaultContent string

// Load returns the banner template at path. A missing file is created with
// the default content; anything unreadable falls back to the default.
// Markdown files (.md) are flattened to plain text.
func Load(path string, logger *zap.Logger) string {
	content, err := read(path, logger)
	if err != nil {
		logger.Warn("issue file unusable, using default banner", zap.String("path", path), zap.Error(err))
		content = DefaultContent
	}
	if strings.EqualFold(filepath.Ext(path), ".md") {
		content = Flatten([]byte(content))
	}
	return content
}

func read(path string, logger *zap.Logger) (string, error) {
	b, err := hostfs.ReadFile(path)
	if err == nil {
		return string(b), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := hostfs.EnsureDir(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := hostfs.WriteFileAtomic(path, []byte(DefaultContent), 0644); err != nil {
		return "", err
	}
	logger.Info("default issue file created", zap.String("path", path))
	return DefaultContent, nil
}
