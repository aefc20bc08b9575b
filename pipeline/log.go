package pipeline

import (
	"strings"

	"go.uber.org/zap"
)

const defaultMaxLogLength = 200

// Options holds the settings shared by every pipeline component.
type Options struct {
	Logger       *zap.Logger
	MaxLogLength int
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) maxLogLength() int {
	if o.MaxLogLength <= 0 {
		return defaultMaxLogLength
	}
	return o.MaxLogLength
}

// truncateForLog shortens s to limit runes, appending an ellipsis when cut.
func truncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
