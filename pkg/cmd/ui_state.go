package cmd

import (
	"context"
	"strings"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/uistate"
)

// NewUIStateStore opens a Redis store for redis:// and rediss:// URLs and a file store otherwise.
func NewUIStateStore(ctx context.Context, url string) (uistate.Store, error) {
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		return uistate.NewRedisStore(ctx, url)
	}

	return uistate.NewFileStore(url), nil
}
