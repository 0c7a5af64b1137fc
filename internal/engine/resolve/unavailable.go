package resolve

import (
	"context"
	"errors"

	"github.com/dkeye/Maestro/internal/domain"
)

var ErrNotConfigured = errors.New("track resolver not configured")

// Unavailable stands in when no API key is configured; every lookup fails
// with a stable error the dispatcher maps to an engine failure.
type Unavailable struct{}

func (Unavailable) Search(ctx context.Context, query string) ([]domain.Track, error) {
	return nil, ErrNotConfigured
}

func (Unavailable) Related(ctx context.Context, videoID string) ([]domain.Track, error) {
	return nil, ErrNotConfigured
}
