// Package ytmusic fronts the unofficial YouTube Music metadata upstream.
// The upstream contract is unstable, so every operation returns the raw
// decoded document; callers immediately hand it to pkg/normalize and never
// let the untyped shape travel further.
package ytmusic

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"ytmbridge/internal/core"
)

// Provider is the set of metadata operations this service needs. Concrete
// adapters are registered per supported upstream flavor and selected by
// configuration at startup, not probed per call.
type Provider interface {
	Search(ctx context.Context, query, itemType string) (any, error)
	Album(ctx context.Context, browseID string) (any, error)
	Artist(ctx context.Context, browseID string) (any, error)
	Playlist(ctx context.Context, playlistID string) (any, error)
	Lyrics(ctx context.Context, videoID string) (any, error)
	Related(ctx context.Context, videoID string) (any, error)
	Trending(ctx context.Context, region string) (any, error)
	Suggestions(ctx context.Context, query string) (any, error)
}

// InitError reports a metadata adapter that could not be constructed.
type InitError struct {
	Provider string
	Err      error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("metadata provider %q failed to initialize: %v", e.Provider, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Factory constructs a concrete adapter.
type Factory func(config *core.YTMusicConfig, logger *zap.Logger) (Provider, error)

var registry = map[string]Factory{
	"innertube": func(config *core.YTMusicConfig, logger *zap.Logger) (Provider, error) {
		return NewInnerTubeClient(config, logger), nil
	},
}

// NewProvider builds the adapter named by config.Provider.
func NewProvider(config *core.YTMusicConfig, logger *zap.Logger) (Provider, error) {
	name := config.Provider
	if name == "" {
		name = "innertube"
	}
	factory, ok := registry[name]
	if !ok {
		return nil, &InitError{Provider: name, Err: fmt.Errorf("unsupported metadata provider")}
	}
	provider, err := factory(config, logger)
	if err != nil {
		return nil, &InitError{Provider: name, Err: err}
	}
	return provider, nil
}

// Handle memoizes provider construction. Construction happens at most once
// per process; racing callers all observe the same provider. The provider
// itself is stateless and read-only after construction.
type Handle struct {
	config *core.YTMusicConfig
	logger *zap.Logger

	once     sync.Once
	provider Provider
	err      error
}

func NewHandle(config *core.YTMusicConfig, logger *zap.Logger) *Handle {
	return &Handle{
		config: config,
		logger: logger,
	}
}

// Get returns the memoized provider, constructing it on first use.
func (h *Handle) Get() (Provider, error) {
	h.once.Do(func() {
		h.provider, h.err = NewProvider(h.config, h.logger)
		if h.err == nil {
			h.logger.Info("metadata provider initialized",
				zap.String("provider", h.config.Provider))
		}
	})
	return h.provider, h.err
}
