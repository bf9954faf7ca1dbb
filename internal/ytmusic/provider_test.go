package ytmusic

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"ytmbridge/internal/core"
)

func TestNewProvider_Registry(t *testing.T) {
	config := &core.YTMusicConfig{Provider: "innertube", BaseURL: "https://example.test"}

	p, err := NewProvider(config, zap.NewNop())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if _, ok := p.(*InnerTubeClient); !ok {
		t.Errorf("provider = %T, want *InnerTubeClient", p)
	}
}

func TestNewProvider_EmptyNameDefaults(t *testing.T) {
	p, err := NewProvider(&core.YTMusicConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p == nil {
		t.Fatal("expected a provider")
	}
}

func TestNewProvider_UnknownName(t *testing.T) {
	_, err := NewProvider(&core.YTMusicConfig{Provider: "grpc-magic"}, zap.NewNop())

	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("error = %v, want *InitError", err)
	}
	if initErr.Provider != "grpc-magic" {
		t.Errorf("Provider = %q", initErr.Provider)
	}
}

func TestHandle_MemoizesAcrossRacingCallers(t *testing.T) {
	h := NewHandle(&core.YTMusicConfig{Provider: "innertube"}, zap.NewNop())

	const callers = 16
	providers := make([]Provider, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := h.Get()
			if err != nil {
				t.Errorf("Get() error = %v", err)
				return
			}
			providers[i] = p
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if providers[i] != providers[0] {
			t.Fatal("racing callers must observe the same provider instance")
		}
	}
}

func TestHandle_ErrorIsSticky(t *testing.T) {
	h := NewHandle(&core.YTMusicConfig{Provider: "nope"}, zap.NewNop())

	if _, err := h.Get(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if _, err := h.Get(); err == nil {
		t.Fatal("second call should return the same error")
	}
}
