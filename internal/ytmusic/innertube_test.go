package ytmusic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"ytmbridge/internal/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*InnerTubeClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewInnerTubeClient(&core.YTMusicConfig{BaseURL: srv.URL}, zap.NewNop())
	return client, srv
}

func TestInnerTubeClient_Search(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_ = json.NewEncoder(w).Encode(map[string]any{"songs": []any{}})
	})

	raw, err := client.Search(context.Background(), "dua lipa", "songs")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotPath != "/search" {
		t.Errorf("path = %q, want /search", gotPath)
	}
	if gotPayload["query"] != "dua lipa" {
		t.Errorf("query = %v", gotPayload["query"])
	}
	if gotPayload["params"] == nil {
		t.Error("songs search should carry filter params")
	}
	if gotPayload["context"] == nil {
		t.Error("payload must carry the client context")
	}
	if _, ok := raw.(map[string]any); !ok {
		t.Errorf("raw = %T, want untyped document", raw)
	}
}

func TestInnerTubeClient_SearchUnknownTypeOmitsParams(t *testing.T) {
	var gotPayload map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})

	if _, err := client.Search(context.Background(), "q", "podcasts"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, ok := gotPayload["params"]; ok {
		t.Error("unknown type must fall back to unfiltered search")
	}
}

func TestInnerTubeClient_PlaylistPrefix(t *testing.T) {
	var gotPayload map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})

	if _, err := client.Playlist(context.Background(), "PLabc"); err != nil {
		t.Fatalf("Playlist() error = %v", err)
	}
	if gotPayload["browseId"] != "VLPLabc" {
		t.Errorf("browseId = %v, want VLPLabc", gotPayload["browseId"])
	}

	if _, err := client.Playlist(context.Background(), "VLPLabc"); err != nil {
		t.Fatalf("Playlist() error = %v", err)
	}
	if gotPayload["browseId"] != "VLPLabc" {
		t.Errorf("browseId = %v, want prefix applied once", gotPayload["browseId"])
	}
}

func TestInnerTubeClient_UpstreamErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})

	if _, err := client.Search(context.Background(), "q", ""); err == nil {
		t.Fatal("expected error for non-200 upstream status")
	}
}

func TestInnerTubeClient_LyricsTwoStep(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/next":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"tabs": []any{
					map[string]any{"tabRenderer": map[string]any{
						"endpoint": map[string]any{"browseId": "MPLYt_abc123"},
					}},
				},
			})
		case "/browse":
			_ = json.NewEncoder(w).Encode(map[string]any{"lyrics": "la la la"})
		}
	})

	raw, err := client.Lyrics(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Lyrics() error = %v", err)
	}
	if len(paths) != 2 || paths[0] != "/next" || paths[1] != "/browse" {
		t.Errorf("paths = %v, want next then browse", paths)
	}
	doc, _ := raw.(map[string]any)
	if doc["lyrics"] != "la la la" {
		t.Errorf("raw = %v", raw)
	}
}

func TestInnerTubeClient_LyricsWithoutTab(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"tabs": []any{}})
	})

	if _, err := client.Lyrics(context.Background(), "abc123"); err != nil {
		t.Fatalf("Lyrics() error = %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("no lyrics browse id means no second call, got %v", paths)
	}
}

func TestFindLyricsBrowseID(t *testing.T) {
	tests := []struct {
		name     string
		doc      any
		expected string
	}{
		{
			name:     "nested in arrays and maps",
			doc:      map[string]any{"a": []any{map[string]any{"browseId": "MPLYt_x"}}},
			expected: "MPLYt_x",
		},
		{
			name:     "non-lyrics browse ids skipped",
			doc:      map[string]any{"browseId": "MPRE_album"},
			expected: "",
		},
		{name: "scalar", doc: "nope", expected: ""},
		{name: "nil", doc: nil, expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findLyricsBrowseID(tt.doc); got != tt.expected {
				t.Errorf("findLyricsBrowseID() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestInnerTubeClient_TrendingRegion(t *testing.T) {
	var gotPayload map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})

	if _, err := client.Trending(context.Background(), "DE"); err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
	if gotPayload["browseId"] != "FEmusic_charts" {
		t.Errorf("browseId = %v", gotPayload["browseId"])
	}
	form, _ := gotPayload["formData"].(map[string]any)
	if form == nil {
		t.Fatal("region should be passed through formData")
	}
}
