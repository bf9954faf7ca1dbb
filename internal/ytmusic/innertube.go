package ytmusic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"ytmbridge/internal/core"
)

const (
	innertubeClientName    = "WEB_REMIX"
	innertubeClientVersion = "1.20240101.00.00"

	chartsBrowseID = "FEmusic_charts"

	defaultTimeout = 15 * time.Second
)

// searchParams are the InnerTube filter params per result type. An
// unrecognized type falls back to an unfiltered search.
var searchParams = map[string]string{
	"songs":     "EgWKAQIIAWoKEAkQBRAKEAMQBA%3D%3D",
	"videos":    "EgWKAQIQAWoKEAkQChAFEAMQBA%3D%3D",
	"albums":    "EgWKAQIYAWoKEAkQChAFEAMQBA%3D%3D",
	"artists":   "EgWKAQIgAWoKEAkQChAFEAMQBA%3D%3D",
	"playlists": "Eg-KAQwIABAAGAAgACgBMABqChAEEAMQCRAFEAo%3D",
}

// InnerTubeClient talks to the YouTube Music web client's JSON API.
type InnerTubeClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewInnerTubeClient(config *core.YTMusicConfig, logger *zap.Logger) *InnerTubeClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &InnerTubeClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *InnerTubeClient) Search(ctx context.Context, query, itemType string) (any, error) {
	payload := map[string]any{"query": query}
	if params, ok := searchParams[strings.ToLower(itemType)]; ok {
		payload["params"] = params
	}
	return c.call(ctx, "search", payload)
}

func (c *InnerTubeClient) Album(ctx context.Context, browseID string) (any, error) {
	return c.browse(ctx, browseID)
}

func (c *InnerTubeClient) Artist(ctx context.Context, browseID string) (any, error) {
	return c.browse(ctx, browseID)
}

func (c *InnerTubeClient) Playlist(ctx context.Context, playlistID string) (any, error) {
	// Playlist browse ids carry a VL prefix the public share links omit.
	if !strings.HasPrefix(playlistID, "VL") {
		playlistID = "VL" + playlistID
	}
	return c.browse(ctx, playlistID)
}

// Lyrics resolves lyrics in two steps: the watch-next response names a
// lyrics browse id, which is then browsed for the lyrics document.
func (c *InnerTubeClient) Lyrics(ctx context.Context, videoID string) (any, error) {
	next, err := c.call(ctx, "next", map[string]any{"videoId": videoID})
	if err != nil {
		return nil, err
	}
	browseID := findLyricsBrowseID(next)
	if browseID == "" {
		// No lyrics tab for this video; an empty result is valid.
		return next, nil
	}
	return c.browse(ctx, browseID)
}

func (c *InnerTubeClient) Related(ctx context.Context, videoID string) (any, error) {
	return c.call(ctx, "next", map[string]any{"videoId": videoID})
}

func (c *InnerTubeClient) Trending(ctx context.Context, region string) (any, error) {
	payload := map[string]any{"browseId": chartsBrowseID}
	if region != "" {
		payload["formData"] = map[string]any{"selectedValues": []string{region}}
	}
	return c.call(ctx, "browse", payload)
}

func (c *InnerTubeClient) Suggestions(ctx context.Context, query string) (any, error) {
	return c.call(ctx, "music/get_search_suggestions", map[string]any{"input": query})
}

func (c *InnerTubeClient) browse(ctx context.Context, browseID string) (any, error) {
	return c.call(ctx, "browse", map[string]any{"browseId": browseID})
}

func (c *InnerTubeClient) call(ctx context.Context, endpoint string, payload map[string]any) (any, error) {
	payload["context"] = map[string]any{
		"client": map[string]any{
			"clientName":    innertubeClientName,
			"clientVersion": innertubeClientVersion,
			"hl":            "en",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/" + endpoint + "?prettyPrint=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://music.youtube.com")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("innertube %s returned status %d", endpoint, resp.StatusCode)
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	c.logger.Debug("innertube call completed", zap.String("endpoint", endpoint))
	return doc, nil
}

// findLyricsBrowseID crawls a watch-next document for the first browse id
// with the lyrics prefix. The document's nesting varies between client
// versions, so the walk is shape-agnostic.
func findLyricsBrowseID(doc any) string {
	switch v := doc.(type) {
	case map[string]any:
		if id, ok := v["browseId"].(string); ok && strings.HasPrefix(id, "MPLYt") {
			return id
		}
		for _, val := range v {
			if id := findLyricsBrowseID(val); id != "" {
				return id
			}
		}
	case []any:
		for _, val := range v {
			if id := findLyricsBrowseID(val); id != "" {
				return id
			}
		}
	}
	return ""
}
