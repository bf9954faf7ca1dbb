package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPlayerEndpoint is the InnerTube player endpoint of the
	// YouTube Music web client.
	DefaultPlayerEndpoint = "https://music.youtube.com/youtubei/v1/player"

	playerClientName    = "WEB_REMIX"
	playerClientVersion = "1.20240101.00.00"

	playerRequestTimeout = 15 * time.Second
)

// PlayerSource extracts stream formats from the InnerTube player
// endpoint. Strategies are ordered to favor audio: direct audio streams
// first, the full streaming-data wrapper and muxed formats as later
// resorts.
type PlayerSource struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

func NewPlayerSource(endpoint string, logger *zap.Logger) *PlayerSource {
	if endpoint == "" {
		endpoint = DefaultPlayerEndpoint
	}
	return &PlayerSource{
		endpoint: endpoint,
		client:   &http.Client{Timeout: playerRequestTimeout},
		logger:   logger,
	}
}

func (s *PlayerSource) Name() string { return "innertube-player" }

func (s *PlayerSource) Strategies() []Strategy {
	return []Strategy{
		{Name: "best_audio_stream", Run: s.bestAudioStream},
		{Name: "best_dash_audio_stream", Run: s.dashAudioStreams},
		{Name: "stream_info", Run: s.streamInfo},
		{Name: "dash_streams", Run: s.dashStreams},
		{Name: "best_video_stream", Run: s.muxedStreams},
	}
}

// bestAudioStream returns the audio-only adaptive formats that carry a
// direct URL.
func (s *PlayerSource) bestAudioStream(ctx context.Context, videoID string) (any, error) {
	doc, err := s.player(ctx, videoID)
	if err != nil {
		return nil, err
	}
	var out []any
	for _, f := range adaptiveFormats(doc) {
		obj, ok := f.(map[string]any)
		if !ok {
			continue
		}
		if url, _ := obj["url"].(string); url == "" {
			continue
		}
		if mime, _ := obj["mimeType"].(string); strings.Contains(mime, "audio") {
			out = append(out, f)
		}
	}
	return out, nil
}

// dashAudioStreams returns every audio adaptive format, including
// ciphered entries without a direct URL (discarded downstream).
func (s *PlayerSource) dashAudioStreams(ctx context.Context, videoID string) (any, error) {
	doc, err := s.player(ctx, videoID)
	if err != nil {
		return nil, err
	}
	var out []any
	for _, f := range adaptiveFormats(doc) {
		obj, ok := f.(map[string]any)
		if !ok {
			continue
		}
		if mime, _ := obj["mimeType"].(string); strings.Contains(mime, "audio") {
			out = append(out, f)
		}
	}
	return out, nil
}

// streamInfo returns the raw streamingData wrapper; its formats field is
// collected downstream.
func (s *PlayerSource) streamInfo(ctx context.Context, videoID string) (any, error) {
	doc, err := s.player(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if sd, ok := doc["streamingData"].(map[string]any); ok {
		return sd, nil
	}
	return nil, nil
}

func (s *PlayerSource) dashStreams(ctx context.Context, videoID string) (any, error) {
	doc, err := s.player(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return adaptiveFormats(doc), nil
}

func (s *PlayerSource) muxedStreams(ctx context.Context, videoID string) (any, error) {
	doc, err := s.player(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if sd, ok := doc["streamingData"].(map[string]any); ok {
		if arr, ok := sd["formats"].([]any); ok {
			return arr, nil
		}
	}
	return nil, nil
}

func (s *PlayerSource) player(ctx context.Context, videoID string) (map[string]any, error) {
	payload := map[string]any{
		"videoId": videoID,
		"context": map[string]any{
			"client": map[string]any{
				"clientName":    playerClientName,
				"clientVersion": playerClientVersion,
				"hl":            "en",
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"?prettyPrint=false", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://music.youtube.com")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player endpoint returned status %d", resp.StatusCode)
	}

	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode player response: %w", err)
	}

	if status, ok := doc["playabilityStatus"].(map[string]any); ok {
		if st, _ := status["status"].(string); st != "" && st != "OK" {
			reason, _ := status["reason"].(string)
			return nil, fmt.Errorf("video not playable: %s %s", st, reason)
		}
	}
	return doc, nil
}

func adaptiveFormats(doc map[string]any) []any {
	sd, ok := doc["streamingData"].(map[string]any)
	if !ok {
		return nil
	}
	arr, _ := sd["adaptiveFormats"].([]any)
	return arr
}
