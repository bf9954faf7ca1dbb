package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ErrYtdlpNotFound indicates the yt-dlp binary is not installed.
var ErrYtdlpNotFound = errors.New("yt-dlp not found in PATH")

// YtdlpSource is the generic metadata-dump fallback: it shells out to
// yt-dlp for a single-JSON dump whose formats array feeds the shared
// normalization path.
type YtdlpSource struct {
	binPath string
	logger  *zap.Logger
}

func NewYtdlpSource(binPath string, logger *zap.Logger) *YtdlpSource {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &YtdlpSource{
		binPath: binPath,
		logger:  logger,
	}
}

func (s *YtdlpSource) Name() string { return "yt-dlp" }

func (s *YtdlpSource) Strategies() []Strategy {
	return []Strategy{
		{Name: "dump_json", Run: s.dumpJSON},
	}
}

func (s *YtdlpSource) dumpJSON(ctx context.Context, videoID string) (any, error) {
	if _, err := exec.LookPath(s.binPath); err != nil {
		return nil, ErrYtdlpNotFound
	}

	cmd := exec.CommandContext(ctx, s.binPath,
		"--dump-single-json",
		"--no-warnings",
		"--no-playlist",
		WatchURL(videoID),
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("yt-dlp failed: %s", msg)
	}

	var doc any
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("yt-dlp returned unparsable metadata: %w", err)
	}
	s.logger.Debug("yt-dlp metadata dump parsed", zap.String("videoId", videoID))
	return doc, nil
}
