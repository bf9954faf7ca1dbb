// Package extract resolves a playable stream URL set for a video
// identifier by trying a bounded, ordered sequence of strategies against
// stream sources whose behavior is unstable. The chain stops at the first
// strategy that yields candidates, falls back to a secondary source when
// the primary is exhausted, and only fails hard when every strategy on
// every source has been tried.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"ytmbridge/pkg/normalize"
)

// Strategy is one named extraction operation against a stream source.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, videoID string) (any, error)
}

// StreamSource exposes an ordered, bounded list of extraction strategies.
type StreamSource interface {
	Name() string
	Strategies() []Strategy
}

// Attempt records the outcome of one strategy invocation for diagnosis.
type Attempt struct {
	Source   string `json:"source"`
	Strategy string `json:"strategy"`
	Outcome  string `json:"outcome"` // "ok", "empty" or "error"
	Error    string `json:"error,omitempty"`
}

// Result is a successful extraction: the source that produced it, the
// usable deduplicated formats, and the raw per-strategy payloads.
type Result struct {
	Source   string
	VideoID  string
	Formats  []normalize.Format
	Info     map[string]any
	Attempts []Attempt
}

// Error is returned when every strategy on both sources is exhausted.
// It carries each source's failure reason.
type Error struct {
	VideoID  string
	Primary  string
	Fallback string
}

func (e *Error) Error() string {
	return fmt.Sprintf("extraction failed for %q: %s; fallback: %s", e.VideoID, e.Primary, e.Fallback)
}

// Chain runs the primary source's strategies in order, then the fallback
// source's. Individual strategy errors are absorbed and logged; only full
// exhaustion surfaces as *Error.
type Chain struct {
	primary  StreamSource
	fallback StreamSource
	logger   *zap.Logger
}

func NewChain(primary, fallback StreamSource, logger *zap.Logger) *Chain {
	return &Chain{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Extract resolves formats for a bare video id or any YouTube URL shape.
func (c *Chain) Extract(ctx context.Context, videoIDOrURL string) (*Result, error) {
	videoID := CanonicalVideoID(videoIDOrURL)
	if videoID == "" {
		videoID = strings.TrimSpace(videoIDOrURL)
	}

	var attempts []Attempt

	formats, info, primaryErr := c.run(ctx, c.primary, videoID, &attempts)
	if primaryErr == nil {
		return &Result{
			Source:   c.primary.Name(),
			VideoID:  videoID,
			Formats:  formats,
			Info:     info,
			Attempts: attempts,
		}, nil
	}
	c.logger.Warn("primary stream source exhausted",
		zap.String("source", c.primary.Name()),
		zap.String("videoId", videoID),
		zap.Error(primaryErr))

	formats, info, fallbackErr := c.run(ctx, c.fallback, videoID, &attempts)
	if fallbackErr == nil {
		return &Result{
			Source:   c.fallback.Name(),
			VideoID:  videoID,
			Formats:  formats,
			Info:     info,
			Attempts: attempts,
		}, nil
	}
	c.logger.Warn("fallback stream source exhausted",
		zap.String("source", c.fallback.Name()),
		zap.String("videoId", videoID),
		zap.Error(fallbackErr))

	return nil, &Error{
		VideoID:  videoID,
		Primary:  primaryErr.Error(),
		Fallback: fallbackErr.Error(),
	}
}

func (c *Chain) run(ctx context.Context, src StreamSource, videoID string, attempts *[]Attempt) ([]normalize.Format, map[string]any, error) {
	var raws []any
	var failures []string
	info := make(map[string]any)

	for _, st := range src.Strategies() {
		res, err := st.Run(ctx, videoID)
		if err != nil {
			*attempts = append(*attempts, Attempt{Source: src.Name(), Strategy: st.Name, Outcome: "error", Error: err.Error()})
			failures = append(failures, fmt.Sprintf("%s: %v", st.Name, err))
			c.logger.Debug("extraction strategy failed",
				zap.String("source", src.Name()),
				zap.String("strategy", st.Name),
				zap.Error(err))
			continue
		}
		candidates := collectRaw(res)
		if len(candidates) == 0 {
			*attempts = append(*attempts, Attempt{Source: src.Name(), Strategy: st.Name, Outcome: "empty"})
			failures = append(failures, fmt.Sprintf("%s: no candidates", st.Name))
			continue
		}
		*attempts = append(*attempts, Attempt{Source: src.Name(), Strategy: st.Name, Outcome: "ok"})
		raws = append(raws, candidates...)
		info[st.Name] = res
		break
	}

	if len(raws) == 0 {
		return nil, nil, fmt.Errorf("%s yielded no candidate formats (%s)", src.Name(), strings.Join(failures, "; "))
	}
	formats := normalize.NormalizeAndDedupe(raws)
	if len(formats) == 0 {
		return nil, nil, fmt.Errorf("%s returned candidates but none carried a usable url", src.Name())
	}
	return formats, info, nil
}

// collectRaw flattens a strategy result into candidate descriptors: a
// slice as-is, a wrapper record through its formats/streams field, and a
// bare record as a single candidate. Scalars carry nothing.
func collectRaw(res any) []any {
	switch t := res.(type) {
	case nil:
		return nil
	case []any:
		return t
	case map[string]any:
		for _, k := range []string{"formats", "streams"} {
			if arr, ok := t[k].([]any); ok {
				return arr
			}
		}
		return []any{t}
	default:
		return nil
	}
}

var canonicalIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([^&]+)`),
	regexp.MustCompile(`youtu\.be/([^?&/]+)`),
	regexp.MustCompile(`/embed/([^?&/]+)`),
	regexp.MustCompile(`/watch/([^?&/]+)`),
}

var bareIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{8,}$`)

// CanonicalVideoID extracts a video id from a bare identifier or any of
// the recognized YouTube URL shapes. Returns the empty string when the
// input is neither.
func CanonicalVideoID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "youtube") || strings.Contains(s, "youtu.be") {
		for _, re := range canonicalIDPatterns {
			if m := re.FindStringSubmatch(s); m != nil {
				return m[1]
			}
		}
		return ""
	}
	if bareIDRegex.MatchString(s) {
		return s
	}
	return ""
}

// WatchURL builds the fully-qualified watch URL a source expects.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
