package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Item types. Inference never leaves the type absent.
const (
	TypeSong       = "song"
	TypeAlbum      = "album"
	TypeArtist     = "artist"
	TypePlaylist   = "playlist"
	TypeVideo      = "video"
	TypeSuggestion = "suggestion"
	TypeOther      = "other"
	TypeUnknown    = "unknown"
)

const (
	watchURLPrefix = "https://www.youtube.com/watch?v="
	embedURLPrefix = "https://www.youtube.com/embed/"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([^&]+)`),
	regexp.MustCompile(`/watch/([^?&/]+)`),
	regexp.MustCompile(`/embed/([^?&/]+)`),
}

// Item is the canonical representation of any browsable music entity.
// ID and Title use the empty string as the absent sentinel; VideoID,
// Duration and the derived URLs are null when unknown. Raw retains the
// untouched upstream object for debugging and forward compatibility.
type Item struct {
	Type       string   `json:"type"`
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Thumbnails []any    `json:"thumbnails"`
	Duration   *float64 `json:"duration"`
	VideoID    *string  `json:"videoId"`
	WatchURL   *string  `json:"watchUrl"`
	EmbedURL   *string  `json:"embedUrl"`
	Raw        any      `json:"raw"`
	Warning    string   `json:"warning,omitempty"`
}

// NormalizeItem turns one raw upstream item into a canonical Item. It never
// panics: any failure degrades to a best-effort Item with Warning set, so a
// single malformed element can never abort a batch.
func NormalizeItem(raw any, typeHint string) (item Item) {
	defer func() {
		if r := recover(); r != nil {
			item = degradedItem(raw, typeHint, fmt.Sprintf("item normalization failed: %v", r))
		}
	}()

	if raw == nil {
		return degradedItem(raw, typeHint, "item is null")
	}
	obj, _ := raw.(map[string]any)

	typ := typeHint
	if typ == "" {
		typ = firstString(obj, "type")
	}
	if typ == "" {
		typ = detectType(obj)
	}

	item = Item{
		Type:       typ,
		ID:         firstString(obj, "videoId", "entityId", "browseId", "id", "video_id"),
		Title:      firstString(obj, "title", "name", "subtitle"),
		Artists:    ArtistNames(obj),
		Thumbnails: Thumbnails(obj),
		Duration:   durationSeconds(obj),
		Raw:        raw,
	}

	videoID := firstString(obj, "videoId", "id")
	if videoID == "" {
		videoID = VideoIDFromURL(firstString(obj, "url"))
	}
	if videoID != "" {
		watch := watchURLPrefix + videoID
		embed := embedURLPrefix + videoID
		item.VideoID = &videoID
		item.WatchURL = &watch
		item.EmbedURL = &embed
	}
	return item
}

// NormalizeAll normalizes a slice of raw entries with a shared type hint.
func NormalizeAll(entries []any, typeHint string) []Item {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, NormalizeItem(e, typeHint))
	}
	return items
}

// ArtistNames resolves the artist list from the first present field among
// artists, artist, subtitles, coercing each entry to a display name.
func ArtistNames(obj map[string]any) []string {
	var raw any
	for _, k := range []string{"artists", "artist", "subtitles"} {
		if v, ok := obj[k]; ok && truthy(v) {
			raw = v
			break
		}
	}
	names := []string{}
	for _, entry := range CoerceToArray(raw) {
		if name, ok := DisplayName(entry); ok {
			names = append(names, name)
		}
	}
	return names
}

// Thumbnails returns the thumbnails field as a slice, wrapping a scalar
// thumbnail/thumbs field into a one-element slice. Descriptors are opaque;
// their internal shape is preserved.
func Thumbnails(obj map[string]any) []any {
	if arr, ok := obj["thumbnails"].([]any); ok {
		return arr
	}
	for _, k := range []string{"thumbnail", "thumbs"} {
		v, ok := obj[k]
		if !ok || !truthy(v) {
			continue
		}
		if arr, ok := v.([]any); ok {
			return arr
		}
		return []any{v}
	}
	return []any{}
}

// VideoIDFromURL pulls a video id out of a watch/embed style URL.
// Returns the empty string when no pattern matches.
func VideoIDFromURL(url string) string {
	if url == "" {
		return ""
	}
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

func detectType(obj map[string]any) string {
	if obj == nil {
		return TypeOther
	}
	if firstString(obj, "videoId") != "" {
		return TypeSong
	}
	if firstString(obj, "browseId") != "" && firstString(obj, "title") != "" && truthy(obj["thumbnail"]) {
		sub := strings.ToLower(firstString(obj, "subtitle"))
		if strings.Contains(sub, "song") || strings.Contains(sub, "track") {
			return TypeAlbum
		}
	}
	return TypeOther
}

// durationSeconds coerces the first present duration-like field to seconds.
// Upstream sends numbers or numeric strings; display labels like "3:45" are
// treated as absent.
func durationSeconds(obj map[string]any) *float64 {
	for _, k := range []string{"duration", "length", "duration_seconds"} {
		v, ok := obj[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			if t != 0 {
				return &t
			}
		case string:
			if f, err := strconv.ParseFloat(t, 64); err == nil && f != 0 {
				return &f
			}
		}
	}
	return nil
}

// degradedItem builds a best-effort Item from directly-present fields only.
func degradedItem(raw any, typeHint, reason string) Item {
	obj, _ := raw.(map[string]any)
	typ := typeHint
	if typ == "" {
		typ = firstString(obj, "type")
	}
	if typ == "" {
		typ = TypeUnknown
	}
	item := Item{
		Type:       typ,
		ID:         firstString(obj, "videoId", "id", "entityId"),
		Title:      firstString(obj, "title", "name"),
		Artists:    []string{},
		Thumbnails: []any{},
		Raw:        raw,
		Warning:    reason,
	}
	if videoID := firstString(obj, "videoId", "id"); videoID != "" {
		watch := watchURLPrefix + videoID
		embed := embedURLPrefix + videoID
		item.VideoID = &videoID
		item.WatchURL = &watch
		item.EmbedURL = &embed
	}
	return item
}
