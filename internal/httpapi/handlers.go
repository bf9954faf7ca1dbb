package httpapi

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"ytmbridge/internal/ytmusic"
	"ytmbridge/pkg/extract"
	"ytmbridge/pkg/fuzzy"
	"ytmbridge/pkg/normalize"
)

// Per-endpoint result caps. Clients may ask for less via ?limit.
const (
	searchLimit        = 50
	searchDefault      = 25
	albumTrackLimit    = 500
	artistSectionLimit = 200
	playlistLimit      = 1000
	recommendLimit     = 50
	recommendDefault   = 25
	trendingLimit      = 50
	trendingDefault    = 25
	suggestionsLimit   = 20
	suggestionsDefault = 10
)

type searchResponse struct {
	Query string           `json:"query"`
	Type  string           `json:"type"`
	Count int              `json:"count"`
	Items []normalize.Item `json:"items"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := queryParam(r, "q", "query")
	if query == "" {
		writeError(w, http.StatusBadRequest, `Missing query param "q"`, "")
		return
	}
	itemType := queryParam(r, "type")
	limit := limitParam(r, searchDefault, searchLimit)

	p, ok := s.provider(w)
	if !ok {
		return
	}
	raw, err := p.Search(r.Context(), query, itemType)
	if err != nil {
		s.providerError(w, "search", "Failed to fetch data from YouTube Music.", err)
		return
	}

	items := capItems(normalize.ExtractItems(raw, normalize.BucketHint), limit)
	s.countDegraded(items)
	writeJSON(w, http.StatusOK, searchResponse{
		Query: query,
		Type:  itemType,
		Count: len(items),
		Items: items,
	})
}

type albumInfo struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Thumbnails []any    `json:"thumbnails"`
	Raw        any      `json:"raw"`
}

type albumResponse struct {
	Album  albumInfo        `json:"album"`
	Tracks []normalize.Item `json:"tracks"`
}

func (s *Server) handleAlbum(w http.ResponseWriter, r *http.Request) {
	id := queryParam(r, "id", "browseId", "albumId")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing album id. Use ?id=<browseId>", "")
		return
	}

	p, ok := s.provider(w)
	if !ok {
		return
	}
	raw, err := p.Album(r.Context(), id)
	if err != nil {
		s.providerError(w, "album", "Failed to fetch album", err)
		return
	}

	obj, _ := raw.(map[string]any)
	tracks := capItems(albumTracks(obj), albumTrackLimit)
	s.countDegraded(tracks)
	writeJSON(w, http.StatusOK, albumResponse{
		Album: albumInfo{
			ID:         id,
			Title:      stringField(obj, "title", "name"),
			Artists:    normalize.ArtistNames(obj),
			Thumbnails: normalize.Thumbnails(obj),
			Raw:        raw,
		},
		Tracks: tracks,
	})
}

// albumTracks prefers the named track collections; an unrecognized shape
// falls back to flattening every sequence with a song hint.
func albumTracks(obj map[string]any) []normalize.Item {
	if obj == nil {
		return []normalize.Item{}
	}
	for _, k := range []string{"tracks", "songs", "content"} {
		if entries := normalize.SequenceField(obj, k); entries != nil {
			return normalize.NormalizeAll(entries, normalize.TypeSong)
		}
	}
	return normalize.FlattenSequences(obj, normalize.TypeSong)
}

type artistInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Thumbnails []any  `json:"thumbnails"`
	Raw        any    `json:"raw"`
}

type artistResponse struct {
	Artist    artistInfo       `json:"artist"`
	Songs     []normalize.Item `json:"songs"`
	Albums    []normalize.Item `json:"albums"`
	Playlists []normalize.Item `json:"playlists"`
}

func (s *Server) handleArtist(w http.ResponseWriter, r *http.Request) {
	id := queryParam(r, "id", "browseId")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing artist id. Use ?id=<browseId>", "")
		return
	}

	p, ok := s.provider(w)
	if !ok {
		return
	}
	raw, err := p.Artist(r.Context(), id)
	if err != nil {
		s.providerError(w, "artist", "Failed to fetch artist", err)
		return
	}

	obj, _ := raw.(map[string]any)
	songs, albums, playlists := classifyArtistItems(normalize.ExtractItems(raw, normalize.BucketHint))
	songs = capItems(songs, artistSectionLimit)
	albums = capItems(albums, artistSectionLimit)
	playlists = capItems(playlists, artistSectionLimit)
	s.countDegraded(songs)
	s.countDegraded(albums)
	s.countDegraded(playlists)
	writeJSON(w, http.StatusOK, artistResponse{
		Artist: artistInfo{
			ID:         id,
			Name:       stringField(obj, "name", "title"),
			Thumbnails: normalize.Thumbnails(obj),
			Raw:        raw,
		},
		Songs:     songs,
		Albums:    albums,
		Playlists: playlists,
	})
}

// classifyArtistItems sorts an artist page's mixed item list into the three
// response sections. Anything playable counts as a song, albums are matched
// by type or release id prefix, everything else lands in playlists.
func classifyArtistItems(items []normalize.Item) (songs, albums, playlists []normalize.Item) {
	songs, albums, playlists = []normalize.Item{}, []normalize.Item{}, []normalize.Item{}
	for _, it := range items {
		switch {
		case it.Type == normalize.TypeSong || it.Type == normalize.TypeVideo || it.VideoID != nil:
			songs = append(songs, it)
		case it.Type == normalize.TypeAlbum || strings.HasPrefix(it.ID, "MPRE"):
			albums = append(albums, it)
		default:
			playlists = append(playlists, it)
		}
	}
	return songs, albums, playlists
}

type playlistInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnails  []any  `json:"thumbnails"`
	Raw         any    `json:"raw"`
}

type playlistResponse struct {
	Playlist playlistInfo     `json:"playlist"`
	Items    []normalize.Item `json:"items"`
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	id := queryParam(r, "id", "browseId", "playlistId")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing playlist id. Use ?id=<browseId>", "")
		return
	}

	p, ok := s.provider(w)
	if !ok {
		return
	}
	raw, err := p.Playlist(r.Context(), id)
	if err != nil {
		s.providerError(w, "playlist", "Failed to fetch playlist", err)
		return
	}

	obj, _ := raw.(map[string]any)
	items := capItems(normalize.ExtractItems(raw, normalize.BucketHint), playlistLimit)
	s.countDegraded(items)
	writeJSON(w, http.StatusOK, playlistResponse{
		Playlist: playlistInfo{
			ID:          id,
			Title:       stringField(obj, "title", "name"),
			Description: stringField(obj, "description"),
			Thumbnails:  normalize.Thumbnails(obj),
			Raw:         raw,
		},
		Items: items,
	})
}

type lyricsResponse struct {
	VideoID string `json:"videoId"`
	Query   string `json:"query,omitempty"`
	Lyrics  any    `json:"lyrics"`
	Raw     any    `json:"raw"`
}

func (s *Server) handleLyrics(w http.ResponseWriter, r *http.Request) {
	videoID := queryParam(r, "videoId", "id")
	query := queryParam(r, "q", "query")
	if videoID == "" && query == "" {
		writeError(w, http.StatusBadRequest,
			"Provide either videoId (?videoId=...) or search query (?q=...) to fetch lyrics.", "")
		return
	}

	p, ok := s.provider(w)
	if !ok {
		return
	}

	if videoID == "" {
		searchRaw, err := p.Search(r.Context(), query, "songs")
		if err != nil {
			s.providerError(w, "lyrics", "Failed to fetch lyrics", err)
			return
		}
		for _, it := range normalize.ExtractItems(searchRaw, normalize.BucketHint) {
			if it.VideoID != nil {
				videoID = *it.VideoID
				break
			}
		}
		if videoID == "" {
			writeError(w, http.StatusNotFound, "No matching song found for query.", "")
			return
		}
	}

	raw, err := p.Lyrics(r.Context(), videoID)
	if err != nil {
		s.providerError(w, "lyrics", "Failed to fetch lyrics", err)
		return
	}

	var lyrics any
	if text := findLyricsText(raw); text != "" {
		lyrics = text
	}
	writeJSON(w, http.StatusOK, lyricsResponse{
		VideoID: videoID,
		Query:   query,
		Lyrics:  lyrics,
		Raw:     raw,
	})
}

// findLyricsText resolves the lyrics body from a document of unknown
// nesting: well-known text fields on the current level first, then a
// depth-first walk in stable field order. An anonymous string field only
// counts when it is long enough to plausibly be lyrics.
func findLyricsText(doc any) string {
	switch v := doc.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		for _, k := range []string{"lyrics", "content", "text"} {
			if s, ok := v[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		for _, k := range sortedKeys(v) {
			switch t := v[k].(type) {
			case string:
				if s := strings.TrimSpace(t); len(s) > 20 {
					return s
				}
			case map[string]any:
				if text := findLyricsText(t); text != "" {
					return text
				}
			case []any:
				for _, e := range t {
					if text := findLyricsText(e); text != "" {
						return text
					}
				}
			}
		}
	}
	return ""
}

type recommendationsResponse struct {
	VideoID string           `json:"videoId"`
	Count   int              `json:"count"`
	Items   []normalize.Item `json:"items"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	videoID := queryParam(r, "videoId", "id", "video")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "Missing videoId. Use ?videoId=<videoId>", "")
		return
	}
	limit := limitParam(r, recommendDefault, recommendLimit)

	p, ok := s.provider(w)
	if !ok {
		return
	}
	raw, err := p.Related(r.Context(), videoID)
	if err != nil {
		s.providerError(w, "recommendations", "Failed to fetch recommendations", err)
		return
	}

	items := capItems(normalize.ExtractItems(raw, normalize.BucketHint), limit)
	s.countDegraded(items)
	writeJSON(w, http.StatusOK, recommendationsResponse{
		VideoID: videoID,
		Count:   len(items),
		Items:   items,
	})
}

type trendingResponse struct {
	Source string           `json:"source"`
	Count  int              `json:"count"`
	Items  []normalize.Item `json:"items"`
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	region := queryParam(r, "region", "country")
	limit := limitParam(r, trendingDefault, trendingLimit)

	p, ok := s.provider(w)
	if !ok {
		return
	}
	raw, err := p.Trending(r.Context(), region)
	if err != nil {
		s.providerError(w, "trending", "Failed to fetch trending", err)
		return
	}

	items := capItems(normalize.ExtractItems(raw, normalize.BucketHint), limit)
	s.countDegraded(items)
	writeJSON(w, http.StatusOK, trendingResponse{
		Source: "trending",
		Count:  len(items),
		Items:  items,
	})
}

type suggestionsResponse struct {
	Query       string                 `json:"query"`
	Count       int                    `json:"count"`
	Suggestions []normalize.Suggestion `json:"suggestions"`
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	query := queryParam(r, "q", "query")
	if query == "" {
		writeError(w, http.StatusBadRequest, `Missing query param "q". Example: ?q=ariana`, "")
		return
	}
	limit := limitParam(r, suggestionsDefault, suggestionsLimit)

	p, ok := s.provider(w)
	if !ok {
		return
	}
	raw, err := p.Suggestions(r.Context(), query)
	if err != nil {
		s.providerError(w, "suggestions", "Failed to fetch suggestions", err)
		return
	}

	suggestions := dedupeSuggestions(normalize.ExtractSuggestions(raw))
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{
		Query:       query,
		Count:       len(suggestions),
		Suggestions: suggestions,
	})
}

// dedupeSuggestions drops untitled entries and collapses titles that fold
// to the same key, first occurrence winning.
func dedupeSuggestions(in []normalize.Suggestion) []normalize.Suggestion {
	seen := make(map[string]struct{}, len(in))
	out := make([]normalize.Suggestion, 0, len(in))
	for _, s := range in {
		if s.Title == "" {
			continue
		}
		key := fuzzy.Fold(s.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

type extractResponse struct {
	Extractor             string             `json:"extractor"`
	VideoID               string             `json:"videoId"`
	AvailableFormatsCount int                `json:"availableFormatsCount"`
	Formats               []normalize.Format `json:"formats"`
	Best                  *normalize.Format  `json:"best"`
	InfoSummary           map[string]any     `json:"infoSummary"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	target := queryParam(r, "videoId", "v", "url", "q")
	if target == "" {
		writeError(w, http.StatusBadRequest,
			"Missing videoId (use ?videoId=VIDEO_ID or ?url=YOUTUBE_URL)", "")
		return
	}

	res, err := s.extractor.Extract(r.Context(), target)
	if err != nil {
		s.metrics.ProviderErrors.WithLabelValues("extract").Inc()
		s.logger.Error("extraction failed", zap.String("target", target), zap.Error(err))
		var exErr *extract.Error
		if errors.As(err, &exErr) {
			writeError(w, http.StatusInternalServerError, "Extraction failed", exErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Extraction failed", err.Error())
		return
	}

	for _, a := range res.Attempts {
		s.metrics.ExtractionAttempts.WithLabelValues(a.Source, a.Strategy, a.Outcome).Inc()
	}
	writeJSON(w, http.StatusOK, extractResponse{
		Extractor:             res.Source,
		VideoID:               res.VideoID,
		AvailableFormatsCount: len(res.Formats),
		Formats:               res.Formats,
		Best:                  normalize.PickBestAudio(res.Formats),
		InfoSummary:           infoSummary(res.Info),
	})
}

// infoSummary names the strategies that produced data and scavenges
// recognizable metadata fields from their payloads. The player response
// nests them under videoDetails; a subprocess dump carries them at the
// top level.
func infoSummary(info map[string]any) map[string]any {
	summary := map[string]any{}
	if len(info) > 0 {
		summary["strategies"] = sortedKeys(info)
	}
	for _, name := range sortedKeys(info) {
		obj, ok := info[name].(map[string]any)
		if !ok {
			continue
		}
		if details, ok := obj["videoDetails"].(map[string]any); ok {
			obj = details
		}
		for _, k := range []string{"title", "author", "uploader", "channelId", "lengthSeconds", "duration"} {
			if _, have := summary[k]; have {
				continue
			}
			if v, ok := obj[k]; ok && v != nil {
				summary[k] = v
			}
		}
	}
	return summary
}

func (s *Server) provider(w http.ResponseWriter) (ytmusic.Provider, bool) {
	prov, err := s.providers.Get()
	if err != nil {
		s.logger.Error("metadata provider unavailable", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Metadata provider unavailable", err.Error())
		return nil, false
	}
	return prov, true
}

func (s *Server) providerError(w http.ResponseWriter, operation, message string, err error) {
	s.metrics.ProviderErrors.WithLabelValues(operation).Inc()
	s.logger.Error("provider operation failed",
		zap.String("operation", operation),
		zap.Error(err))
	writeError(w, http.StatusInternalServerError, message, err.Error())
}

func (s *Server) countDegraded(items []normalize.Item) {
	for _, it := range items {
		if it.Warning != "" {
			s.metrics.DegradedItems.Inc()
		}
	}
}

// queryParam returns the first non-blank value among the named params.
func queryParam(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, n := range names {
		if v := strings.TrimSpace(q.Get(n)); v != "" {
			return v
		}
	}
	return ""
}

// limitParam parses ?limit (alias ?count), falling back on absence or
// garbage and clamping to the endpoint ceiling.
func limitParam(r *http.Request, fallback, ceiling int) int {
	raw := queryParam(r, "limit", "count")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > ceiling {
		return ceiling
	}
	return n
}

func capItems(items []normalize.Item, limit int) []normalize.Item {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func stringField(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
