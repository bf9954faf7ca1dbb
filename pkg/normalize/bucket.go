package normalize

import "strings"

// knownBuckets is the fixed, ordered list of field names expected to hold
// item collections. Scanned in order; a bucket's content may be the bucket
// itself or a nested results/contents/items field.
var knownBuckets = []string{
	"songs",
	"albums",
	"artists",
	"playlists",
	"videos",
	"tracks",
	"items",
	"results",
	"recommended",
	"suggestions",
	"content",
	"charts",
}

// HintResolver maps a bucket field name to the type hint applied to its
// elements. The empty string means no hint.
type HintResolver func(bucket string) string

// BucketHint is the default HintResolver: substring match on the bucket
// name ("song"/"video" imply song, and so on for album, artist, playlist).
func BucketHint(bucket string) string {
	b := strings.ToLower(bucket)
	switch {
	case strings.Contains(b, "song"), strings.Contains(b, "video"), strings.Contains(b, "track"):
		return TypeSong
	case strings.Contains(b, "album"):
		return TypeAlbum
	case strings.Contains(b, "artist"):
		return TypeArtist
	case strings.Contains(b, "playlist"):
		return TypePlaylist
	}
	return ""
}

// ExtractItems finds and normalizes the item collections embedded in an
// arbitrarily-shaped raw response. A top-level array is normalized
// directly. Otherwise known buckets are scanned first; only if none of
// them yields anything does the blind flatten over every array-valued
// field run. The two tiers are what keep the adapter working across
// upstream schema drift: recognized shapes get typed hints, unrecognized
// ones still surface their items.
func ExtractItems(raw any, hintFor HintResolver) []Item {
	if hintFor == nil {
		hintFor = BucketHint
	}
	if arr, ok := raw.([]any); ok {
		return NormalizeAll(arr, "")
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return []Item{}
	}

	items := []Item{}
	for _, bucket := range knownBuckets {
		v, present := obj[bucket]
		if !present || !truthy(v) {
			continue
		}
		entries := bucketEntries(v)
		if entries == nil {
			continue
		}
		items = append(items, NormalizeAll(entries, hintFor(bucket))...)
	}
	if len(items) == 0 {
		items = FlattenSequences(obj, "")
	}
	return items
}

// FlattenSequences normalizes every array-valued field of obj, in stable
// field order, applying the given type hint to each element.
func FlattenSequences(obj map[string]any, typeHint string) []Item {
	items := []Item{}
	for _, k := range sortedKeys(obj) {
		if arr, ok := obj[k].([]any); ok {
			items = append(items, NormalizeAll(arr, typeHint)...)
		}
	}
	return items
}

// SequenceField resolves a named field to a slice of entries, accepting
// either the slice itself or a record wrapping one under
// results/contents/items. Returns nil when the field holds neither.
func SequenceField(obj map[string]any, key string) []any {
	v, ok := obj[key]
	if !ok {
		return nil
	}
	return bucketEntries(v)
}

func bucketEntries(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		for _, k := range []string{"results", "contents", "items"} {
			if arr, ok := t[k].([]any); ok {
				return arr
			}
		}
	}
	return nil
}
