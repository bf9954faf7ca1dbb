package normalize

import "strings"

// Format is the canonical representation of one playable stream candidate.
// A Format without a URL is unusable and is discarded before results are
// returned. Zero means absent for the bitrate fields.
type Format struct {
	URL          string  `json:"url"`
	MimeType     string  `json:"mimeType,omitempty"`
	Bitrate      float64 `json:"bitrate,omitempty"`
	AudioBitrate float64 `json:"audioBitrate,omitempty"`
	QualityLabel string  `json:"qualityLabel,omitempty"`
	IsAudioOnly  bool    `json:"isAudioOnly"`
	Raw          any     `json:"raw"`
}

var urlKeys = []string{
	"url", "uri", "audioUrl", "baseUrl", "cdnUrl",
	"downloadUrl", "mediaUrl", "urlString", "direct_url",
}

// NormalizeFormat turns one raw stream-format descriptor into a Format.
// Every field is resolved from an ordered candidate key list, first
// non-empty wins. Total: unrecognized shapes produce an empty Format
// carrying only Raw.
func NormalizeFormat(raw any) Format {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Format{Raw: raw}
	}
	f := Format{
		URL:          firstString(obj, urlKeys...),
		MimeType:     firstString(obj, "mimeType", "type", "contentType", "ext"),
		Bitrate:      firstNumber(obj, "bitrate", "bps", "tbr"),
		AudioBitrate: firstNumber(obj, "audioBitrate", "abr"),
		QualityLabel: firstString(obj, "qualityLabel", "quality", "label", "format", "format_note"),
		Raw:          raw,
	}
	f.IsAudioOnly = audioOnly(obj, f.MimeType)
	return f
}

// NormalizeAndDedupe normalizes raw descriptors, drops entries without a
// resolvable URL and deduplicates by URL, first occurrence winning.
func NormalizeAndDedupe(raws []any) []Format {
	seen := make(map[string]struct{}, len(raws))
	out := make([]Format, 0, len(raws))
	for _, raw := range raws {
		f := NormalizeFormat(raw)
		if f.URL == "" {
			continue
		}
		if _, dup := seen[f.URL]; dup {
			continue
		}
		seen[f.URL] = struct{}{}
		out = append(out, f)
	}
	return out
}

// PickBestAudio selects the best playback candidate: the audio-only format
// with the highest audio bitrate (bitrate as fallback), or failing any
// audio-only entries, the overall highest-bitrate format. Ties keep the
// first-encountered entry. Returns nil on empty input.
func PickBestAudio(formats []Format) *Format {
	if len(formats) == 0 {
		return nil
	}
	var best *Format
	bestScore := -1.0
	for i := range formats {
		f := &formats[i]
		if !f.IsAudioOnly {
			continue
		}
		score := f.AudioBitrate
		if score == 0 {
			score = f.Bitrate
		}
		if score > bestScore {
			best, bestScore = f, score
		}
	}
	if best != nil {
		return best
	}
	bestScore = -1.0
	for i := range formats {
		f := &formats[i]
		if f.Bitrate > bestScore {
			best, bestScore = f, f.Bitrate
		}
	}
	return best
}

// audioOnly decides whether a descriptor is an audio-only stream: audio
// mime type, an audio codec without a video codec, a video codec set to
// the "none" sentinel, or a type field mentioning audio.
func audioOnly(obj map[string]any, mimeType string) bool {
	if strings.Contains(mimeType, "audio") {
		return true
	}
	acodec := firstString(obj, "acodec")
	vcodec := firstString(obj, "vcodec")
	if acodec != "" && acodec != "none" && vcodec == "" {
		return true
	}
	if vcodec == "none" {
		return true
	}
	return strings.Contains(strings.ToLower(firstString(obj, "type")), "audio")
}

func firstNumber(obj map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if f, ok := obj[k].(float64); ok && f != 0 {
			return f
		}
	}
	return 0
}
