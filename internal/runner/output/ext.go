package output

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

// genericExt is the last-resort extension when neither the content type nor
// the URL identify the media.
const genericExt = ".bin"

// extFromContentType maps the media types this runner actually sees. The
// stdlib mime tables are platform-dependent, so the common cases are pinned.
func extFromContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch mediaType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/flac":
		return ".flac"
	case "text/vtt":
		return ".vtt"
	default:
		return ""
	}
}

// extFromURL pulls a plausible extension from the URL path. Query strings
// and fragments are ignored; suspiciously long suffixes are rejected.
func extFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// inferExt picks the artifact extension: response content type first, then
// the URL suffix, then the generic binary extension.
func inferExt(contentType, rawURL string) string {
	if ext := extFromContentType(contentType); ext != "" {
		return ext
	}
	if ext := extFromURL(rawURL); ext != "" {
		return ext
	}
	return genericExt
}
