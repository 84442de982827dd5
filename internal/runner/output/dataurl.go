package output

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// decodeDataURL decodes a data: URL payload in-memory. Both base64 and
// percent-encoded payloads are supported.
func decodeDataURL(s string) (data []byte, mediaType string, err error) {
	rest := strings.TrimPrefix(s, "data:")

	comma := strings.Index(rest, ",")
	if comma < 0 {
		return nil, "", fmt.Errorf("data URL has no payload separator")
	}
	meta, payload := rest[:comma], rest[comma+1:]

	isBase64 := strings.HasSuffix(meta, ";base64")
	mediaType = strings.TrimSuffix(meta, ";base64")
	if mediaType == "" {
		mediaType = "text/plain"
	}

	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
		}
		return data, mediaType, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid percent-encoded payload: %w", err)
	}
	return []byte(decoded), mediaType, nil
}
