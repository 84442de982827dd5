// Package output turns a completed prediction's output field into local
// artifact files named <prediction-id>-<index>.<ext>.
package output

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"genrun/internal/pkg/errors"
	"genrun/internal/pkg/logger"
	"genrun/internal/ports"
)

// Downloader fetches one network output URL with upstream auth.
type Downloader interface {
	Download(ctx context.Context, url string) (data []byte, contentType string, err error)
}

type Fetcher struct {
	dl    Downloader
	store ports.ArtifactStore
	log   *logger.Logger
}

func NewFetcher(dl Downloader, store ports.ArtifactStore, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Fetcher{
		dl:    dl,
		store: store,
		log:   log.WithComponent("output"),
	}
}

// Fetch downloads every output URL, in collection order, and writes each
// through the artifact store. Returns the artifact filenames in output
// order so the host can correlate them.
func (f *Fetcher) Fetch(ctx context.Context, predictionID string, output any) ([]string, error) {
	urls := CollectURLs(output)
	if len(urls) == 0 {
		return nil, errors.New(errors.CodeNoOutput, "prediction succeeded but produced no usable output")
	}

	names := make([]string, 0, len(urls))
	for i, u := range urls {
		var data []byte
		var contentType string

		if strings.HasPrefix(u, "data:") {
			// Embedded payload: decode in-memory, no network call.
			decoded, mediaType, err := decodeDataURL(u)
			if err != nil {
				return nil, errors.WrapWithCode(err, errors.CodeDownload, "output.fetch", fmt.Sprintf("failed to decode data URL at index %d", i))
			}
			data, contentType = decoded, mediaType
		} else {
			fetched, ctype, err := f.dl.Download(ctx, u)
			if err != nil {
				return nil, err
			}
			data, contentType = fetched, ctype
		}

		name := fmt.Sprintf("%s-%d%s", predictionID, i, inferExt(contentType, u))
		put, err := f.store.Put(ctx, ports.PutArtifactInput{
			Name:        name,
			ContentType: contentType,
			Reader:      bytes.NewReader(data),
		})
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeDownload, "output.fetch", fmt.Sprintf("failed to store artifact %s", name))
		}

		f.log.Debug("artifact stored", "name", name, "bytes", put.Size)
		names = append(names, name)
	}

	return names, nil
}

// CollectURLs gathers every URL-shaped or data-URL-shaped string from the
// output value into a flat ordered sequence. Lists keep their order; object
// keys are visited sorted, since JSON object order does not survive
// decoding into a map.
func CollectURLs(v any) []string {
	var urls []string
	collectURLs(v, &urls)
	return urls
}

func collectURLs(v any, urls *[]string) {
	switch t := v.(type) {
	case string:
		if isOutputURL(t) {
			*urls = append(*urls, t)
		}
	case []any:
		for _, vv := range t {
			collectURLs(vv, urls)
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectURLs(t[k], urls)
		}
	}
}

func isOutputURL(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "data:")
}
