package input

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/patrickmn/go-cache"
)

// FilePrefix marks a string value as a file-selection pattern: the
// remainder is a glob matched against the job's staged input files.
const FilePrefix = "files:"

// UploadFunc uploads one staged file and returns its remote URL. The
// traversal takes it as an injected capability so the walk itself stays
// side-effect-free and unit-testable.
type UploadFunc func(filename string) (string, error)

// Resolver substitutes files: placeholders in a nested JSON value.
type Resolver struct {
	files  []string
	upload UploadFunc
}

func NewResolver(files []string, upload UploadFunc) *Resolver {
	return &Resolver{files: files, upload: upload}
}

// Resolve walks an arbitrary JSON-like value and returns a rebuilt copy
// with every placeholder replaced. Wildcard patterns always resolve to a
// list of URLs; literal patterns resolve to a single URL; zero matches
// resolve to an empty list, never an error.
func (r *Resolver) Resolve(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			resolved, err := r.Resolve(vv)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil

	case []any:
		out := make([]any, 0, len(t))
		for _, vv := range t {
			resolved, err := r.Resolve(vv)
			if err != nil {
				return nil, err
			}
			out = append(out, resolved)
		}
		return out, nil

	case string:
		if !strings.HasPrefix(t, FilePrefix) {
			return t, nil
		}
		return r.substitute(strings.TrimPrefix(t, FilePrefix))

	default:
		return v, nil
	}
}

func (r *Resolver) substitute(pattern string) (any, error) {
	matches := matchFiles(pattern, r.files)

	if len(matches) == 0 {
		return []any{}, nil
	}

	if hasWildcard(pattern) {
		urls := make([]any, 0, len(matches))
		for _, m := range matches {
			url, err := r.upload(m)
			if err != nil {
				return nil, err
			}
			urls = append(urls, url)
		}
		return urls, nil
	}

	// Literal pattern: a single URL even when one file matched.
	url, err := r.upload(matches[0])
	if err != nil {
		return nil, err
	}
	return url, nil
}

// matchFiles returns the candidates matching pattern, in candidate order.
// A name-only pattern (no separator) also matches files nested under any
// directory.
func matchFiles(pattern string, files []string) []string {
	pattern = filepath.ToSlash(strings.TrimSpace(pattern))
	nameOnly := !strings.Contains(pattern, "/")

	var matches []string
	for _, f := range files {
		p := filepath.ToSlash(f)
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			matches = append(matches, f)
			continue
		}
		if nameOnly {
			if ok, err := doublestar.Match(pattern, path.Base(p)); err == nil && ok {
				matches = append(matches, f)
			}
		}
	}
	return matches
}

func hasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// CachedUploader wraps upload so each filename is uploaded at most once per
// run. The cache lives for the process only — no cross-run reuse.
func CachedUploader(upload UploadFunc) UploadFunc {
	c := cache.New(cache.NoExpiration, 0)
	return func(filename string) (string, error) {
		if v, ok := c.Get(filename); ok {
			return v.(string), nil
		}
		url, err := upload(filename)
		if err != nil {
			return "", err
		}
		c.Set(filename, url, cache.NoExpiration)
		return url, nil
	}
}
