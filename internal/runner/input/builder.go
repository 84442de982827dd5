// Package input builds the prediction input object: typed parameters are
// merged over the free-form custom JSON, and files: placeholders are
// substituted with uploaded-file URLs.
package input

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"genrun/internal/pkg/errors"
	"genrun/internal/runner/job"
)

// Build produces the API input object for one job. The custom JSON blob is
// the base; explicit typed fields are applied on top, so they always win.
func Build(p job.Params, tool job.Tool) (map[string]any, error) {
	base, err := customBase(p.Custom)
	if err != nil {
		return nil, err
	}

	base["prompt"] = p.Prompt

	if tool.TakesDimensions() {
		setInt(base, "width", p.Width)
		setInt(base, "height", p.Height)
	}
	if tool.TakesDuration() {
		setNumber(base, "duration", p.Duration)
	}
	setInt(base, "seed", p.Seed)

	return base, nil
}

// customBase deep-clones the custom parameter into a fresh object. A string
// is parsed as JSON first; anything that is not an object is rejected.
func customBase(v any) (map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return map[string]any{}, nil

	case string:
		if strings.TrimSpace(t) == "" {
			return map[string]any{}, nil
		}
		base := map[string]any{}
		if err := json.Unmarshal([]byte(t), &base); err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeMalformedCustom, "input.build", "custom parameter is not valid JSON")
		}
		return base, nil

	case map[string]any:
		// Round-trip clone so substitutions never mutate the descriptor.
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeMalformedCustom, "input.build", "custom parameter is not serializable")
		}
		base := map[string]any{}
		if err := json.Unmarshal(raw, &base); err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeMalformedCustom, "input.build", "custom parameter is not a JSON object")
		}
		return base, nil

	default:
		return nil, errors.New(errors.CodeMalformedCustom, "custom parameter must be a JSON object or JSON-encoded string")
	}
}

// setInt coerces and rounds a numeric field into base, omitting it when the
// value is absent or not a finite number.
func setInt(base map[string]any, key string, v any) {
	if f, ok := coerceFloat(v); ok {
		base[key] = int(math.Round(f))
	}
}

// setNumber coerces a numeric field into base keeping fractional values.
func setNumber(base map[string]any, key string, v any) {
	if f, ok := coerceFloat(v); ok {
		base[key] = f
	}
}

// coerceFloat is the permissive numeric parse: numbers, json.Number and
// numeric strings are accepted; NaN, infinities and anything else are not.
func coerceFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
