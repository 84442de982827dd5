package job

import (
	"fmt"
	"strings"
	"time"

	"genrun/internal/pkg/errors"
)

// Tool selects the media mode of a generation job.
type Tool string

const (
	ToolImage Tool = "image"
	ToolVideo Tool = "video"
	ToolAudio Tool = "audio"
)

// ParseTool normalizes and validates the tool parameter. Empty means image.
func ParseTool(s string) (Tool, error) {
	switch Tool(strings.ToLower(strings.TrimSpace(s))) {
	case "", ToolImage:
		return ToolImage, nil
	case ToolVideo:
		return ToolVideo, nil
	case ToolAudio:
		return ToolAudio, nil
	default:
		return "", errors.New(errors.CodeMissingParameter, fmt.Sprintf("unknown tool: %s", s)).
			WithField("field", "tool")
	}
}

// ExpectedDuration is the heuristic render time feeding the progress
// estimate. Images come back fastest, video slowest.
func (t Tool) ExpectedDuration() time.Duration {
	switch t {
	case ToolVideo:
		return 120 * time.Second
	case ToolAudio:
		return 45 * time.Second
	default:
		return 15 * time.Second
	}
}

// TakesDimensions reports whether width/height apply to this tool.
func (t Tool) TakesDimensions() bool {
	return t == ToolImage || t == ToolVideo
}

// TakesDuration reports whether the duration parameter applies.
func (t Tool) TakesDuration() bool {
	return t == ToolVideo || t == ToolAudio
}
