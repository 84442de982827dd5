package replicate

import "fmt"

// Status is the remote lifecycle state of a prediction.
type Status string

const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// IsTerminal returns true if the status represents a final state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// known reports whether the remote sent a status this client understands.
// An unknown status means the remote contract was violated.
func (s Status) known() bool {
	switch s {
	case StatusStarting, StatusProcessing, StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// Prediction is the remote handle for one generation request and its
// eventual result.
type Prediction struct {
	ID      string            `json:"id"`
	Model   string            `json:"model"`
	Version string            `json:"version"`
	Status  Status            `json:"status"`
	Input   map[string]any    `json:"input,omitempty"`
	Output  any               `json:"output,omitempty"`
	Error   any               `json:"error,omitempty"`
	Logs    string            `json:"logs,omitempty"`
	Metrics map[string]any    `json:"metrics,omitempty"`
	URLs    map[string]string `json:"urls,omitempty"`
}

// ErrorText renders the remote-supplied error, which may be a string or an
// arbitrary structure, as text. Empty when the remote sent none.
func (p Prediction) ErrorText() string {
	switch e := p.Error.(type) {
	case nil:
		return ""
	case string:
		return e
	default:
		return fmt.Sprint(e)
	}
}

type createRequest struct {
	Version string         `json:"version,omitempty"`
	Input   map[string]any `json:"input"`
}

// fileResponse is the upload endpoint's reply. Deployments differ in which
// field carries the serving URL, so every known one is modeled.
type fileResponse struct {
	ID         string            `json:"id"`
	URL        string            `json:"url"`
	ServingURL string            `json:"serving_url"`
	URLs       map[string]string `json:"urls"`
}

type apiError struct {
	Detail string `json:"detail"`
	Title  string `json:"title"`
}
