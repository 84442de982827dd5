// Package report emits the host protocol: newline-delimited JSON records on
// stdout. A run produces any number of progress records and exactly one
// terminal record.
package report

import (
	"encoding/json"
	"io"
	"sync"
)

// recordMarker is the fixed discriminator the host expects on every record.
const recordMarker = 1

type progressRecord struct {
	XY       int     `json:"xy"`
	Progress float64 `json:"progress"`
}

// PredictionData is the metadata block of the terminal success record.
type PredictionData struct {
	PredictionID string         `json:"prediction_id"`
	Model        string         `json:"model"`
	Version      string         `json:"version"`
	Status       string         `json:"status"`
	Metrics      map[string]any `json:"metrics"`
	Output       any            `json:"output"`
}

type successRecord struct {
	XY    int            `json:"xy"`
	Code  int            `json:"code"`
	Data  PredictionData `json:"data"`
	Files []string       `json:"files"`
}

type failureRecord struct {
	XY          int    `json:"xy"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Reporter writes protocol records. The terminal guard is a one-shot: once
// a terminal record has been written, every later emission (terminal or
// progress) is a no-op, so racing late failures can never produce a second
// terminal record.
type Reporter struct {
	mu       sync.Mutex
	enc      *json.Encoder
	finished bool
}

func New(w io.Writer) *Reporter {
	return &Reporter{enc: json.NewEncoder(w)}
}

// Progress emits a progress record. Suppressed after the terminal record.
func (r *Reporter) Progress(p float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return nil
	}
	return r.enc.Encode(progressRecord{XY: recordMarker, Progress: p})
}

// Success emits the terminal success record. No-op if a terminal record was
// already written.
func (r *Reporter) Success(data PredictionData, files []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return nil
	}
	r.finished = true

	if files == nil {
		files = []string{}
	}
	return r.enc.Encode(successRecord{XY: recordMarker, Code: 0, Data: data, Files: files})
}

// Failure emits the terminal failure record. No-op if a terminal record was
// already written.
func (r *Reporter) Failure(code string, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return nil
	}
	r.finished = true

	return r.enc.Encode(failureRecord{XY: recordMarker, Code: code, Description: description})
}

// Finished reports whether the terminal record has been written.
func (r *Reporter) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}
