// Package job parses and validates the job descriptor the host writes to
// stdin: one JSON document, read fully before any processing begins.
package job

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"

	"genrun/internal/pkg/errors"
)

// InputFile is one file the host staged into the job working directory.
type InputFile struct {
	Filename string `json:"filename"`
}

// Params is the typed parameter surface. Numeric tuning fields arrive with
// unknown provenance (numbers or numeric strings), so they stay loose here
// and are coerced by the input builder.
type Params struct {
	Tool     string `json:"tool"`
	Model    string `json:"model"`
	Version  string `json:"version"`
	Prompt   string `json:"prompt"`
	Width    any    `json:"width"`
	Height   any    `json:"height"`
	Seed     any    `json:"seed"`
	Duration any    `json:"duration"`
	// Custom is a free-form JSON object or JSON-encoded string merged
	// under the typed fields.
	Custom any `json:"custom"`
}

// Descriptor is the full job document. Read once, immutable thereafter.
type Descriptor struct {
	Params Params `json:"params"`
	Input  struct {
		Files []InputFile `json:"files"`
	} `json:"input"`
}

// Parse reads one JSON job descriptor and validates its required fields.
// All missing parameters are reported together.
func Parse(r io.Reader) (*Descriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInputParse, "job.parse", "failed to read job descriptor")
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInputParse, "job.parse", "malformed job descriptor")
	}

	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Descriptor) validate() error {
	var merr *multierror.Error

	if strings.TrimSpace(d.Params.Model) == "" {
		merr = multierror.Append(merr, errors.MissingParameter("model"))
	}
	if strings.TrimSpace(d.Params.Prompt) == "" {
		merr = multierror.Append(merr, errors.MissingParameter("prompt"))
	}
	if _, err := ParseTool(d.Params.Tool); err != nil {
		merr = multierror.Append(merr, err)
	}

	if err := merr.ErrorOrNil(); err != nil {
		return errors.WrapWithCode(err, errors.CodeMissingParameter, "job.validate", "invalid job parameters")
	}
	return nil
}

// Tool returns the validated tool mode. Only callable after Parse.
func (d *Descriptor) Tool() Tool {
	t, _ := ParseTool(d.Params.Tool)
	return t
}

// Filenames lists the staged input files, with blank entries dropped.
func (d *Descriptor) Filenames() []string {
	return lo.FilterMap(d.Input.Files, func(f InputFile, _ int) (string, bool) {
		name := strings.TrimSpace(f.Filename)
		return name, name != ""
	})
}
