package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeMissingParameter, "missing prompt")

	if err.Code != CodeMissingParameter {
		t.Errorf("expected code=%s, got %s", CodeMissingParameter, err.Code)
	}
	if err.Message != "missing prompt" {
		t.Errorf("expected message='missing prompt', got %s", err.Message)
	}
	if len(err.Stack) == 0 {
		t.Error("expected stack trace to be captured")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CodeAPI, "upstream returned %d", 502)

	if err.Code != CodeAPI {
		t.Errorf("expected code=%s, got %s", CodeAPI, err.Code)
	}
	if err.Message != "upstream returned 502" {
		t.Errorf("expected formatted message, got %s", err.Message)
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "simple error",
			err:      New(CodeTimeout, "poll deadline exceeded"),
			contains: []string{"TIMEOUT", "poll deadline exceeded"},
		},
		{
			name: "error with op",
			err: &Error{
				Code:    CodeUpload,
				Message: "upload rejected",
				Op:      "replicate.upload",
			},
			contains: []string{"replicate.upload", "UPLOAD_FAILED", "upload rejected"},
		},
		{
			name: "error with underlying",
			err: &Error{
				Code:    CodeDownload,
				Message: "wrapper",
				Err:     fmt.Errorf("connection reset"),
			},
			contains: []string{"wrapper", "connection reset"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			str := tt.err.Error()
			for _, c := range tt.contains {
				if !strings.Contains(str, c) {
					t.Errorf("expected error string to contain %q, got: %s", c, str)
				}
			}
		})
	}
}

func TestWrap(t *testing.T) {
	original := fmt.Errorf("original error")
	wrapped := Wrap(original, "runner.resolve", "resolve failed")

	if wrapped == nil {
		t.Fatal("expected wrapped error to be non-nil")
	}
	if wrapped.Code != CodeInternal {
		t.Errorf("expected code=%s, got %s", CodeInternal, wrapped.Code)
	}
	if wrapped.Op != "runner.resolve" {
		t.Errorf("expected op='runner.resolve', got %s", wrapped.Op)
	}
	if wrapped.Err != original {
		t.Error("expected underlying error to be preserved")
	}

	// Test Unwrap
	if errors.Unwrap(wrapped) != original {
		t.Error("Unwrap should return original error")
	}
}

func TestWrapNil(t *testing.T) {
	wrapped := Wrap(nil, "op", "message")
	if wrapped != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapPreservesCode(t *testing.T) {
	original := New(CodeNoOutput, "prediction produced no output")
	wrapped := Wrap(original, "runner.fetch", "fetch stage failed")

	if wrapped.Code != CodeNoOutput {
		t.Errorf("expected code to be preserved as %s, got %s", CodeNoOutput, wrapped.Code)
	}
}

func TestWrapWithCode(t *testing.T) {
	original := fmt.Errorf("dial tcp: i/o timeout")
	wrapped := WrapWithCode(original, CodeNetwork, "replicate.poll", "poll request failed")

	if wrapped.Code != CodeNetwork {
		t.Errorf("expected code=%s, got %s", CodeNetwork, wrapped.Code)
	}
}

func TestDescription(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  New(CodeNoOutput, "prediction succeeded but produced no output"),
			want: "prediction succeeded but produced no output",
		},
		{
			name: "message with cause",
			err: &Error{
				Code:    CodePredictionFailed,
				Message: "prediction failed",
				Err:     fmt.Errorf("OOM"),
			},
			want: "prediction failed: OOM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Description(); got != tt.want {
				t.Errorf("Description() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetDescriptionPlainError(t *testing.T) {
	if got := GetDescription(fmt.Errorf("boom")); got != "boom" {
		t.Errorf("GetDescription() = %q, want 'boom'", got)
	}
	if got := GetDescription(nil); got != "" {
		t.Errorf("GetDescription(nil) = %q, want empty", got)
	}
}

func TestWithField(t *testing.T) {
	err := MissingParameter("model")

	if err.Fields["field"] != "model" {
		t.Errorf("expected field='model', got %v", err.Fields["field"])
	}
	if !strings.Contains(err.Message, "model") {
		t.Errorf("expected message to name the field, got %s", err.Message)
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"runner error", New(CodeTimeout, "t"), CodeTimeout},
		{"wrapped runner error", fmt.Errorf("outer: %w", New(CodeUpload, "u")), CodeUpload},
		{"plain error", fmt.Errorf("plain"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsCode(t *testing.T) {
	err := Timeout("prediction poll")
	if !IsTimeout(err) {
		t.Error("expected IsTimeout to be true")
	}
	if IsCode(err, CodeUpload) {
		t.Error("expected IsCode(CodeUpload) to be false")
	}
}
