// Package replicate is the HTTP client for the prediction API: create,
// poll, file upload and output download. All calls are sequential — the
// runner keeps one request in flight at a time.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"genrun/internal/pkg/errors"
	"genrun/internal/pkg/logger"
)

const (
	DefaultBaseURL      = "https://api.replicate.com/v1"
	DefaultPollInterval = 1 * time.Second

	// syncWaitSeconds is the Prefer: wait hint on create. Short
	// predictions come back already terminal and skip the poll loop.
	syncWaitSeconds = 5
)

type Config struct {
	Token        string
	BaseURL      string
	PollInterval time.Duration
	HTTPClient   *http.Client
	Log          *logger.Logger
}

type Client struct {
	token        string
	baseURL      string
	pollInterval time.Duration
	hc           *http.Client
	log          *logger.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	log := cfg.Log
	if log == nil {
		log = logger.NewDefault()
	}

	return &Client{
		token:        cfg.Token,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		pollInterval: cfg.PollInterval,
		hc:           cfg.HTTPClient,
		log:          log.WithComponent("replicate"),
	}, nil
}

// CreatePrediction submits the generation request. When version is set the
// generic predictions endpoint is used; otherwise the model-scoped one.
// cancelAfter is a server-side hint only — this client never issues an
// explicit cancel.
func (c *Client) CreatePrediction(ctx context.Context, model, version string, input map[string]any, cancelAfter time.Duration) (Prediction, error) {
	var url string
	var body createRequest
	if version != "" {
		url = c.baseURL + "/predictions"
		body = createRequest{Version: version, Input: input}
	} else {
		url = fmt.Sprintf("%s/models/%s/predictions", c.baseURL, model)
		body = createRequest{Input: input}
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return Prediction{}, errors.Wrap(err, "replicate.create", "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return Prediction{}, errors.Wrap(err, "replicate.create", "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", fmt.Sprintf("wait=%d", syncWaitSeconds))
	if cancelAfter > 0 {
		req.Header.Set("Cancel-After", fmt.Sprintf("%d", int(cancelAfter.Seconds())))
	}

	respBody, err := c.doRequest(req, "replicate.create")
	if err != nil {
		return Prediction{}, err
	}

	var p Prediction
	if err := json.Unmarshal(respBody, &p); err != nil {
		return Prediction{}, errors.WrapWithCode(err, errors.CodeProtocol, "replicate.create", "failed to parse prediction response")
	}
	if !p.Status.known() {
		return Prediction{}, errors.Protocol(fmt.Sprintf("create response carried no recognizable status: %q", p.Status))
	}

	c.log.Debug("prediction created", "prediction_id", p.ID, "status", string(p.Status))
	return p, nil
}

// GetPrediction re-fetches prediction state from the given poll URL.
func (c *Client) GetPrediction(ctx context.Context, pollURL string) (Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
	if err != nil {
		return Prediction{}, errors.Wrap(err, "replicate.poll", "failed to create HTTP request")
	}

	respBody, err := c.doRequest(req, "replicate.poll")
	if err != nil {
		return Prediction{}, err
	}

	var p Prediction
	if err := json.Unmarshal(respBody, &p); err != nil {
		return Prediction{}, errors.WrapWithCode(err, errors.CodeProtocol, "replicate.poll", "failed to parse prediction response")
	}
	return p, nil
}

// PollURL returns the API-provided polling URL, falling back to the
// constructed ID-based URL when absent.
func (c *Client) PollURL(p Prediction) string {
	if u, ok := p.URLs["get"]; ok && u != "" {
		return u
	}
	return fmt.Sprintf("%s/predictions/%s", c.baseURL, p.ID)
}

// WaitOptions configures the poll loop.
type WaitOptions struct {
	// Timeout is the wall-clock budget for the whole wait. On expiry the
	// remote prediction is left running.
	Timeout time.Duration
	// Expected is the duration heuristic feeding the progress estimate.
	Expected time.Duration
	// OnProgress receives banded progress values in [0, 0.9).
	OnProgress func(float64)
}

// Wait polls until the prediction reaches a terminal state or the timeout
// elapses. The create response may itself already be terminal.
func (c *Client) Wait(ctx context.Context, p Prediction, opts WaitOptions) (Prediction, error) {
	est := NewEstimator(opts.Expected)
	start := time.Now()
	pollURL := c.PollURL(p)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		if !p.Status.known() {
			return p, errors.Protocol(fmt.Sprintf("poll response carried no recognizable status: %q", p.Status))
		}

		switch p.Status {
		case StatusSucceeded:
			return p, nil
		case StatusFailed:
			return p, errors.New(errors.CodePredictionFailed, predictionFailureText("prediction failed", p))
		case StatusCanceled:
			return p, errors.New(errors.CodePredictionCanceled, predictionFailureText("prediction canceled by remote", p))
		}

		elapsed := time.Since(start)
		if opts.Timeout > 0 && elapsed > opts.Timeout {
			// No further poll: the remote prediction keeps running,
			// bounded only by the Cancel-After hint sent on create.
			return p, errors.Timeout("prediction poll").
				WithField("prediction_id", p.ID).
				WithField("elapsed", elapsed.String())
		}

		if v, emit := est.Advance(elapsed); emit && opts.OnProgress != nil {
			opts.OnProgress(v)
		}

		select {
		case <-ctx.Done():
			return p, errors.WrapWithCode(ctx.Err(), errors.CodeInternal, "replicate.wait", "run canceled")
		case <-ticker.C:
		}

		next, err := c.GetPrediction(ctx, pollURL)
		if err != nil {
			return p, err
		}
		p = next
	}
}

// UploadFile uploads one local job input as a multipart form and returns
// the remote URL the prediction input should reference.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("content", filename)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeUpload, "replicate.upload", "failed to build multipart form")
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", errors.WrapWithCode(err, errors.CodeUpload, "replicate.upload", "failed to read local file")
	}
	if err := mw.Close(); err != nil {
		return "", errors.WrapWithCode(err, errors.CodeUpload, "replicate.upload", "failed to finalize multipart form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeUpload, "replicate.upload", "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	respBody, err := c.doRequest(req, "replicate.upload")
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeUpload, "replicate.upload", fmt.Sprintf("upload failed for %s", filename))
	}

	var fr fileResponse
	if err := json.Unmarshal(respBody, &fr); err != nil {
		return "", errors.WrapWithCode(err, errors.CodeUpload, "replicate.upload", "failed to parse upload response")
	}

	if u := fr.servingURL(c.baseURL); u != "" {
		c.log.Debug("file uploaded", "filename", filename, "url", u)
		return u, nil
	}
	return "", errors.New(errors.CodeUpload, fmt.Sprintf("upload response for %s contained no usable URL", filename))
}

// servingURL picks the first usable URL field, falling back to a URL
// constructed from the returned identifier.
func (fr fileResponse) servingURL(baseURL string) string {
	if u, ok := fr.URLs["get"]; ok && u != "" {
		return u
	}
	if fr.URL != "" {
		return fr.URL
	}
	if fr.ServingURL != "" {
		return fr.ServingURL
	}
	if fr.ID != "" {
		return fmt.Sprintf("%s/files/%s", baseURL, fr.ID)
	}
	return ""
}

// Download fetches one output URL with bearer auth. Returns the body and
// the response content type.
func (c *Client) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", errors.WrapWithCode(err, errors.CodeDownload, "replicate.download", "failed to create HTTP request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, "", errors.WrapWithCode(err, errors.CodeDownload, "replicate.download", fmt.Sprintf("download failed for %s", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", errors.Newf(errors.CodeDownload, "download returned status %d for %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.WrapWithCode(err, errors.CodeDownload, "replicate.download", "failed to read response body")
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// doRequest attaches auth, executes, and maps transport and status errors
// to their host-visible codes.
func (c *Client) doRequest(req *http.Request, op string) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeNetwork, op, "HTTP request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeNetwork, op, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := upstreamDetail(respBody)
		e := errors.Newf(errors.CodeAPI, "upstream returned status %d: %s", resp.StatusCode, detail)
		e.Op = op
		return nil, e.WithField("status", resp.StatusCode)
	}

	return respBody, nil
}

// upstreamDetail extracts a readable error detail from an API error body,
// falling back to the raw (truncated) body.
func upstreamDetail(body []byte) string {
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil {
		if ae.Detail != "" {
			return ae.Detail
		}
		if ae.Title != "" {
			return ae.Title
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 500 {
		s = s[:500]
	}
	return s
}

func predictionFailureText(prefix string, p Prediction) string {
	if t := p.ErrorText(); t != "" {
		return prefix + ": " + t
	}
	return prefix
}
