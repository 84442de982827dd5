// Package runner orchestrates one job end to end: parse the descriptor,
// build the prediction input, resolve file placeholders, run the prediction
// to completion, download the outputs and report the terminal record.
package runner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"genrun/internal/pkg/errors"
	"genrun/internal/pkg/logger"
	"genrun/internal/ports"
	"genrun/internal/replicate"
	"genrun/internal/runner/input"
	"genrun/internal/runner/job"
	"genrun/internal/runner/output"
	"genrun/internal/runner/report"
)

type Runner struct {
	client   *replicate.Client
	store    ports.ArtifactStore
	reporter *report.Reporter
	log      *logger.Logger
	timeout  time.Duration
	workDir  string
}

func New(d Deps) *Runner {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	workDir := d.WorkDir
	if workDir == "" {
		workDir = "."
	}

	return &Runner{
		client:   d.Client,
		store:    d.Store,
		reporter: d.Reporter,
		log:      log.WithComponent("runner"),
		timeout:  d.Timeout,
		workDir:  workDir,
	}
}

// Run processes the single job read from jobReader. Every failure funnels
// through fail, so the host always receives exactly one terminal record.
// The returned error mirrors what was reported.
func (r *Runner) Run(ctx context.Context, jobReader io.Reader) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = r.fail(errors.Internalf("uncaught panic: %v", p))
		}
	}()

	start := time.Now()

	// 1. Parse and validate the job descriptor
	desc, err := job.Parse(jobReader)
	if err != nil {
		return r.fail(err)
	}
	tool := desc.Tool()
	log := r.log
	log.Debug("job parsed", "tool", string(tool), "model", desc.Params.Model, "input_files", len(desc.Filenames()))

	// 2. Build the prediction input from typed params + custom JSON
	built, err := input.Build(desc.Params, tool)
	if err != nil {
		return r.fail(err)
	}

	// 3. Substitute files: placeholders with uploaded-file URLs
	uploader := input.CachedUploader(r.uploadFunc(ctx))
	resolved, err := input.NewResolver(desc.Filenames(), uploader).Resolve(built)
	if err != nil {
		return r.fail(err)
	}
	predictionInput, ok := resolved.(map[string]any)
	if !ok {
		return r.fail(errors.Internal("resolved input is not an object"))
	}

	// 4. Create the prediction and poll to completion
	pred, err := r.client.CreatePrediction(ctx, desc.Params.Model, desc.Params.Version, predictionInput, r.timeout)
	if err != nil {
		return r.fail(err)
	}

	ctx = logger.ContextWithJobID(ctx, pred.ID)
	log = log.FromContext(ctx)
	log.Info("prediction created", "status", string(pred.Status))

	pred, err = r.client.Wait(ctx, pred, replicate.WaitOptions{
		Timeout:  r.timeout,
		Expected: tool.ExpectedDuration(),
		OnProgress: func(p float64) {
			if perr := r.reporter.Progress(p); perr != nil {
				log.Warn("failed to emit progress", "error", perr.Error())
			}
		},
	})
	if err != nil {
		return r.fail(err)
	}
	log.Info("prediction succeeded", "elapsed_ms", time.Since(start).Milliseconds())

	// 5. Download outputs into the working directory
	files, err := output.NewFetcher(r.client, r.store, r.log).Fetch(ctx, pred.ID, pred.Output)
	if err != nil {
		return r.fail(err)
	}

	// 6. Terminal success record
	data := report.PredictionData{
		PredictionID: pred.ID,
		Model:        modelName(pred, desc),
		Version:      pred.Version,
		Status:       string(pred.Status),
		Metrics:      pred.Metrics,
		Output:       pred.Output,
	}
	if rerr := r.reporter.Success(data, files); rerr != nil {
		return errors.Wrap(rerr, "runner.report", "failed to write terminal record")
	}

	log.Info("job completed", "files", len(files), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// uploadFunc opens a staged input file and uploads it. The resolver caches
// the result per filename.
func (r *Runner) uploadFunc(ctx context.Context) input.UploadFunc {
	return func(filename string) (string, error) {
		f, err := os.Open(filepath.Join(r.workDir, filepath.FromSlash(filename)))
		if err != nil {
			return "", errors.WrapWithCode(err, errors.CodeUpload, "runner.upload", "cannot open input file "+filename)
		}
		defer f.Close()

		return r.client.UploadFile(ctx, filename, f)
	}
}

// fail reports the terminal failure record and passes the error through.
// The reporter's one-shot guard makes late calls harmless.
func (r *Runner) fail(cause error) error {
	code := errors.GetCode(cause)
	desc := errors.GetDescription(cause)

	var e *errors.Error
	if errors.As(cause, &e) {
		r.log.Error("job failed", "code", string(code), "op", e.Op, "description", desc)
	} else {
		r.log.Error("job failed", "code", string(code), "description", desc)
	}

	if rerr := r.reporter.Failure(string(code), desc); rerr != nil {
		r.log.Error("failed to write terminal record", "error", rerr.Error())
	}
	return cause
}

// modelName prefers the remote's echo of the model, falling back to the
// requested one.
func modelName(p replicate.Prediction, d *job.Descriptor) string {
	if p.Model != "" {
		return p.Model
	}
	return d.Params.Model
}
