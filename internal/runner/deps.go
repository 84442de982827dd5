package runner

import (
	"time"

	"genrun/internal/pkg/logger"
	"genrun/internal/ports"
	"genrun/internal/replicate"
	"genrun/internal/runner/report"
)

type Deps struct {
	Client   *replicate.Client
	Store    ports.ArtifactStore
	Reporter *report.Reporter
	Log      *logger.Logger

	// Timeout bounds the whole prediction wait. Zero means no limit.
	Timeout time.Duration
	// WorkDir is where the host staged the job input files.
	WorkDir string
}
