package library

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cutroom/cutroom-agent/internal/media"
	"github.com/cutroom/cutroom-agent/internal/transcribe"
)

// Transcriber is the subset of the transcription client the runner uses.
type Transcriber interface {
	DetectPauses(ctx context.Context, audioPath string, minDuration float64) transcribe.PauseResult
	GenerateSubtitles(ctx context.Context, audioPath string) transcribe.SubtitleResult
}

// PlanSource supplies the flattened clip sequence for a render job.
type PlanSource interface {
	RenderPlan() (media.RenderPlan, error)
}

// Runner polls for pending jobs and executes them one at a time. Jobs
// only ever call back into synchronous model operations; results land on
// the job row for the UI to poll.
type Runner struct {
	service      *Service
	repo         Repository
	toolchain    media.Toolchain
	transcriber  Transcriber
	plans        PlanSource
	logger       *slog.Logger
	workDir      string
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(service *Service, repo Repository, toolchain media.Toolchain, transcriber Transcriber, plans PlanSource, workDir string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		service:      service,
		repo:         repo,
		toolchain:    toolchain,
		transcriber:  transcriber,
		plans:        plans,
		logger:       logger,
		workDir:      workDir,
		pollInterval: 5 * time.Second,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == JobStatusRunning {
			count++
		}
	}
	return count
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)
	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")

	switch job.Type {
	case JobTypeThumbnail:
		r.processThumbnailJob(ctx, job)
	case JobTypeDetectPauses:
		r.processPauseJob(ctx, job)
	case JobTypeSubtitles:
		r.processSubtitleJob(ctx, job)
	case JobTypeRender:
		r.processRenderJob(ctx, job)
	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "unknown job type")
	}
}

func (r *Runner) processThumbnailJob(ctx context.Context, job *Job) {
	asset, err := r.repo.GetAsset(ctx, job.AssetID)
	if err != nil || asset == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "asset not found")
		return
	}

	// Grab a frame early in the file but past any fade-in.
	offset := math.Min(1.0, asset.Duration/2)
	thumbPath := r.service.ThumbnailPath(asset.ID)

	if err := r.toolchain.GenerateThumbnail(ctx, asset.Path, thumbPath, offset); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("thumbnail generation failed: %v", err))
		return
	}

	if err := r.repo.UpdateAssetThumbnail(ctx, asset.ID, thumbPath); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("cannot record thumbnail: %v", err))
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	r.logger.Info("thumbnail generated", "job_id", job.ID, "asset_id", asset.ID)
}

type pausePayload struct {
	MinDuration float64 `json:"min_duration"`
}

func (r *Runner) processPauseJob(ctx context.Context, job *Job) {
	var payload pausePayload
	if job.Payload != "" {
		if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
			r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("bad payload: %v", err))
			return
		}
	}

	audioPath, cleanup, err := r.extractAudio(ctx, job)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return
	}
	defer cleanup()

	result := r.transcriber.DetectPauses(ctx, audioPath, payload.MinDuration)
	r.finishWithResult(ctx, job, result, result.Success, result.Error)
}

func (r *Runner) processSubtitleJob(ctx context.Context, job *Job) {
	audioPath, cleanup, err := r.extractAudio(ctx, job)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return
	}
	defer cleanup()

	result := r.transcriber.GenerateSubtitles(ctx, audioPath)
	r.finishWithResult(ctx, job, result, result.Success, result.Error)
}

type renderPayload struct {
	OutputPath string `json:"output_path"`
}

func (r *Runner) processRenderJob(ctx context.Context, job *Job) {
	var payload renderPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil || payload.OutputPath == "" {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "render job requires an output path")
		return
	}

	if r.plans == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "render plan source not configured")
		return
	}

	plan, err := r.plans.RenderPlan()
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("cannot build render plan: %v", err))
		return
	}

	if err := r.toolchain.RenderTimeline(ctx, plan, payload.OutputPath); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("render failed: %v", err))
		return
	}

	r.finishWithResult(ctx, job, payload, true, "")
	r.logger.Info("render completed", "job_id", job.ID, "clips", len(plan.Clips))
}

// extractAudio writes a transcription-ready WAV for the job's asset into
// the runner's work dir. The returned cleanup removes it.
func (r *Runner) extractAudio(ctx context.Context, job *Job) (string, func(), error) {
	asset, err := r.repo.GetAsset(ctx, job.AssetID)
	if err != nil || asset == nil {
		return "", nil, fmt.Errorf("asset not found")
	}

	if err := os.MkdirAll(r.workDir, 0755); err != nil {
		return "", nil, fmt.Errorf("cannot create work dir: %w", err)
	}

	audioPath := filepath.Join(r.workDir, asset.ID+".wav")
	if err := r.toolchain.ExtractAudio(ctx, asset.Path, audioPath); err != nil {
		return "", nil, fmt.Errorf("audio extraction failed: %w", err)
	}
	return audioPath, func() { os.Remove(audioPath) }, nil
}

// finishWithResult stores the JSON result on the job row and marks the
// job completed or failed to match the result's own success flag.
func (r *Runner) finishWithResult(ctx context.Context, job *Job, result any, success bool, errMsg string) {
	data, err := json.Marshal(result)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("cannot encode result: %v", err))
		return
	}
	if err := r.repo.UpdateJobResult(ctx, job.ID, string(data)); err != nil {
		r.logger.Warn("failed to store job result", "job_id", job.ID, "error", err)
	}

	if success {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	} else {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, errMsg)
	}
}
