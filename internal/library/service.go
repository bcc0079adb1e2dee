package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cutroom/cutroom-agent/internal/media"
)

// ClipPruner removes timeline clips referencing a deleted asset. Satisfied
// by the timeline controller.
type ClipPruner interface {
	RemoveClipsBySource(sourceID string) int
}

type Service struct {
	repo      Repository
	toolchain media.Toolchain
	pruner    ClipPruner
	logger    *slog.Logger
	thumbsDir string
}

func NewService(repo Repository, toolchain media.Toolchain, thumbsDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, toolchain: toolchain, thumbsDir: thumbsDir, logger: logger}
}

// SetClipPruner wires the timeline controller in after construction; the
// controller needs the service as its source resolver, so one side has to
// be attached late.
func (s *Service) SetClipPruner(p ClipPruner) {
	s.pruner = p
}

// Import adds a media file to the library. Re-importing a path returns the
// existing asset. A thumbnail job is enqueued for new video assets.
func (s *Service) Import(ctx context.Context, path string) (*Asset, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("file does not exist: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory")
	}
	if !IsMediaFile(absPath) {
		return nil, fmt.Errorf("unsupported media file %q", filepath.Base(absPath))
	}

	existing, err := s.repo.GetAssetByPath(ctx, absPath)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	asset := &Asset{
		ID:        NewID(),
		Name:      filepath.Base(absPath),
		Path:      absPath,
		Present:   true,
		CreatedAt: time.Now(),
	}

	probe, err := s.toolchain.Probe(ctx, absPath)
	if err != nil {
		// The asset is still usable for placement; duration arrives as 0
		// and the UI shows it as unprobed.
		s.logger.Warn("probe failed on import", "asset_id", asset.ID, "error", err)
	} else {
		asset.Duration = probe.Duration
		asset.Width = probe.Width
		asset.Height = probe.Height
		asset.FrameRate = probe.FrameRate
		asset.Codec = probe.Codec
	}

	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}

	if probe != nil && probe.Codec != "" {
		if _, err := s.EnqueueJob(ctx, JobTypeThumbnail, asset.ID, ""); err != nil {
			s.logger.Warn("failed to enqueue thumbnail job", "asset_id", asset.ID, "error", err)
		}
	}

	s.logger.Info("asset imported", "asset_id", asset.ID, "name", asset.Name, "duration", asset.Duration)
	return asset, nil
}

// ImportAll imports a batch of files, reporting per-file outcomes. One bad
// file does not abort the rest.
func (s *Service) ImportAll(ctx context.Context, paths []string) []ImportResult {
	results := make([]ImportResult, 0, len(paths))
	for _, path := range paths {
		asset, err := s.Import(ctx, path)
		result := ImportResult{Path: path, Asset: asset}
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}

// Remove deletes an asset and prunes every timeline clip referencing it.
func (s *Service) Remove(ctx context.Context, id string) error {
	asset, err := s.repo.GetAsset(ctx, id)
	if err != nil {
		return err
	}
	if asset == nil {
		return fmt.Errorf("asset not found")
	}

	if err := s.repo.DeleteAsset(ctx, id); err != nil {
		return err
	}

	removed := 0
	if s.pruner != nil {
		removed = s.pruner.RemoveClipsBySource(id)
	}

	s.logger.Info("asset removed", "asset_id", id, "clips_pruned", removed)
	return nil
}

func (s *Service) List(ctx context.Context) ([]*Asset, error) {
	return s.repo.ListAssets(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Asset, error) {
	return s.repo.GetAsset(ctx, id)
}

// SourceDuration implements the timeline's source resolver: trim and
// split operations cap out points at the underlying media duration.
func (s *Service) SourceDuration(id string) (float64, bool) {
	asset, err := s.repo.GetAsset(context.Background(), id)
	if err != nil || asset == nil {
		return 0, false
	}
	return asset.Duration, true
}

// AssetPath resolves an asset id to its absolute media path.
func (s *Service) AssetPath(id string) (string, bool) {
	asset, err := s.repo.GetAsset(context.Background(), id)
	if err != nil || asset == nil {
		return "", false
	}
	return asset.Path, true
}

// RefreshPresence re-stats every asset path and updates the present flag,
// so the UI can grey out assets on unplugged drives.
func (s *Service) RefreshPresence(ctx context.Context) error {
	assets, err := s.repo.ListAssets(ctx)
	if err != nil {
		return err
	}

	for _, asset := range assets {
		_, statErr := os.Stat(asset.Path)
		present := statErr == nil
		if present == asset.Present {
			continue
		}
		if err := s.repo.UpdateAssetPresent(ctx, asset.ID, present); err != nil {
			s.logger.Warn("failed to update asset presence", "asset_id", asset.ID, "error", err)
			continue
		}
		s.logger.Info("asset presence changed", "asset_id", asset.ID, "present", present)
	}
	return nil
}

// RestoreAssets upserts asset rows carried inside a project file, so a
// project opened on a fresh database still resolves its clip sources.
// Presence is re-checked from disk rather than trusted from the file.
func (s *Service) RestoreAssets(ctx context.Context, assets []*Asset) error {
	for _, asset := range assets {
		if asset == nil || asset.ID == "" {
			continue
		}
		existing, err := s.repo.GetAsset(ctx, asset.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		restored := *asset
		_, statErr := os.Stat(restored.Path)
		restored.Present = statErr == nil
		if err := s.repo.CreateAsset(ctx, &restored); err != nil {
			return err
		}
		s.logger.Info("asset restored from project", "asset_id", restored.ID, "present", restored.Present)
	}
	return nil
}

// EnqueueJob records a pending job for the runner to pick up.
func (s *Service) EnqueueJob(ctx context.Context, jobType, assetID, payload string) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      jobType,
		Status:    JobStatusPending,
		AssetID:   assetID,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	s.logger.Info("job enqueued", "job_id", job.ID, "type", jobType, "asset_id", assetID)
	return job, nil
}

// ThumbnailPath returns where the thumbnail for an asset lives.
func (s *Service) ThumbnailPath(assetID string) string {
	return filepath.Join(s.thumbsDir, assetID+".jpg")
}
