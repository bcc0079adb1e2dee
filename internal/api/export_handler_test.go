package api

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cutroom/cutroom-agent/internal/export"
	"github.com/cutroom/cutroom-agent/internal/library"
)

func TestExportEDL(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t, "clip.mp4", 10)
	env.addClip(t, asset, nil)

	outDir := t.TempDir()
	rec := env.do(t, http.MethodPost, "/export/edl", export.ExportRequest{
		ProjectName: "My Cut",
		FrameRate:   30,
		OutputDir:   outDir,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp export.ExportResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want %q", resp.Status, "ok")
	}
	if resp.ClipCount != 1 {
		t.Errorf("clip_count = %d, want 1", resp.ClipCount)
	}
	if resp.OutputPath != filepath.Join(outDir, "My Cut.edl") {
		t.Errorf("output_path = %q", resp.OutputPath)
	}

	data, err := os.ReadFile(resp.OutputPath)
	if err != nil {
		t.Fatalf("failed to read EDL: %v", err)
	}
	if !strings.Contains(string(data), "TITLE: My Cut") {
		t.Errorf("EDL missing title: %q", string(data))
	}
	if !strings.Contains(string(data), asset.Path) {
		t.Errorf("EDL missing media path")
	}
}

func TestExportEDL_BlankNameFallsBack(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t, "clip.mp4", 10)
	env.addClip(t, asset, nil)

	outDir := t.TempDir()
	rec := env.do(t, http.MethodPost, "/export/edl", export.ExportRequest{
		ProjectName: "   ",
		OutputDir:   outDir,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp export.ExportResponse
	decodeBody(t, rec, &resp)
	want := filepath.Join(outDir, export.DefaultExportName+".edl")
	if resp.OutputPath != want {
		t.Errorf("output_path = %q, want %q", resp.OutputPath, want)
	}
}

func TestExportEDL_EmptyTimeline(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/export/edl", export.ExportRequest{
		ProjectName: "Empty",
		OutputDir:   t.TempDir(),
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestExportEDL_BadOutputDir(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t, "clip.mp4", 10)
	env.addClip(t, asset, nil)

	rec := env.do(t, http.MethodPost, "/export/edl", export.ExportRequest{
		ProjectName: "Cut",
		OutputDir:   filepath.Join(t.TempDir(), "missing"),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestExportEDL_ReportsUnresolved(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t, "clip.mp4", 10)
	env.addClip(t, asset, nil)
	orphan := env.importAsset(t, "gone.mp4", 4)
	orphanClip := env.addClip(t, orphan, floatPtr(12))

	// Deleting through the repository leaves the clip on the timeline.
	if err := env.repo.DeleteAsset(context.Background(), orphan.ID); err != nil {
		t.Fatalf("failed to delete asset: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/export/edl", export.ExportRequest{
		ProjectName: "Cut",
		FrameRate:   30,
		OutputDir:   t.TempDir(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp export.ExportResponse
	decodeBody(t, rec, &resp)
	if resp.ClipCount != 1 {
		t.Errorf("clip_count = %d, want 1", resp.ClipCount)
	}
	if len(resp.UnresolvedClips) != 1 || resp.UnresolvedClips[0] != orphanClip.ID {
		t.Errorf("unresolved_clips = %v, want [%s]", resp.UnresolvedClips, orphanClip.ID)
	}
}

func TestExportRender_QueuesJob(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t, "clip.mp4", 10)
	env.addClip(t, asset, nil)

	outPath := filepath.Join(t.TempDir(), "final.mp4")
	rec := env.do(t, http.MethodPost, "/export", RenderRequest{OutputPath: outPath})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	var resp JobQueuedResponse
	decodeBody(t, rec, &resp)

	job, err := env.repo.GetJob(context.Background(), resp.JobID)
	if err != nil || job == nil {
		t.Fatalf("queued job not found: %v", err)
	}
	if job.Type != library.JobTypeRender {
		t.Errorf("type = %q, want %q", job.Type, library.JobTypeRender)
	}
	if !strings.Contains(job.Payload, outPath) {
		t.Errorf("payload = %q, want output path inside", job.Payload)
	}
}

func TestExportRender_EmptyTimeline(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/export", RenderRequest{
		OutputPath: filepath.Join(t.TempDir(), "final.mp4"),
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestExportRender_BadDestination(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t, "clip.mp4", 10)
	env.addClip(t, asset, nil)

	rec := env.do(t, http.MethodPost, "/export", RenderRequest{
		OutputPath: filepath.Join(t.TempDir(), "missing", "final.mp4"),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
