package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cutroom/cutroom-agent/internal/db"
	"github.com/cutroom/cutroom-agent/internal/library"
	"github.com/cutroom/cutroom-agent/internal/media"
	"github.com/cutroom/cutroom-agent/internal/preview"
	"github.com/cutroom/cutroom-agent/internal/project"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

const testToken = "test-token"

type testEnv struct {
	router   http.Handler
	cfg      ServerConfig
	repo     library.Repository
	library  *library.Service
	timeline *timeline.Controller
	stub     *media.StubToolchain
	dataDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	database, err := db.New(filepath.Join(dir, "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := library.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), "auth_token", testToken); err != nil {
		t.Fatalf("failed to store auth token: %v", err)
	}

	stub := media.NewStubToolchain(nil)
	svc := library.NewService(repo, stub, filepath.Join(dir, "thumbs"), nil)
	ctrl := timeline.NewController(svc, nil)
	svc.SetClipPruner(ctrl)

	cfg := ServerConfig{
		Port:        0,
		Version:     "test",
		DeviceID:    "device-1",
		StartTime:   time.Now(),
		ProjectsDir: filepath.Join(dir, "projects"),
		Timeline:    ctrl,
		Commands:    timeline.NewDispatcher(ctrl, nil),
		Library:     svc,
		Repository:  repo,
		Projects:    project.NewStore(nil),
		Preview:     preview.NewServer(logger),
		Tools:       ToolsResponse{FFmpeg: true, FFprobe: true},
		Logger:      logger,
	}

	return &testEnv{
		router:   NewRouter(cfg),
		cfg:      cfg,
		repo:     repo,
		library:  svc,
		timeline: ctrl,
		stub:     stub,
		dataDir:  dir,
	}
}

// do sends an authenticated request with an optional JSON body.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// importAsset writes a media file to disk and imports it with the given
// probed duration.
func (e *testEnv) importAsset(t *testing.T, name string, duration float64) *library.Asset {
	t.Helper()
	path := filepath.Join(e.dataDir, name)
	if err := os.WriteFile(path, []byte("media-bytes"), 0o644); err != nil {
		t.Fatalf("failed to write media file: %v", err)
	}
	e.stub.Durations[path] = duration

	asset, err := e.library.Import(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to import asset: %v", err)
	}
	return asset
}

func TestHealth_NoAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp HealthResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want %q", resp.Status, "ok")
	}
	if resp.Version != "test" {
		t.Errorf("version = %q, want %q", resp.Version, "test")
	}
	if resp.DeviceID != "device-1" {
		t.Errorf("device_id = %q, want %q", resp.DeviceID, "device-1")
	}
}

func TestStatus_Idle(t *testing.T) {
	env := newTestEnv(t)
	env.importAsset(t, "clip.mp4", 10)

	rec := env.do(t, http.MethodGet, "/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp StatusResponse
	decodeBody(t, rec, &resp)
	if resp.State != "idle" {
		t.Errorf("state = %q, want %q", resp.State, "idle")
	}
	if resp.AssetsCount != 1 {
		t.Errorf("assets_count = %d, want 1", resp.AssetsCount)
	}
	if resp.Tools == nil || !resp.Tools.FFmpeg {
		t.Errorf("tools.ffmpeg should be true")
	}
}

func TestStatus_FailedJobSurfacesError(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t, "clip.mp4", 10)

	job, err := env.library.EnqueueJob(context.Background(), library.JobTypeThumbnail, asset.ID, "")
	if err != nil {
		t.Fatalf("failed to enqueue job: %v", err)
	}
	if err := env.repo.UpdateJobStatus(context.Background(), job.ID, library.JobStatusFailed, "ffmpeg exploded"); err != nil {
		t.Fatalf("failed to fail job: %v", err)
	}

	var resp StatusResponse
	rec := env.do(t, http.MethodGet, "/status", nil)
	decodeBody(t, rec, &resp)

	if resp.State != "error" {
		t.Errorf("state = %q, want %q", resp.State, "error")
	}
	if resp.LastError != "ffmpeg exploded" {
		t.Errorf("last_error = %q, want %q", resp.LastError, "ffmpeg exploded")
	}
}

func TestJobs_ListAndGet(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t, "clip.mp4", 10)

	job, err := env.library.EnqueueJob(context.Background(), library.JobTypeDetectPauses, asset.ID, `{"min_duration":0.5}`)
	if err != nil {
		t.Fatalf("failed to enqueue job: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/jobs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", rec.Code, http.StatusOK)
	}
	var list JobsResponse
	decodeBody(t, rec, &list)
	if len(list.Jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(list.Jobs))
	}

	rec = env.do(t, http.MethodGet, "/jobs/"+job.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got JobResponse
	decodeBody(t, rec, &got)
	if got.Type != library.JobTypeDetectPauses {
		t.Errorf("type = %q, want %q", got.Type, library.JobTypeDetectPauses)
	}
	if got.Status != library.JobStatusPending {
		t.Errorf("status = %q, want %q", got.Status, library.JobStatusPending)
	}
}

func TestJobs_GetUnknown(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/jobs/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestPlayback_ServesMedia(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t, "clip.mp4", 10)

	rec := env.do(t, http.MethodGet, "/playback/file?asset_id="+asset.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "media-bytes" {
		t.Errorf("body = %q, want %q", got, "media-bytes")
	}
}

func TestPlayback_RangeRequest(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t, "clip.mp4", 10)

	req := httptest.NewRequest(http.MethodGet, "/playback/file?asset_id="+asset.ID, nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Range", "bytes=0-4")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusPartialContent)
	}
	if got := rec.Body.String(); got != "media" {
		t.Errorf("body = %q, want %q", got, "media")
	}
}

func TestPlayback_MissingParam(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/playback/file", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestPlayback_OfflineAsset(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t, "clip.mp4", 10)

	if err := os.Remove(asset.Path); err != nil {
		t.Fatalf("failed to remove media file: %v", err)
	}
	if err := env.library.RefreshPresence(context.Background()); err != nil {
		t.Fatalf("failed to refresh presence: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/playback/file?asset_id="+asset.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != "MEDIA_OFFLINE" {
		t.Errorf("code = %q, want %q", resp.Code, "MEDIA_OFFLINE")
	}
}
