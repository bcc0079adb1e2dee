package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cutroom/cutroom-agent/internal/export"
	"github.com/cutroom/cutroom-agent/internal/project"
)

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paths, err := cfg.Projects.List(cfg.ProjectsDir)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, ProjectListResponse{Projects: paths})
	}
}

func saveProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProjectSaveRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		name := export.SanitizeName(req.Name, export.MaxNameLength)
		if name == "" {
			WriteError(w, http.StatusBadRequest, "project name is empty after sanitisation", "BAD_REQUEST")
			return
		}
		if !strings.HasSuffix(name, ".json") {
			name += ".json"
		}

		assets, err := cfg.Library.List(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		path := filepath.Join(cfg.ProjectsDir, name)
		file := &project.File{
			Name:     req.Name,
			Timeline: cfg.Timeline.Snapshot(),
			Assets:   assets,
		}
		if err := cfg.Projects.Save(path, file); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, ProjectSaveResponse{Path: path})
	}
}

func openProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProjectOpenRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		file, err := cfg.Projects.Load(req.Path)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}

		if err := cfg.Library.RestoreAssets(r.Context(), file.Assets); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		cfg.Timeline.Restore(file.Timeline)
		WriteJSON(w, http.StatusOK, cfg.Timeline.Snapshot())
	}
}
