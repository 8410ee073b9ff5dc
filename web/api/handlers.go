package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/datenai/datalab/internal/dataset"
	"github.com/datenai/datalab/internal/domain"
	"github.com/datenai/datalab/internal/engine"
	"github.com/datenai/datalab/internal/resultstore"
	"github.com/datenai/datalab/internal/suggest"
)

// maxUploadBytes bounds dataset uploads
const maxUploadBytes = 100 << 20

// uploadHandler ingests a CSV dataset and returns its ID and schema
func (s *Server) uploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()

		frame, err := dataset.ReadCSV(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("parsing dataset: %v", err))
			return
		}

		fileID := s.datasets.Put(frame, header.Filename)
		s.log.Info("dataset uploaded", "file_id", fileID, "filename", header.Filename,
			"rows", len(frame.Rows), "columns", len(frame.Columns))

		writeJSON(w, map[string]any{
			"file_id":        fileID,
			"filename":       header.Filename,
			"dataset_schema": frame.Schema(),
			"message":        "Dataset uploaded successfully",
		})
	}
}

// suggestRequest is the body of POST /api/suggest
type suggestRequest struct {
	FileID   string `json:"file_id"`
	UserGoal string `json:"user_goal"`
	Path     string `json:"path"`
}

// suggestHandler proposes analysis tasks for an uploaded dataset
func (s *Server) suggestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req suggestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.FileID == "" {
			writeError(w, http.StatusBadRequest, "file_id is required")
			return
		}
		if req.Path != "" && req.Path != suggest.PathAnalysis && req.Path != suggest.PathDataScience {
			writeError(w, http.StatusBadRequest, "path must be analysis or datascience")
			return
		}

		frame, ok := s.datasets.Get(req.FileID)
		if !ok {
			writeError(w, http.StatusNotFound, "dataset not found")
			return
		}

		resp := s.suggester.Suggest(r.Context(), suggest.Request{
			Schema: frame.Schema(),
			Goal:   req.UserGoal,
			Path:   req.Path,
		})
		s.log.Info("suggestions served", "file_id", req.FileID,
			"path", req.Path, "count", len(resp.Suggestions))
		writeJSON(w, resp)
	}
}

// runRequest is the body of POST /api/run
type runRequest struct {
	FileID     string         `json:"file_id"`
	TaskID     string         `json:"task_id"`
	TaskTitle  string         `json:"task_title"`
	Parameters map[string]any `json:"parameters"`
}

// runHandler starts a new execution
func (s *Server) runHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.FileID == "" || req.TaskID == "" {
			writeError(w, http.StatusBadRequest, "file_id and task_id are required")
			return
		}

		executionID, err := s.engine.Start(engine.StartRequest{
			DatasetID: req.FileID,
			Task: domain.TaskDescriptor{
				ID:         req.TaskID,
				Title:      req.TaskTitle,
				Parameters: req.Parameters,
			},
		})
		if errors.Is(err, engine.ErrDatasetNotFound) {
			writeError(w, http.StatusNotFound, "dataset not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("starting execution: %v", err))
			return
		}

		writeJSON(w, map[string]any{
			"task_execution_id": executionID,
			"status":            "queued",
			"message":           "Task queued for execution",
		})
	}
}

// cancelHandler requests cooperative cancellation. Unknown or finished
// executions get a non-error acknowledgement, never a fault.
func (s *Server) cancelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if s.engine.Cancel(id) {
			writeJSON(w, map[string]any{
				"message":           "Task cancelled successfully",
				"task_execution_id": id,
			})
			return
		}
		writeJSON(w, map[string]any{
			"message":           "Task not found or already completed",
			"task_execution_id": id,
		})
	}
}

// statusHandler reports how many executions are in flight
func (s *Server) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active := s.engine.ActiveCount()
		writeJSON(w, map[string]any{
			"active_tasks": active,
			"message":      fmt.Sprintf("Currently processing %d task(s)", active),
		})
	}
}

// resultHandler returns a stored execution result
func (s *Server) resultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		result, err := s.results.Get(id)
		if errors.Is(err, resultstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "result not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("loading result: %v", err))
			return
		}
		writeJSON(w, result)
	}
}

// healthHandler reports system statistics. A failing result store degrades
// the reported status instead of hiding behind a zero count.
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		resultCount, err := s.results.Count()
		if err != nil {
			status = "degraded"
			s.log.Error("counting stored results", "error", err)
		}
		writeJSON(w, map[string]any{
			"status": status,
			"system": map[string]any{
				"datasets":  map[string]any{"count": s.datasets.Count()},
				"results":   map[string]any{"count": resultCount},
				"streaming": s.bus.GetStats(),
				"execution": map[string]any{"active_tasks": s.engine.ActiveCount()},
			},
		})
	}
}
