package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dwellwatch/internal/config"
	"dwellwatch/internal/dto"
	"dwellwatch/internal/logger"
	"dwellwatch/internal/service/session"
)

// SessionService is the part of the session manager the HTTP surface uses.
type SessionService interface {
	Submit(source, videoPath string) (session.Info, error)
	Get(id string) (session.Info, bool)
	List() []session.Info
	Cancel(id string) error
}

// CreateSessionHandler accepts a multipart video upload (field "video"),
// stores it in the upload directory and queues a processing session.
func CreateSessionHandler(sessions SessionService, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadMB<<20)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Video exceeds upload limit", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("video")
		if err != nil {
			http.Error(w, "Video file required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		source := strings.TrimSpace(r.FormValue("source"))
		if source == "" {
			source = header.Filename
		}
		if source == "" {
			http.Error(w, "Source name required", http.StatusBadRequest)
			return
		}

		videoPath, err := saveUpload(cfg.UploadDirectory, file)
		if err != nil {
			logger.Error("Failed to store upload %s: %v", header.Filename, err)
			http.Error(w, "Unable to store video", http.StatusInternalServerError)
			return
		}

		info, err := sessions.Submit(source, videoPath)
		if err != nil {
			os.Remove(videoPath)
			if errors.Is(err, session.ErrQueueFull) || errors.Is(err, session.ErrStopped) {
				logger.Warning("Rejected upload %s: %v", header.Filename, err)
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			logger.Error("Failed to queue session for %s: %v", header.Filename, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Queued session %s for %s (%d bytes)", info.ID, source, header.Size)
		writeJSON(w, http.StatusAccepted, dto.SessionCreated{
			ID:        info.ID,
			Source:    info.Source,
			VideoPath: info.VideoPath,
			StatusURL: "/api/sessions/" + info.ID,
		}, logger)
	}
}

// saveUpload copies the upload to <dir>/<uuid>.mp4.
func saveUpload(dir string, src io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	path := filepath.Join(dir, uuid.NewString()+".mp4")
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close upload file: %w", err)
	}
	return path, nil
}

// ListSessionsHandler returns every known session, newest first.
func ListSessionsHandler(sessions SessionService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessions.List(), logger)
	}
}

// GetSessionHandler returns the live status or terminal summary of one session.
func GetSessionHandler(sessions SessionService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, ok := sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, info, logger)
	}
}

// CancelSessionHandler aborts a queued or running session.
func CancelSessionHandler(sessions SessionService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		switch err := sessions.Cancel(id); {
		case err == nil:
			w.WriteHeader(http.StatusAccepted)
		case errors.Is(err, session.ErrNotFound):
			http.Error(w, "Session not found", http.StatusNotFound)
		case errors.Is(err, session.ErrNotRunning):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			logger.Error("Failed to cancel session %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}
