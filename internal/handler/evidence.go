package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dwellwatch/internal/logger"
	"dwellwatch/internal/model"
	"dwellwatch/internal/repository"
)

// EvidenceReader resolves a stored snapshot from its reference.
type EvidenceReader interface {
	Get(ctx context.Context, ref string) (*model.Evidence, error)
}

// ViewEvidenceHandler streams the snapshot stored under {ref}.
func ViewEvidenceHandler(store EvidenceReader, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := chi.URLParam(r, "ref")
		if ref == "" {
			http.Error(w, "Evidence reference is required", http.StatusBadRequest)
			return
		}

		evidence, err := store.Get(r.Context(), ref)
		if err != nil {
			if repository.Kind(err) != repository.ErrNotFound {
				logger.Error("Failed to read evidence %s: %v", ref, err)
			}
			writeStorageError(w, err)
			return
		}

		w.Header().Set("Content-Type", evidence.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(evidence.Image)))
		w.Header().Set("X-Identity-Id", evidence.IdentityID.String())
		w.Header().Set("X-Frame-Index", strconv.Itoa(evidence.FrameIndex))
		w.Header().Set("Cache-Control", "private, max-age=86400")
		if _, err := w.Write(evidence.Image); err != nil {
			logger.Warning("Failed to stream evidence %s: %v", ref, err)
		}
	}
}
