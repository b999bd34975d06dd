package handler

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dwellwatch/internal/dto"
	"dwellwatch/internal/logger"
	"dwellwatch/internal/repository"
)

const maxPageSize = 200

// GetViolationsHandler returns a filtered, paginated page of the audit log.
// Query parameters: source, identity, dateAfter, dateBefore (2006-01-02),
// page and limit.
func GetViolationsHandler(audit repository.AuditRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)
		if limit > maxPageSize {
			limit = maxPageSize
		}
		if page > math.MaxInt32/limit {
			http.Error(w, "Page out of range", http.StatusBadRequest)
			return
		}

		filter := &dto.ViolationFilter{
			Source: q.Get("source"),
			After:  parseDate(q.Get("dateAfter")),
			Limit:  limit,
			Offset: (page - 1) * limit,
		}
		if before := parseDate(q.Get("dateBefore")); !before.IsZero() {
			// inclusive of the whole day
			filter.Before = before.Add(24*time.Hour - time.Nanosecond)
		}
		if v := q.Get("identity"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id < 0 {
				http.Error(w, "Invalid identity", http.StatusBadRequest)
				return
			}
			filter.IdentityID = &id
		}

		records, err := audit.List(r.Context(), filter)
		if err != nil {
			logger.Error("Error querying audit log: %v", err)
			writeStorageError(w, err)
			return
		}
		total, err := audit.Count(r.Context(), filter)
		if err != nil {
			logger.Error("Error counting audit records: %v", err)
			total = filter.Offset + len(records)
		}

		violations := make([]dto.ViolationInfo, 0, len(records))
		for _, rec := range records {
			violations = append(violations, dto.ViolationInfo{
				ID:           rec.ID,
				IdentityID:   int64(rec.IdentityID),
				Source:       rec.Source,
				SessionStart: rec.SessionStart,
				SessionEnd:   rec.SessionEnd,
				DwellSeconds: rec.SessionEnd.Sub(rec.SessionStart).Seconds(),
				EvidenceRef:  rec.EvidenceRef,
				EvidenceURL:  "/api/evidence/" + url.PathEscape(rec.EvidenceRef),
			})
		}

		writeJSON(w, http.StatusOK, dto.ViolationsData{
			Violations:  violations,
			Length:      total,
			TotalPages:  (total + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}, logger)
	}
}

// writeStorageError maps the storage error taxonomy onto HTTP statuses.
func writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrStorageUnavailable):
		http.Error(w, "Storage unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, repository.ErrConstraintViolation):
		http.Error(w, "Invalid request", http.StatusBadRequest)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date in the HTML input format "2006-01-02" as UTC midnight.
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
