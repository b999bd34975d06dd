package repository

import (
	"fmt"
	"time"

	"dwellwatch/internal/model"
)

// ValidateEvent rejects violation events that can never be stored. Every
// audit backend runs it before touching the database.
func ValidateEvent(event model.ViolationEvent) error {
	var problem string
	switch {
	case event.IdentityID < 0:
		problem = fmt.Sprintf("identity id must not be negative, got %d", event.IdentityID)
	case event.Source == "":
		problem = "source identifier is required"
	case event.EvidenceRef == "":
		problem = "evidence reference is required"
	case event.SessionStart.IsZero() || event.SessionEnd.IsZero():
		problem = "session start and end are required"
	case event.SessionEnd.Before(event.SessionStart):
		problem = fmt.Sprintf("session end %s precedes start %s",
			event.SessionEnd.Format(time.RFC3339), event.SessionStart.Format(time.RFC3339))
	default:
		return nil
	}
	return Wrap("validate violation", ErrConstraintViolation, fmt.Errorf("%s", problem))
}
