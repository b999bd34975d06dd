package pipeline

import (
	"context"
	"errors"

	"dwellwatch/internal/model"
	"dwellwatch/internal/repository"
)

const (
	sinkEvidence = "evidence"
	sinkAudit    = "audit"
)

// persist writes each violating identity: evidence first, and the audit record
// only once the evidence reference is known. A failure affects that identity
// alone.
func (s *Session) persist(ctx context.Context, frame model.Frame, detections []model.Detection, ids []model.IdentityID) {
	for _, id := range ids {
		if err := s.persistOne(ctx, frame, detections, id); err != nil {
			s.result.PersistFailures++
			var perr *PersistError
			if errors.As(err, &perr) {
				s.deps.Metrics.IncrementSinkFailure(perr.Sink, repository.KindName(perr.Err))
			}
			s.logger.Warning("Session %s: %v", s.settings.ID, err)
			continue
		}
		s.result.ViolationsPersisted++
		s.deps.Metrics.IncrementViolationsPersisted()
	}
}

func (s *Session) persistOne(ctx context.Context, frame model.Frame, detections []model.Detection, id model.IdentityID) error {
	identity, _ := s.tracker.Get(id)

	ref, err := s.deps.Evidence.Put(ctx, model.EvidenceInput{
		Source:     s.settings.Source,
		IdentityID: id,
		Frame:      frame,
		Detections: detections,
	})
	if err == nil && ref == "" {
		err = errors.New("empty evidence reference")
	}
	if err != nil {
		return &PersistError{Sink: sinkEvidence, IdentityID: id, Frame: frame.Index, Kind: ErrEvidenceSinkFailure, Err: err}
	}

	event := model.ViolationEvent{
		IdentityID:   id,
		SessionStart: s.startedAt.Add(identity.FirstSeen),
		SessionEnd:   s.startedAt.Add(identity.LastSeen),
		Source:       s.settings.Source,
		EvidenceRef:  ref,
	}
	if err := s.deps.Audit.Append(ctx, event); err != nil {
		return &PersistError{Sink: sinkAudit, IdentityID: id, Frame: frame.Index, Kind: ErrAuditSinkFailure, Err: err}
	}

	s.tracker.MarkFlagged(id)
	return nil
}
