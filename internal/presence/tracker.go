// Package presence keeps the per-session record of when each identity was
// first and last seen.
package presence

import (
	"time"

	"dwellwatch/internal/model"
)

// Entry is one row of a tracker snapshot.
type Entry struct {
	ID        model.IdentityID
	FirstSeen time.Duration
	LastSeen  time.Duration
	Duration  time.Duration
}

// Tracker maps identities to their first/last observation within one session.
// A Tracker belongs to a single session pipeline and is not safe for
// concurrent use.
type Tracker struct {
	identities map[model.IdentityID]*model.TrackedIdentity
	order      []model.IdentityID
	flagged    map[model.IdentityID]struct{}
	reentryGap time.Duration
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithReentryGap makes an identity that was absent for longer than gap start a
// new visit on re-appearance. Zero keeps every re-appearance a continuation.
func WithReentryGap(gap time.Duration) Option {
	return func(t *Tracker) {
		if gap > 0 {
			t.reentryGap = gap
		}
	}
}

// New creates an empty tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		identities: make(map[model.IdentityID]*model.TrackedIdentity),
		flagged:    make(map[model.IdentityID]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Observe records that id was seen at ts. Callers pass non-decreasing
// timestamps per session.
func (t *Tracker) Observe(id model.IdentityID, ts time.Duration) {
	identity, ok := t.identities[id]
	if !ok {
		t.identities[id] = &model.TrackedIdentity{ID: id, FirstSeen: ts, LastSeen: ts, Visits: 1}
		t.order = append(t.order, id)
		return
	}

	if t.reentryGap > 0 && ts-identity.LastSeen > t.reentryGap {
		identity.FirstSeen = ts
		identity.Visits++
		delete(t.flagged, id)
	}
	identity.LastSeen = ts
}

// Duration returns last_seen - first_seen, false when id was never observed.
func (t *Tracker) Duration(id model.IdentityID) (time.Duration, bool) {
	identity, ok := t.identities[id]
	if !ok {
		return 0, false
	}
	return identity.Duration(), true
}

// Get returns a copy of the tracked identity.
func (t *Tracker) Get(id model.IdentityID) (model.TrackedIdentity, bool) {
	identity, ok := t.identities[id]
	if !ok {
		return model.TrackedIdentity{}, false
	}
	return *identity, true
}

// Snapshot lists every identity in order of first observation.
func (t *Tracker) Snapshot() []Entry {
	entries := make([]Entry, 0, len(t.order))
	for _, id := range t.order {
		identity := t.identities[id]
		entries = append(entries, Entry{
			ID:        id,
			FirstSeen: identity.FirstSeen,
			LastSeen:  identity.LastSeen,
			Duration:  identity.Duration(),
		})
	}
	return entries
}

// Len is the number of distinct identities seen in the session.
func (t *Tracker) Len() int {
	return len(t.order)
}

// MarkFlagged records that a violation for id has been persisted in its
// current visit. Used by the fire-once policy.
func (t *Tracker) MarkFlagged(id model.IdentityID) {
	if _, ok := t.identities[id]; ok {
		t.flagged[id] = struct{}{}
	}
}

// Flagged reports whether MarkFlagged was called for the current visit of id.
func (t *Tracker) Flagged(id model.IdentityID) bool {
	_, ok := t.flagged[id]
	return ok
}
