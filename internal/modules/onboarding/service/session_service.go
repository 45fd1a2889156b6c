package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"poolintake/internal/modules/onboarding/domain"
	onboardingout "poolintake/internal/modules/onboarding/port/out"
	"poolintake/internal/platform/clock"
	apperrors "poolintake/internal/platform/errors"
	"poolintake/internal/platform/id"
)

// SessionManager owns the in-memory session snapshot and the current-step
// cursor. Every mutation writes the full snapshot through to the draft store
// before returning; on persistence failure the in-memory change stays visible
// and the error is surfaced so the caller can retry.
//
// Not safe for concurrent mutation of one session. The screen layer drives
// one interaction at a time and must await each call.
type SessionManager struct {
	clock clock.Clock
	idGen id.Generator
	store onboardingout.DraftStore
	opts  domain.Options

	session *domain.Session
	step    int
}

func NewSessionManager(clk clock.Clock, idGen id.Generator, store onboardingout.DraftStore, opts domain.Options) *SessionManager {
	return &SessionManager{clock: clk, idGen: idGen, store: store, opts: opts}
}

func (m *SessionManager) Options() domain.Options {
	return m.opts
}

// Initialize loads the draft for customerID, or creates and persists a fresh
// session when none exists. The cursor lands on the first step whose
// validator fails, which is where the technician left off.
func (m *SessionManager) Initialize(ctx context.Context, customerID, customerName string) error {
	if customerID == "" {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, domain.ErrCustomerIDRequired)
	}
	session, err := m.store.Get(ctx, customerID)
	switch {
	case err == nil:
	case isNotFound(err):
		session = domain.NewSession(m.idGen.New(), customerID, customerName, m.clock.Now())
		if err := m.store.Put(ctx, session); err != nil {
			return fmt.Errorf("persist new session: %w", err)
		}
	default:
		return fmt.Errorf("load draft: %w", err)
	}
	m.session = &session
	m.step = domain.FirstIncompleteStep(session, m.opts)
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrDraftNotFound)
}

// Session returns a deep copy of the active snapshot.
func (m *SessionManager) Session() (domain.Session, error) {
	if m.session == nil {
		return domain.Session{}, apperrors.ErrNoActiveSession
	}
	return m.session.Clone(), nil
}

func (m *SessionManager) CurrentStep() int {
	return m.step
}

// CanAdvance is derived state, recomputed on every call; it never goes stale
// and never fails.
func (m *SessionManager) CanAdvance() bool {
	if m.session == nil {
		return false
	}
	return domain.StepValid(m.step, *m.session, m.opts)
}

func (m *SessionManager) StepComplete(step int) bool {
	if m.session == nil {
		return false
	}
	return domain.StepValid(step, *m.session, m.opts)
}

// Advance moves the cursor forward only when the current step's validator
// passes. Navigation never bypasses the gate.
func (m *SessionManager) Advance() error {
	if m.session == nil {
		return apperrors.ErrNoActiveSession
	}
	if !m.CanAdvance() {
		return fmt.Errorf("%w: step %d", domain.ErrStepIncomplete, m.step)
	}
	if m.step < domain.LastStep {
		m.step++
	}
	return nil
}

func (m *SessionManager) Retreat() error {
	if m.session == nil {
		return apperrors.ErrNoActiveSession
	}
	if m.step > 0 {
		m.step--
	}
	return nil
}

func (m *SessionManager) GoTo(step int) error {
	if m.session == nil {
		return apperrors.ErrNoActiveSession
	}
	if step < 0 || step > domain.LastStep {
		return fmt.Errorf("%w: %d", domain.ErrStepOutOfRange, step)
	}
	m.step = step
	return nil
}

// mutate applies fn to the in-memory session, then persists the full
// snapshot. Partial in-memory updates without a matching persist are a bug,
// not an optimization.
func (m *SessionManager) mutate(ctx context.Context, fn func(*domain.Session)) error {
	if m.session == nil {
		return apperrors.ErrNoActiveSession
	}
	fn(m.session)
	if err := m.store.Put(ctx, m.session.Clone()); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// UpdateCustomerInfo replaces the contact record wholesale; its fields
// validate all-or-nothing.
func (m *SessionManager) UpdateCustomerInfo(ctx context.Context, info domain.CustomerInfo) error {
	return m.mutate(ctx, func(s *domain.Session) {
		s.CustomerInfo = &info
	})
}

// UpdateWaterChemistry replaces the chemistry record wholesale.
func (m *SessionManager) UpdateWaterChemistry(ctx context.Context, chem domain.WaterChemistry) error {
	if err := chem.ValidateExtras(); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}
	return m.mutate(ctx, func(s *domain.Session) {
		s.WaterChemistry = &chem
	})
}

// UpdatePoolDetails merges a partial patch; unspecified keys are preserved.
func (m *SessionManager) UpdatePoolDetails(ctx context.Context, patch domain.PoolDetailsPatch) error {
	if m.session == nil {
		return apperrors.ErrNoActiveSession
	}
	merged := domain.PoolDetails{}
	if m.session.PoolDetails != nil {
		merged = *m.session.PoolDetails
	}
	merged.Apply(patch)
	if err := merged.ValidateExtras(); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}
	return m.mutate(ctx, func(s *domain.Session) {
		s.PoolDetails = &merged
	})
}

// UpdateEquipment merges a partial patch; unspecified components are
// preserved and photos append.
func (m *SessionManager) UpdateEquipment(ctx context.Context, patch domain.EquipmentPatch) error {
	return m.mutate(ctx, func(s *domain.Session) {
		if s.Equipment == nil {
			s.Equipment = &domain.Equipment{}
		}
		s.Equipment.Apply(patch)
	})
}

// AddPhoto appends to the session photo list; entries are never reordered or
// removed during the session.
func (m *SessionManager) AddPhoto(ctx context.Context, photo domain.MediaRef) error {
	if photo.URI == "" {
		return fmt.Errorf("%w: photo uri is required", apperrors.ErrValidation)
	}
	return m.mutate(ctx, func(s *domain.Session) {
		s.Photos = append(s.Photos, photo)
	})
}

// SetVoiceNote records the mandatory voice note. Duration bounds are enforced
// here, at the boundary; out-of-range values are rejected, not clamped.
func (m *SessionManager) SetVoiceNote(ctx context.Context, note domain.VoiceNote) error {
	if err := note.Validate(); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}
	return m.mutate(ctx, func(s *domain.Session) {
		s.VoiceNote = &note
	})
}

// AttachRemoteVoiceNote swaps the voice-note reference for its durable remote
// URI after a successful upload, so a retried completion skips re-uploading.
func (m *SessionManager) AttachRemoteVoiceNote(ctx context.Context, uri string) error {
	if m.session == nil || m.session.VoiceNote == nil {
		return apperrors.ErrNoActiveSession
	}
	return m.mutate(ctx, func(s *domain.Session) {
		s.VoiceNote.URI = uri
	})
}

// AttachRemotePhoto swaps one photo reference for its remote URI.
func (m *SessionManager) AttachRemotePhoto(ctx context.Context, index int, uri string) error {
	if m.session == nil {
		return apperrors.ErrNoActiveSession
	}
	if index < 0 || index >= len(m.session.Photos) {
		return fmt.Errorf("%w: photo index %d", apperrors.ErrInvalidInput, index)
	}
	return m.mutate(ctx, func(s *domain.Session) {
		s.Photos[index].URI = uri
	})
}

// SaveAndExit marks the session resumable and persists it. The draft is kept.
func (m *SessionManager) SaveAndExit(ctx context.Context) error {
	if m.session == nil {
		return apperrors.ErrNoActiveSession
	}
	if !m.session.Status.CanTransitionTo(domain.StatusInProgress) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrStatusTransition, m.session.Status, domain.StatusInProgress)
	}
	return m.mutate(ctx, func(s *domain.Session) {
		if s.Status == domain.StatusDraft {
			s.Status = domain.StatusInProgress
		}
	})
}

// Finalize removes the local draft after the remote accepted the session and
// marks the in-memory snapshot completed. Called only by the completion
// protocol once the remote finalize has succeeded; from then on the session
// is owned server-side.
func (m *SessionManager) Finalize(ctx context.Context, completedAt time.Time) (domain.Session, error) {
	if m.session == nil {
		return domain.Session{}, apperrors.ErrNoActiveSession
	}
	if !m.session.Status.CanTransitionTo(domain.StatusCompleted) {
		return domain.Session{}, fmt.Errorf("%w: %s -> %s", domain.ErrStatusTransition, m.session.Status, domain.StatusCompleted)
	}
	if err := m.store.Delete(ctx, m.session.CustomerID); err != nil {
		return domain.Session{}, fmt.Errorf("remove completed draft: %w", err)
	}
	m.session.Status = domain.StatusCompleted
	m.session.CompletedAt = &completedAt
	return m.session.Clone(), nil
}
