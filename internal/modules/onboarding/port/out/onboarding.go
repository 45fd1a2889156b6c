package out

import (
	"context"
	"time"

	"poolintake/internal/modules/onboarding/domain"
)

// DraftStore persists full session snapshots keyed by customer id. Get must
// return apperrors.ErrDraftNotFound when no draft exists, distinct from an
// actual read failure; all failures wrap apperrors.ErrPersistence.
type DraftStore interface {
	Get(ctx context.Context, customerID string) (domain.Session, error)
	Put(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, customerID string) error
}

// OnboardingAPI is the remote onboarding service consumed during completion.
// Upload calls return the durable remote URI of the stored asset. Failures
// wrap apperrors.ErrTransport, or apperrors.ErrTimeout when the bounded call
// ran out of time.
type OnboardingAPI interface {
	UploadVoiceNote(ctx context.Context, sessionID string, note domain.VoiceNote) (string, error)
	UploadPhoto(ctx context.Context, sessionID string, photo domain.MediaRef) (string, error)
	CompleteSession(ctx context.Context, sessionID string, completedAt time.Time) error
}
