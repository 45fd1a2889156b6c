package out_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	out "poolintake/internal/modules/onboarding/adapter/out"
	"poolintake/internal/modules/onboarding/domain"
	apperrors "poolintake/internal/platform/errors"
)

func newStore(t *testing.T) *out.SQLiteDraftStore {
	t.Helper()
	store, err := out.NewSQLiteDraftStore(filepath.Join(t.TempDir(), ".poolintake", "drafts.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGetMissingDraftIsNotFound(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	_, err := store.Get(context.Background(), "nobody")
	if !errors.Is(err, apperrors.ErrDraftNotFound) {
		t.Fatalf("got %v, want draft-not-found", err)
	}
	if errors.Is(err, apperrors.ErrPersistence) {
		t.Fatalf("not-found must be distinct from a store failure")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()
	session := domain.NewSession("ses-1", "c1", "Pat Waters", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	chlorine := 3.0
	chem := domain.DefaultWaterChemistry()
	chem.Chlorine = &chlorine
	chem.Extras = map[string]float64{"salt": 3200}
	session.WaterChemistry = &chem
	session.VoiceNote = &domain.VoiceNote{URI: "file:///n.m4a", DurationSeconds: 45}
	session.Photos = append(session.Photos, domain.MediaRef{URI: "file:///p/1.jpg", CapturedAt: session.StartedAt})

	if err := store.Put(ctx, session); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "ses-1" || got.CustomerName != "Pat Waters" {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if got.WaterChemistry == nil || *got.WaterChemistry.Chlorine != 3 || got.WaterChemistry.Extras["salt"] != 3200 {
		t.Fatalf("chemistry lost in roundtrip: %+v", got.WaterChemistry)
	}
	if got.VoiceNote == nil || got.VoiceNote.DurationSeconds != 45 {
		t.Fatalf("voice note lost in roundtrip")
	}
	if len(got.Photos) != 1 || got.Photos[0].URI != "file:///p/1.jpg" {
		t.Fatalf("photos lost in roundtrip")
	}
}

func TestPutOverwritesExistingDraft(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()
	session := domain.NewSession("ses-1", "c1", "Pat", time.Now().UTC())
	if err := store.Put(ctx, session); err != nil {
		t.Fatalf("put: %v", err)
	}
	session.Status = domain.StatusInProgress
	if err := store.Put(ctx, session); err != nil {
		t.Fatalf("second put: %v", err)
	}
	got, err := store.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusInProgress {
		t.Fatalf("write-through must overwrite, got %s", got.Status)
	}
}

func TestDeleteRemovesDraft(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()
	if err := store.Put(ctx, domain.NewSession("ses-1", "c1", "Pat", time.Now().UTC())); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "c1"); !errors.Is(err, apperrors.ErrDraftNotFound) {
		t.Fatalf("draft must be gone, got %v", err)
	}
	// Deleting again is fine.
	if err := store.Delete(ctx, "c1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestListOrdersByRecency(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	ctx := context.Background()
	if err := store.Put(ctx, domain.NewSession("ses-1", "c1", "Pat", time.Now().UTC())); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, domain.NewSession("ses-2", "c2", "Sam", time.Now().UTC())); err != nil {
		t.Fatalf("put: %v", err)
	}
	drafts, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
}

func TestPutRejectsInvalidSession(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	err := store.Put(context.Background(), domain.Session{})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("empty session must be rejected, got %v", err)
	}
}
