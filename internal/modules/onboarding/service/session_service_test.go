package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"poolintake/internal/modules/onboarding/domain"
	"poolintake/internal/modules/onboarding/service"
	apperrors "poolintake/internal/platform/errors"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

type seqID struct{ n int }

func (s *seqID) New() string {
	s.n++
	return fmt.Sprintf("ses-%d", s.n)
}

type fakeDraftStore struct {
	drafts  map[string]domain.Session
	puts    int
	failPut bool
	failGet bool
}

func newFakeDraftStore() *fakeDraftStore {
	return &fakeDraftStore{drafts: map[string]domain.Session{}}
}

func (f *fakeDraftStore) Get(_ context.Context, customerID string) (domain.Session, error) {
	if f.failGet {
		return domain.Session{}, fmt.Errorf("%w: disk on fire", apperrors.ErrPersistence)
	}
	s, ok := f.drafts[customerID]
	if !ok {
		return domain.Session{}, apperrors.ErrDraftNotFound
	}
	return s.Clone(), nil
}

func (f *fakeDraftStore) Put(_ context.Context, session domain.Session) error {
	if f.failPut {
		return fmt.Errorf("%w: disk on fire", apperrors.ErrPersistence)
	}
	f.puts++
	f.drafts[session.CustomerID] = session.Clone()
	return nil
}

func (f *fakeDraftStore) Delete(_ context.Context, customerID string) error {
	delete(f.drafts, customerID)
	return nil
}

func newManager(store *fakeDraftStore, opts domain.Options) *service.SessionManager {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return service.NewSessionManager(clk, &seqID{}, store, opts)
}

func TestInitializeCreatesAndPersistsNewSession(t *testing.T) {
	t.Parallel()
	store := newFakeDraftStore()
	mgr := newManager(store, domain.Options{})
	if err := mgr.Initialize(context.Background(), "c1", "Pat Waters"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	session, err := mgr.Session()
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if session.Status != domain.StatusDraft || session.ID == "" {
		t.Fatalf("unexpected new session: %+v", session)
	}
	if session.Photos == nil || len(session.Photos) != 0 {
		t.Fatalf("photos must start as an empty list")
	}
	if _, ok := store.drafts["c1"]; !ok {
		t.Fatalf("new session must be persisted immediately")
	}
	if mgr.CurrentStep() != 0 {
		t.Fatalf("new session must start at step 0, got %d", mgr.CurrentStep())
	}
}

func TestInitializeRequiresCustomerID(t *testing.T) {
	t.Parallel()
	mgr := newManager(newFakeDraftStore(), domain.Options{})
	err := mgr.Initialize(context.Background(), "", "")
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("got %v, want invalid input", err)
	}
}

func TestInitializeSurfacesStoreFailure(t *testing.T) {
	t.Parallel()
	store := newFakeDraftStore()
	store.failGet = true
	mgr := newManager(store, domain.Options{})
	err := mgr.Initialize(context.Background(), "c1", "Pat")
	if !errors.Is(err, apperrors.ErrPersistence) {
		t.Fatalf("got %v, want persistence error", err)
	}
}

func TestUpdatePersistsFullSnapshot(t *testing.T) {
	t.Parallel()
	store := newFakeDraftStore()
	mgr := newManager(store, domain.Options{})
	if err := mgr.Initialize(context.Background(), "c1", "Pat"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	info := domain.CustomerInfo{
		FirstName: "Pat", LastName: "Waters", Email: "p@example.com", Phone: "555",
		Street: "12 Lagoon Dr", City: "Clearwater", State: "FL", Zip: "33755",
	}
	if err := mgr.UpdateCustomerInfo(context.Background(), info); err != nil {
		t.Fatalf("update customer info: %v", err)
	}
	persisted := store.drafts["c1"]
	if persisted.CustomerInfo == nil || persisted.CustomerInfo.Email != "p@example.com" {
		t.Fatalf("snapshot not written through: %+v", persisted.CustomerInfo)
	}
}

func TestPersistFailureKeepsInMemoryMutationVisible(t *testing.T) {
	t.Parallel()
	store := newFakeDraftStore()
	mgr := newManager(store, domain.Options{})
	if err := mgr.Initialize(context.Background(), "c1", "Pat"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	store.failPut = true
	volume := 12000.0
	err := mgr.UpdatePoolDetails(context.Background(), domain.PoolDetailsPatch{VolumeGallons: &volume})
	if !errors.Is(err, apperrors.ErrPersistence) {
		t.Fatalf("got %v, want persistence error", err)
	}
	session, _ := mgr.Session()
	if session.PoolDetails == nil || session.PoolDetails.VolumeGallons != 12000 {
		t.Fatalf("in-memory mutation must stay visible for retry")
	}
}

func TestAdvanceGatedByValidator(t *testing.T) {
	t.Parallel()
	store := newFakeDraftStore()
	mgr := newManager(store, domain.Options{})
	if err := mgr.Initialize(context.Background(), "c1", "Pat"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if mgr.CanAdvance() {
		t.Fatalf("empty session must not pass step 0")
	}
	if err := mgr.Advance(); !errors.Is(err, domain.ErrStepIncomplete) {
		t.Fatalf("advance must be rejected, got %v", err)
	}
	info := domain.CustomerInfo{
		FirstName: "Pat", LastName: "Waters", Email: "p@example.com", Phone: "555",
		Street: "12 Lagoon Dr", City: "Clearwater", State: "FL", Zip: "33755",
	}
	if err := mgr.UpdateCustomerInfo(context.Background(), info); err != nil {
		t.Fatalf("update customer info: %v", err)
	}
	if !mgr.CanAdvance() {
		t.Fatalf("complete customer info must open the gate")
	}
	if err := mgr.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if mgr.CurrentStep() != 1 {
		t.Fatalf("cursor must move to 1, got %d", mgr.CurrentStep())
	}
}

func TestNavigationBounds(t *testing.T) {
	t.Parallel()
	mgr := newManager(newFakeDraftStore(), domain.Options{})
	if err := mgr.Initialize(context.Background(), "c1", "Pat"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := mgr.Retreat(); err != nil {
		t.Fatalf("retreat at step 0 must be a no-op, got %v", err)
	}
	if mgr.CurrentStep() != 0 {
		t.Fatalf("retreat at 0 must stay at 0")
	}
	if err := mgr.GoTo(domain.StepCount); !errors.Is(err, domain.ErrStepOutOfRange) {
		t.Fatalf("goto past last step must fail, got %v", err)
	}
	if err := mgr.GoTo(domain.StepVoiceNote); err != nil {
		t.Fatalf("goto: %v", err)
	}
	if mgr.CurrentStep() != domain.StepVoiceNote {
		t.Fatalf("goto must move the cursor")
	}
}

func TestResumeLandsOnFirstIncompleteStep(t *testing.T) {
	t.Parallel()
	store := newFakeDraftStore()
	draft := domain.NewSession("ses-9", "c2", "Sam Pools", time.Date(2026, 2, 28, 8, 0, 0, 0, time.UTC))
	draft.CustomerInfo = &domain.CustomerInfo{
		FirstName: "Sam", LastName: "Pools", Email: "s@example.com", Phone: "555",
		Street: "1 Reef Rd", City: "Tampa", State: "FL", Zip: "33601",
	}
	chlorine := 2.0
	chem := domain.DefaultWaterChemistry()
	chem.Chlorine = &chlorine
	draft.WaterChemistry = &chem
	store.drafts["c2"] = draft

	mgr := newManager(store, domain.Options{})
	if err := mgr.Initialize(context.Background(), "c2", "Sam Pools"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if mgr.CurrentStep() != domain.StepPoolDetails {
		t.Fatalf("resume must land on step 2, got %d", mgr.CurrentStep())
	}
	session, _ := mgr.Session()
	if session.ID != "ses-9" {
		t.Fatalf("resume must load the persisted draft, got %s", session.ID)
	}
}

func TestSaveAndExitMarksInProgressAndKeepsDraft(t *testing.T) {
	t.Parallel()
	store := newFakeDraftStore()
	mgr := newManager(store, domain.Options{})
	if err := mgr.Initialize(context.Background(), "c1", "Pat"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := mgr.SaveAndExit(context.Background()); err != nil {
		t.Fatalf("save and exit: %v", err)
	}
	persisted, ok := store.drafts["c1"]
	if !ok {
		t.Fatalf("draft must survive save-and-exit")
	}
	if persisted.Status != domain.StatusInProgress {
		t.Fatalf("status must be in_progress, got %s", persisted.Status)
	}
}

func TestVoiceNoteRejectedAtBoundary(t *testing.T) {
	t.Parallel()
	store := newFakeDraftStore()
	mgr := newManager(store, domain.Options{})
	if err := mgr.Initialize(context.Background(), "c1", "Pat"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	puts := store.puts
	err := mgr.SetVoiceNote(context.Background(), domain.VoiceNote{URI: "file:///n.m4a", DurationSeconds: 29})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
	if store.puts != puts {
		t.Fatalf("rejected voice note must not be persisted")
	}
	session, _ := mgr.Session()
	if session.VoiceNote != nil {
		t.Fatalf("rejected voice note must not be recorded")
	}
}

func TestOperationsWithoutActiveSession(t *testing.T) {
	t.Parallel()
	mgr := newManager(newFakeDraftStore(), domain.Options{})
	if _, err := mgr.Session(); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("session without initialize must fail loudly")
	}
	if mgr.CanAdvance() {
		t.Fatalf("derived state must be false, never panic")
	}
	err := mgr.AddPhoto(context.Background(), domain.MediaRef{URI: "file:///p.jpg"})
	if !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("mutations without a session must fail, got %v", err)
	}
}
