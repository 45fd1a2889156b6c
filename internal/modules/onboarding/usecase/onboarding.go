package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"poolintake/internal/modules/onboarding/domain"
	"poolintake/internal/modules/onboarding/dto"
	onboardingin "poolintake/internal/modules/onboarding/port/in"
	onboardingout "poolintake/internal/modules/onboarding/port/out"
	"poolintake/internal/modules/onboarding/service"
	"poolintake/internal/platform/clock"
	apperrors "poolintake/internal/platform/errors"
)

const photoUploadParallelism = 3

type Interactor struct {
	manager *service.SessionManager
	api     onboardingout.OnboardingAPI
	clock   clock.Clock
}

func NewInteractor(manager *service.SessionManager, api onboardingout.OnboardingAPI, clk clock.Clock) onboardingin.Usecase {
	return &Interactor{manager: manager, api: api, clock: clk}
}

func (i *Interactor) Initialize(ctx context.Context, input dto.InitializeInput) (dto.StateOutput, error) {
	if err := i.manager.Initialize(ctx, input.CustomerID, input.CustomerName); err != nil {
		return dto.StateOutput{}, err
	}
	return i.state()
}

func (i *Interactor) State(context.Context) (dto.StateOutput, error) {
	return i.state()
}

func (i *Interactor) state() (dto.StateOutput, error) {
	session, err := i.manager.Session()
	if err != nil {
		return dto.StateOutput{}, err
	}
	out := dto.StateOutput{
		Session:    session,
		Step:       i.manager.CurrentStep(),
		CanAdvance: i.manager.CanAdvance(),
	}
	for step := 0; step < domain.StepCount; step++ {
		out.StepsComplete[step] = i.manager.StepComplete(step)
	}
	return out, nil
}

func (i *Interactor) UpdateCustomerInfo(ctx context.Context, input dto.CustomerInfoInput) (dto.StateOutput, error) {
	info := domain.CustomerInfo(input)
	if err := i.manager.UpdateCustomerInfo(ctx, info); err != nil {
		return dto.StateOutput{}, err
	}
	return i.state()
}

func (i *Interactor) UpdateWaterChemistry(ctx context.Context, input dto.WaterChemistryInput) (dto.StateOutput, error) {
	chem := domain.DefaultWaterChemistry()
	chem.Chlorine = input.Chlorine
	if input.PH != nil {
		chem.PH = input.PH
	}
	if input.Alkalinity != nil {
		chem.Alkalinity = input.Alkalinity
	}
	if input.CyanuricAcid != nil {
		chem.CyanuricAcid = input.CyanuricAcid
	}
	chem.Extras = input.Extras
	if err := i.manager.UpdateWaterChemistry(ctx, chem); err != nil {
		return dto.StateOutput{}, err
	}
	return i.state()
}

func (i *Interactor) UpdatePoolDetails(ctx context.Context, input dto.PoolDetailsInput) (dto.StateOutput, error) {
	patch := domain.PoolDetailsPatch{
		Type:          input.Type,
		Shape:         input.Shape,
		LengthFt:      input.LengthFt,
		WidthFt:       input.WidthFt,
		AvgDepthFt:    input.AvgDepthFt,
		VolumeGallons: input.VolumeGallons,
		Surface:       input.Surface,
		Environment:   input.Environment,
		Features:      input.Features,
		Extras:        input.Extras,
	}
	if err := i.manager.UpdatePoolDetails(ctx, patch); err != nil {
		return dto.StateOutput{}, err
	}
	return i.state()
}

func (i *Interactor) UpdateEquipment(ctx context.Context, input dto.EquipmentInput) (dto.StateOutput, error) {
	patch := domain.EquipmentPatch{
		Pump:      input.Pump,
		Filter:    input.Filter,
		Sanitizer: input.Sanitizer,
		Heater:    input.Heater,
		Timer:     input.Timer,
		Valves:    input.Valves,
		Pad:       input.Pad,
	}
	for _, photo := range input.AddPhotos {
		patch.AddPhotos = append(patch.AddPhotos, domain.MediaRef{URI: photo.URI, CapturedAt: photo.CapturedAt})
	}
	if err := i.manager.UpdateEquipment(ctx, patch); err != nil {
		return dto.StateOutput{}, err
	}
	return i.state()
}

func (i *Interactor) AddPhoto(ctx context.Context, input dto.AddPhotoInput) (dto.StateOutput, error) {
	captured := input.CapturedAt
	if captured.IsZero() {
		captured = i.clock.Now()
	}
	if err := i.manager.AddPhoto(ctx, domain.MediaRef{URI: input.URI, CapturedAt: captured}); err != nil {
		return dto.StateOutput{}, err
	}
	return i.state()
}

func (i *Interactor) SetVoiceNote(ctx context.Context, input dto.VoiceNoteInput) (dto.StateOutput, error) {
	note := domain.VoiceNote{URI: input.URI, DurationSeconds: input.DurationSeconds, Transcription: input.Transcription}
	if err := i.manager.SetVoiceNote(ctx, note); err != nil {
		return dto.StateOutput{}, err
	}
	return i.state()
}

func (i *Interactor) Advance(context.Context) (dto.StateOutput, error) {
	if err := i.manager.Advance(); err != nil {
		return dto.StateOutput{}, err
	}
	return i.state()
}

func (i *Interactor) Retreat(context.Context) (dto.StateOutput, error) {
	if err := i.manager.Retreat(); err != nil {
		return dto.StateOutput{}, err
	}
	return i.state()
}

func (i *Interactor) GoTo(_ context.Context, step int) (dto.StateOutput, error) {
	if err := i.manager.GoTo(step); err != nil {
		return dto.StateOutput{}, err
	}
	return i.state()
}

func (i *Interactor) SaveAndExit(ctx context.Context) (dto.StateOutput, error) {
	if err := i.manager.SaveAndExit(ctx); err != nil {
		return dto.StateOutput{}, err
	}
	return i.state()
}

// Complete runs the completion protocol:
//
//  1. validate the voice note locally; no network call on failure
//  2. upload the voice note when its reference is still local, persisting the
//     remote URI so a retried completion skips the upload
//  3. optionally sync pending local photos, a bounded batch at a time
//  4. finalize remotely; only then remove the local draft
//
// Every failure leaves the draft in place and Complete re-callable without
// re-collecting anything.
func (i *Interactor) Complete(ctx context.Context) (dto.CompleteOutput, error) {
	session, err := i.manager.Session()
	if err != nil {
		return dto.CompleteOutput{}, err
	}
	if session.VoiceNote == nil {
		return dto.CompleteOutput{}, fmt.Errorf("%w: %s", apperrors.ErrValidation, domain.ErrVoiceNoteMissing)
	}
	if err := session.VoiceNote.Validate(); err != nil {
		return dto.CompleteOutput{}, fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}

	if !session.VoiceNote.Remote() {
		remoteURI, err := i.api.UploadVoiceNote(ctx, session.ID, *session.VoiceNote)
		if err != nil {
			return dto.CompleteOutput{}, fmt.Errorf("upload voice note: %w", err)
		}
		if err := i.manager.AttachRemoteVoiceNote(ctx, remoteURI); err != nil {
			return dto.CompleteOutput{}, err
		}
	}

	if i.manager.Options().UploadPhotos {
		if err := i.uploadPendingPhotos(ctx, session); err != nil {
			return dto.CompleteOutput{}, err
		}
	}

	completedAt := i.clock.Now()
	if err := i.api.CompleteSession(ctx, session.ID, completedAt); err != nil {
		return dto.CompleteOutput{}, fmt.Errorf("finalize session: %w", err)
	}

	finished, err := i.manager.Finalize(ctx, completedAt)
	if err != nil {
		return dto.CompleteOutput{}, err
	}
	return dto.CompleteOutput{SessionID: finished.ID, CustomerID: finished.CustomerID, CompletedAt: completedAt}, nil
}

func (i *Interactor) uploadPendingPhotos(ctx context.Context, session domain.Session) error {
	pending := make([]int, 0, len(session.Photos))
	for idx, photo := range session.Photos {
		if !photo.Remote() {
			pending = append(pending, idx)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	remoteURIs := make([]string, len(pending))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(photoUploadParallelism)
	for slot, idx := range pending {
		group.Go(func() error {
			uri, err := i.api.UploadPhoto(groupCtx, session.ID, session.Photos[idx])
			if err != nil {
				return fmt.Errorf("upload photo %d: %w", idx, err)
			}
			remoteURIs[slot] = uri
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	// Persist sequentially; the manager is not safe for concurrent mutation.
	for slot, idx := range pending {
		if err := i.manager.AttachRemotePhoto(ctx, idx, remoteURIs[slot]); err != nil {
			return err
		}
	}
	return nil
}
