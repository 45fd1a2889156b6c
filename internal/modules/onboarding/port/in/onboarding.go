package in

import (
	"context"

	"poolintake/internal/modules/onboarding/dto"
)

// Usecase is the session manager surface consumed by the screen/navigation
// layer. Mutating operations persist the full snapshot before returning and
// are not safe for concurrent invocation on the same session; callers
// serialize them.
type Usecase interface {
	Initialize(ctx context.Context, input dto.InitializeInput) (dto.StateOutput, error)
	State(ctx context.Context) (dto.StateOutput, error)

	UpdateCustomerInfo(ctx context.Context, input dto.CustomerInfoInput) (dto.StateOutput, error)
	UpdateWaterChemistry(ctx context.Context, input dto.WaterChemistryInput) (dto.StateOutput, error)
	UpdatePoolDetails(ctx context.Context, input dto.PoolDetailsInput) (dto.StateOutput, error)
	UpdateEquipment(ctx context.Context, input dto.EquipmentInput) (dto.StateOutput, error)
	AddPhoto(ctx context.Context, input dto.AddPhotoInput) (dto.StateOutput, error)
	SetVoiceNote(ctx context.Context, input dto.VoiceNoteInput) (dto.StateOutput, error)

	Advance(ctx context.Context) (dto.StateOutput, error)
	Retreat(ctx context.Context) (dto.StateOutput, error)
	GoTo(ctx context.Context, step int) (dto.StateOutput, error)

	SaveAndExit(ctx context.Context) (dto.StateOutput, error)
	Complete(ctx context.Context) (dto.CompleteOutput, error)
}
