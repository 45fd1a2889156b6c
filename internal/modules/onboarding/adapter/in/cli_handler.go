package in

import (
	"context"

	"poolintake/internal/modules/onboarding/dto"
	onboardingin "poolintake/internal/modules/onboarding/port/in"
)

// CLIHandler is the thin facade the cobra commands and the TUI call into.
type CLIHandler struct {
	usecase onboardingin.Usecase
}

func NewCLIHandler(usecase onboardingin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Initialize(ctx context.Context, customerID, customerName string) (dto.StateOutput, error) {
	return h.usecase.Initialize(ctx, dto.InitializeInput{CustomerID: customerID, CustomerName: customerName})
}

func (h CLIHandler) State(ctx context.Context) (dto.StateOutput, error) {
	return h.usecase.State(ctx)
}

func (h CLIHandler) UpdateCustomerInfo(ctx context.Context, input dto.CustomerInfoInput) (dto.StateOutput, error) {
	return h.usecase.UpdateCustomerInfo(ctx, input)
}

func (h CLIHandler) UpdateWaterChemistry(ctx context.Context, input dto.WaterChemistryInput) (dto.StateOutput, error) {
	return h.usecase.UpdateWaterChemistry(ctx, input)
}

func (h CLIHandler) UpdatePoolDetails(ctx context.Context, input dto.PoolDetailsInput) (dto.StateOutput, error) {
	return h.usecase.UpdatePoolDetails(ctx, input)
}

func (h CLIHandler) UpdateEquipment(ctx context.Context, input dto.EquipmentInput) (dto.StateOutput, error) {
	return h.usecase.UpdateEquipment(ctx, input)
}

func (h CLIHandler) AddPhoto(ctx context.Context, input dto.AddPhotoInput) (dto.StateOutput, error) {
	return h.usecase.AddPhoto(ctx, input)
}

func (h CLIHandler) SetVoiceNote(ctx context.Context, input dto.VoiceNoteInput) (dto.StateOutput, error) {
	return h.usecase.SetVoiceNote(ctx, input)
}

func (h CLIHandler) Advance(ctx context.Context) (dto.StateOutput, error) {
	return h.usecase.Advance(ctx)
}

func (h CLIHandler) Retreat(ctx context.Context) (dto.StateOutput, error) {
	return h.usecase.Retreat(ctx)
}

func (h CLIHandler) GoTo(ctx context.Context, step int) (dto.StateOutput, error) {
	return h.usecase.GoTo(ctx, step)
}

func (h CLIHandler) SaveAndExit(ctx context.Context) (dto.StateOutput, error) {
	return h.usecase.SaveAndExit(ctx)
}

func (h CLIHandler) Complete(ctx context.Context) (dto.CompleteOutput, error) {
	return h.usecase.Complete(ctx)
}
