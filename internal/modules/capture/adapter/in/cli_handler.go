package in

import (
	"context"

	"poolintake/internal/modules/capture/dto"
	capturein "poolintake/internal/modules/capture/port/in"
)

type CLIHandler struct {
	usecase capturein.Usecase
}

func NewCLIHandler(usecase capturein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) ListDevices(ctx context.Context) ([]dto.DeviceOutput, error) {
	return h.usecase.ListDevices(ctx)
}

func (h CLIHandler) CapturePhoto(ctx context.Context, sessionID, targetDir string) (dto.PhotoOutput, error) {
	return h.usecase.CapturePhoto(ctx, dto.PhotoInput{SessionID: sessionID, TargetDir: targetDir})
}

func (h CLIHandler) RecordVoice(ctx context.Context, sessionID, targetDir string, maxSeconds int) (dto.VoiceOutput, error) {
	return h.usecase.RecordVoice(ctx, dto.VoiceInput{SessionID: sessionID, TargetDir: targetDir, MaxSeconds: maxSeconds})
}
