package in

import (
	"context"

	"poolintake/internal/modules/capture/dto"
)

// Usecase exposes the capture device operations the CLI and wizard rely on.
type Usecase interface {
	// ListDevices probes every installed plugin and reports reachability.
	ListDevices(ctx context.Context) ([]dto.DeviceOutput, error)
	// CapturePhoto drives the first enabled plugin with the photo capability.
	CapturePhoto(ctx context.Context, input dto.PhotoInput) (dto.PhotoOutput, error)
	// RecordVoice drives the first enabled plugin with the voice capability.
	RecordVoice(ctx context.Context, input dto.VoiceInput) (dto.VoiceOutput, error)
}
