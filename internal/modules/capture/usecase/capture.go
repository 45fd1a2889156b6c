package usecase

import (
	"context"

	"poolintake/internal/modules/capture/domain"
	"poolintake/internal/modules/capture/dto"
	capturein "poolintake/internal/modules/capture/port/in"
	"poolintake/internal/modules/capture/service"
)

type Interactor struct {
	resolver *service.DeviceResolver
}

func NewInteractor(resolver *service.DeviceResolver) capturein.Usecase {
	return &Interactor{resolver: resolver}
}

func (i *Interactor) ListDevices(ctx context.Context) ([]dto.DeviceOutput, error) {
	manifests, err := i.resolver.List(ctx)
	if err != nil {
		return nil, err
	}

	outputs := make([]dto.DeviceOutput, 0, len(manifests))
	for _, manifest := range manifests {
		output := dto.DeviceOutput{
			Name:    manifest.Name,
			Version: manifest.Version,
			Binary:  manifest.Binary,
			Enabled: manifest.Enabled,
		}
		for _, capability := range manifest.Capabilities {
			output.Capabilities = append(output.Capabilities, string(capability))
		}
		if manifest.Enabled {
			if _, err := i.resolver.Probe(ctx, manifest); err != nil {
				output.ProbeError = err.Error()
			} else {
				output.Reachable = true
			}
		}
		outputs = append(outputs, output)
	}
	return outputs, nil
}

func (i *Interactor) CapturePhoto(ctx context.Context, input dto.PhotoInput) (dto.PhotoOutput, error) {
	result, err := i.resolver.CapturePhoto(ctx, domain.PhotoRequest{
		SessionID: input.SessionID,
		TargetDir: input.TargetDir,
	})
	if err != nil {
		return dto.PhotoOutput{}, err
	}
	return dto.PhotoOutput{Cancelled: result.Cancelled, URI: result.URI}, nil
}

func (i *Interactor) RecordVoice(ctx context.Context, input dto.VoiceInput) (dto.VoiceOutput, error) {
	result, err := i.resolver.RecordVoice(ctx, domain.VoiceRequest{
		SessionID:  input.SessionID,
		TargetDir:  input.TargetDir,
		MaxSeconds: input.MaxSeconds,
	})
	if err != nil {
		return dto.VoiceOutput{}, err
	}
	return dto.VoiceOutput{URI: result.URI, DurationSeconds: result.DurationSeconds()}, nil
}
