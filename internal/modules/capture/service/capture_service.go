package service

import (
	"context"
	"fmt"

	"poolintake/internal/modules/capture/domain"
	captureout "poolintake/internal/modules/capture/port/out"
)

// DeviceResolver picks the plugin that serves a requested capability and runs
// the capture call against it. Selection is first enabled manifest wins, in
// manifest file order.
type DeviceResolver struct {
	manifests captureout.ManifestStore
	host      captureout.Host
}

func NewDeviceResolver(manifests captureout.ManifestStore, host captureout.Host) *DeviceResolver {
	return &DeviceResolver{manifests: manifests, host: host}
}

// Resolve returns the manifest that will serve the capability. A manifest that
// advertises the capability but is disabled yields ErrDeviceDisabled only when
// no enabled alternative exists.
func (r *DeviceResolver) Resolve(ctx context.Context, capability domain.Capability) (domain.Manifest, error) {
	manifests, err := r.manifests.Load(ctx)
	if err != nil {
		return domain.Manifest{}, err
	}

	disabledMatch := false
	for _, manifest := range manifests {
		if !manifest.HasCapability(capability) {
			continue
		}
		if !manifest.Enabled {
			disabledMatch = true
			continue
		}
		return manifest, nil
	}
	if disabledMatch {
		return domain.Manifest{}, fmt.Errorf("%w: %s", domain.ErrDeviceDisabled, capability)
	}
	if len(manifests) == 0 {
		return domain.Manifest{}, domain.ErrNoCaptureDevice
	}
	return domain.Manifest{}, fmt.Errorf("%w: %s", domain.ErrCapabilityMissing, capability)
}

func (r *DeviceResolver) List(ctx context.Context) ([]domain.Manifest, error) {
	return r.manifests.Load(ctx)
}

func (r *DeviceResolver) Probe(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	return r.host.GetMetadata(ctx, manifest)
}

func (r *DeviceResolver) CapturePhoto(ctx context.Context, req domain.PhotoRequest) (domain.PhotoResult, error) {
	manifest, err := r.Resolve(ctx, domain.CapabilityPhoto)
	if err != nil {
		return domain.PhotoResult{}, err
	}
	return r.host.CapturePhoto(ctx, manifest, req)
}

func (r *DeviceResolver) RecordVoice(ctx context.Context, req domain.VoiceRequest) (domain.VoiceResult, error) {
	manifest, err := r.Resolve(ctx, domain.CapabilityVoice)
	if err != nil {
		return domain.VoiceResult{}, err
	}
	return r.host.RecordVoice(ctx, manifest, req)
}
