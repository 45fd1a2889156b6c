package out

import (
	"context"

	"poolintake/internal/modules/capture/domain"
)

// Host drives one out-of-process capture plugin per call: start, invoke,
// kill. Voice recordings run under a generous deadline derived from the
// requested maximum length; timeouts wrap domain.ErrCaptureTimeout.
type Host interface {
	GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error)
	CapturePhoto(ctx context.Context, manifest domain.Manifest, req domain.PhotoRequest) (domain.PhotoResult, error)
	RecordVoice(ctx context.Context, manifest domain.Manifest, req domain.VoiceRequest) (domain.VoiceResult, error)
}

// ManifestStore lists the installed capture plugins.
type ManifestStore interface {
	Load(ctx context.Context) ([]domain.Manifest, error)
}
