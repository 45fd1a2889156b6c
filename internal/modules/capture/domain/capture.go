package domain

import (
	"errors"
	"fmt"
	"time"
)

// Capability names a device a capture plugin can drive.
type Capability string

const (
	CapabilityPhoto Capability = "photo"
	CapabilityVoice Capability = "voice"
)

var (
	ErrDeviceDisabled    = errors.New("capture device is disabled")
	ErrCapabilityMissing = errors.New("capture capability missing")
	ErrNoCaptureDevice   = errors.New("no capture device configured")
	ErrCaptureTimeout    = errors.New("capture timeout")
)

func (c Capability) Validate() error {
	switch c {
	case CapabilityPhoto, CapabilityVoice:
		return nil
	default:
		return fmt.Errorf("unknown capability: %s", c)
	}
}

// Manifest describes one installed capture plugin binary.
type Manifest struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Binary       string       `json:"binary"`
	Enabled      bool         `json:"enabled"`
	Capabilities []Capability `json:"capabilities"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("capture plugin name is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("capture plugin binary path is required")
	}
	if len(m.Capabilities) == 0 {
		return fmt.Errorf("capture plugin capabilities are required")
	}
	seen := map[Capability]struct{}{}
	for _, capability := range m.Capabilities {
		if err := capability.Validate(); err != nil {
			return err
		}
		if _, ok := seen[capability]; ok {
			return fmt.Errorf("duplicate capability: %s", capability)
		}
		seen[capability] = struct{}{}
	}
	return nil
}

func (m Manifest) HasCapability(capability Capability) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

type Metadata struct {
	Name         string
	Version      string
	Capabilities []Capability
}

type PhotoRequest struct {
	SessionID string
	TargetDir string
}

// PhotoResult mirrors the device contract: either the user cancelled, or a
// local media handle is returned.
type PhotoResult struct {
	Cancelled bool
	URI       string
}

type VoiceRequest struct {
	SessionID  string
	TargetDir  string
	MaxSeconds int
}

// VoiceResult carries the recording handle plus the wall-clock start/stop
// instants reported by the device. Elapsed time is derived from those rather
// than a tick counter so it stays correct when the app was suspended
// mid-recording.
type VoiceResult struct {
	URI       string
	StartedAt time.Time
	StoppedAt time.Time
}

func (v VoiceResult) DurationSeconds() int {
	d := v.StoppedAt.Sub(v.StartedAt)
	if d < 0 {
		return 0
	}
	return int(d.Round(time.Second) / time.Second)
}
