package dto

// DeviceOutput summarizes one installed capture plugin for display.
type DeviceOutput struct {
	Name         string
	Version      string
	Binary       string
	Enabled      bool
	Capabilities []string
	Reachable    bool
	ProbeError   string
}

type PhotoInput struct {
	SessionID string
	TargetDir string
}

type PhotoOutput struct {
	Cancelled bool
	URI       string
}

type VoiceInput struct {
	SessionID  string
	TargetDir  string
	MaxSeconds int
}

type VoiceOutput struct {
	URI             string
	DurationSeconds int
}
