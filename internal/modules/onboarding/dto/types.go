package dto

import (
	"time"

	"poolintake/internal/modules/onboarding/domain"
)

type InitializeInput struct {
	CustomerID   string
	CustomerName string
}

// StateOutput is the observable state the screen layer renders from: the
// current snapshot, the cursor, and the derived gate verdicts.
type StateOutput struct {
	Session       domain.Session
	Step          int
	CanAdvance    bool
	StepsComplete [domain.StepCount]bool
}

type CustomerInfoInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Street    string
	City      string
	State     string
	Zip       string
}

// WaterChemistryInput is a full replacement; required readings left nil fall
// back to the standard baselines.
type WaterChemistryInput struct {
	Chlorine     *float64
	PH           *float64
	Alkalinity   *float64
	CyanuricAcid *float64
	Extras       map[string]float64
}

// PoolDetailsInput is a partial merge; nil fields preserve recorded values.
type PoolDetailsInput struct {
	Type          *string
	Shape         *string
	LengthFt      *float64
	WidthFt       *float64
	AvgDepthFt    *float64
	VolumeGallons *float64
	Surface       *string
	Environment   *string
	Features      []string
	Extras        map[string]string
}

// EquipmentInput is a partial merge; nil components preserve recorded values
// and AddPhotos appends.
type EquipmentInput struct {
	Pump      *domain.EquipmentComponent
	Filter    *domain.EquipmentComponent
	Sanitizer *domain.EquipmentComponent
	Heater    *domain.EquipmentComponent
	Timer     *domain.EquipmentComponent
	Valves    *domain.EquipmentComponent
	Pad       *domain.EquipmentComponent
	AddPhotos []AddPhotoInput
}

type AddPhotoInput struct {
	URI        string
	CapturedAt time.Time
}

type VoiceNoteInput struct {
	URI             string
	DurationSeconds int
	Transcription   string
}

type CompleteOutput struct {
	SessionID   string
	CustomerID  string
	CompletedAt time.Time
}
