package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const SchemaVersion = 1

// Voice note duration bounds in seconds. Out-of-range notes are rejected at
// the boundary, never clamped.
const (
	MinVoiceNoteSeconds = 30
	MaxVoiceNoteSeconds = 180
)

var (
	ErrCustomerIDRequired = errors.New("customer id is required")
	ErrVoiceNoteMissing   = errors.New("voice note is required before completion")
	ErrVoiceNoteTooShort  = errors.New("voice note is too short")
	ErrVoiceNoteTooLong   = errors.New("voice note is too long")
	ErrUnknownReading     = errors.New("unknown chemistry reading")
	ErrUnknownPoolExtra   = errors.New("unknown pool detail field")
	ErrStatusTransition   = errors.New("invalid status transition")
	ErrStepOutOfRange     = errors.New("step out of range")
	ErrStepIncomplete     = errors.New("current step is incomplete")
)

type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusSynced     Status = "synced"
)

func (s Status) Validate() error {
	switch s {
	case StatusDraft, StatusInProgress, StatusCompleted, StatusSynced:
		return nil
	default:
		return fmt.Errorf("unknown status: %s", s)
	}
}

var statusRank = map[Status]int{
	StatusDraft:      0,
	StatusInProgress: 1,
	StatusCompleted:  2,
	StatusSynced:     3,
}

// CanTransitionTo enforces monotonic status progression. Completed is
// terminal for this client; a separate sync process owns completed→synced.
func (s Status) CanTransitionTo(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// Step indices for the five data-collection steps.
const (
	StepCustomerInfo = iota
	StepWaterChemistry
	StepPoolDetails
	StepEquipment
	StepVoiceNote
	StepCount
)

const LastStep = StepCount - 1

type CustomerInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

// Complete reports whether every required contact/address field is present.
// The fields validate all-or-nothing.
func (c CustomerInfo) Complete() bool {
	for _, field := range []string{c.FirstName, c.LastName, c.Email, c.Phone, c.Street, c.City, c.State, c.Zip} {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}

// Optional chemistry readings admitted into WaterChemistry.Extras. The set is
// declared and bounded; arbitrary keys are rejected.
var AllowedChemistryExtras = map[string]struct{}{
	"calcium":     {},
	"salt":        {},
	"tds":         {},
	"phosphates":  {},
	"copper":      {},
	"iron":        {},
	"temperature": {},
}

type WaterChemistry struct {
	Chlorine     *float64           `json:"chlorine,omitempty"`
	PH           *float64           `json:"ph,omitempty"`
	Alkalinity   *float64           `json:"alkalinity,omitempty"`
	CyanuricAcid *float64           `json:"cyanuric_acid,omitempty"`
	Extras       map[string]float64 `json:"extras,omitempty"`
}

func (w WaterChemistry) Complete() bool {
	return w.Chlorine != nil && w.PH != nil && w.Alkalinity != nil && w.CyanuricAcid != nil
}

func (w WaterChemistry) ValidateExtras() error {
	for key := range w.Extras {
		if _, ok := AllowedChemistryExtras[key]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownReading, key)
		}
	}
	return nil
}

// DefaultWaterChemistry carries typical pool baselines so a technician only
// has to enter readings that deviate.
func DefaultWaterChemistry() WaterChemistry {
	ph := 7.4
	alkalinity := 100.0
	cya := 40.0
	return WaterChemistry{PH: &ph, Alkalinity: &alkalinity, CyanuricAcid: &cya}
}

// Declared extension keys for pool details. Bounded on purpose: the source of
// this schema admitted arbitrary keys and drifted.
var AllowedPoolExtras = map[string]struct{}{
	"tile_type":        {},
	"deck_material":    {},
	"water_feature":    {},
	"screen_enclosure": {},
	"notes":            {},
}

type PoolDetails struct {
	Type          string            `json:"type,omitempty"`
	Shape         string            `json:"shape,omitempty"`
	LengthFt      float64           `json:"length_ft,omitempty"`
	WidthFt       float64           `json:"width_ft,omitempty"`
	AvgDepthFt    float64           `json:"avg_depth_ft,omitempty"`
	VolumeGallons float64           `json:"volume_gallons,omitempty"`
	Surface       string            `json:"surface,omitempty"`
	Environment   string            `json:"environment,omitempty"`
	Features      []string          `json:"features,omitempty"`
	Extras        map[string]string `json:"extras,omitempty"`
}

func (p PoolDetails) Complete() bool {
	return p.VolumeGallons > 0
}

func (p PoolDetails) ValidateExtras() error {
	for key := range p.Extras {
		if _, ok := AllowedPoolExtras[key]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPoolExtra, key)
		}
	}
	return nil
}

// PoolDetailsPatch is a partial update; nil fields leave the existing value
// untouched.
type PoolDetailsPatch struct {
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

func (p *PoolDetails) Apply(patch PoolDetailsPatch) {
	if patch.Type != nil {
		p.Type = *patch.Type
	}
	if patch.Shape != nil {
		p.Shape = *patch.Shape
	}
	if patch.LengthFt != nil {
		p.LengthFt = *patch.LengthFt
	}
	if patch.WidthFt != nil {
		p.WidthFt = *patch.WidthFt
	}
	if patch.AvgDepthFt != nil {
		p.AvgDepthFt = *patch.AvgDepthFt
	}
	if patch.VolumeGallons != nil {
		p.VolumeGallons = *patch.VolumeGallons
	}
	if patch.Surface != nil {
		p.Surface = *patch.Surface
	}
	if patch.Environment != nil {
		p.Environment = *patch.Environment
	}
	if patch.Features != nil {
		p.Features = append([]string(nil), patch.Features...)
	}
	for key, value := range patch.Extras {
		if p.Extras == nil {
			p.Extras = map[string]string{}
		}
		p.Extras[key] = value
	}
}

type EquipmentComponent struct {
	Type      string `json:"type,omitempty"`
	Brand     string `json:"brand,omitempty"`
	Model     string `json:"model,omitempty"`
	Serial    string `json:"serial,omitempty"`
	Condition string `json:"condition,omitempty"`
}

type Equipment struct {
	Pump      EquipmentComponent `json:"pump"`
	Filter    EquipmentComponent `json:"filter"`
	Sanitizer EquipmentComponent `json:"sanitizer"`
	Heater    EquipmentComponent `json:"heater"`
	Timer     EquipmentComponent `json:"timer"`
	Valves    EquipmentComponent `json:"valves"`
	Pad       EquipmentComponent `json:"pad"`
	Photos    []MediaRef         `json:"photos,omitempty"`
}

// Complete requires at least the pump, filter and sanitizer to be identified.
// Heater, timer, valves and pad stay optional even when equipment gating is
// enabled.
func (e Equipment) Complete() bool {
	return e.Pump.Type != "" && e.Filter.Type != "" && e.Sanitizer.Type != ""
}

// EquipmentPatch is a partial merge; nil component pointers preserve whatever
// was recorded earlier, and photos append.
type EquipmentPatch struct {
	Pump      *EquipmentComponent
	Filter    *EquipmentComponent
	Sanitizer *EquipmentComponent
	Heater    *EquipmentComponent
	Timer     *EquipmentComponent
	Valves    *EquipmentComponent
	Pad       *EquipmentComponent
	AddPhotos []MediaRef
}

func (e *Equipment) Apply(patch EquipmentPatch) {
	if patch.Pump != nil {
		e.Pump = *patch.Pump
	}
	if patch.Filter != nil {
		e.Filter = *patch.Filter
	}
	if patch.Sanitizer != nil {
		e.Sanitizer = *patch.Sanitizer
	}
	if patch.Heater != nil {
		e.Heater = *patch.Heater
	}
	if patch.Timer != nil {
		e.Timer = *patch.Timer
	}
	if patch.Valves != nil {
		e.Valves = *patch.Valves
	}
	if patch.Pad != nil {
		e.Pad = *patch.Pad
	}
	e.Photos = append(e.Photos, patch.AddPhotos...)
}

type MediaRef struct {
	URI        string    `json:"uri"`
	CapturedAt time.Time `json:"captured_at"`
}

// Remote reports whether the reference already points at durable remote
// storage rather than a local file or inline blob.
func (m MediaRef) Remote() bool {
	return isRemoteURI(m.URI)
}

type VoiceNote struct {
	URI             string `json:"uri"`
	DurationSeconds int    `json:"duration_seconds"`
	Transcription   string `json:"transcription,omitempty"`
}

func (v VoiceNote) Validate() error {
	if strings.TrimSpace(v.URI) == "" {
		return ErrVoiceNoteMissing
	}
	if v.DurationSeconds < MinVoiceNoteSeconds {
		return fmt.Errorf("%w: %ds, need at least %ds", ErrVoiceNoteTooShort, v.DurationSeconds, MinVoiceNoteSeconds)
	}
	if v.DurationSeconds > MaxVoiceNoteSeconds {
		return fmt.Errorf("%w: %ds, limit is %ds", ErrVoiceNoteTooLong, v.DurationSeconds, MaxVoiceNoteSeconds)
	}
	return nil
}

func (v VoiceNote) Remote() bool {
	return isRemoteURI(v.URI)
}

func isRemoteURI(uri string) bool {
	return strings.HasPrefix(uri, "https://") || strings.HasPrefix(uri, "http://")
}

// Session is one onboarding attempt for one customer, spanning the five
// sequential data-collection steps. The customer id is immutable after
// creation and is the sole draft-store key.
type Session struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	Status         Status          `json:"status"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CustomerInfo   *CustomerInfo   `json:"customer_info,omitempty"`
	WaterChemistry *WaterChemistry `json:"water_chemistry,omitempty"`
	PoolDetails    *PoolDetails    `json:"pool_details,omitempty"`
	Equipment      *Equipment      `json:"equipment,omitempty"`
	VoiceNote      *VoiceNote      `json:"voice_note,omitempty"`
	Photos         []MediaRef      `json:"photos"`
}

func NewSession(id, customerID, customerName string, now time.Time) Session {
	return Session{
		ID:           id,
		CustomerID:   customerID,
		CustomerName: customerName,
		Status:       StatusDraft,
		StartedAt:    now,
		Photos:       []MediaRef{},
	}
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(s.CustomerID) == "" {
		return ErrCustomerIDRequired
	}
	return s.Status.Validate()
}

// Clone deep-copies the session so callers can hand out snapshots without
// aliasing the manager's in-memory state.
func (s Session) Clone() Session {
	out := s
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		out.CompletedAt = &at
	}
	if s.CustomerInfo != nil {
		info := *s.CustomerInfo
		out.CustomerInfo = &info
	}
	if s.WaterChemistry != nil {
		chem := *s.WaterChemistry
		chem.Chlorine = cloneFloat(s.WaterChemistry.Chlorine)
		chem.PH = cloneFloat(s.WaterChemistry.PH)
		chem.Alkalinity = cloneFloat(s.WaterChemistry.Alkalinity)
		chem.CyanuricAcid = cloneFloat(s.WaterChemistry.CyanuricAcid)
		chem.Extras = cloneMap(s.WaterChemistry.Extras)
		out.WaterChemistry = &chem
	}
	if s.PoolDetails != nil {
		details := *s.PoolDetails
		details.Features = append([]string(nil), s.PoolDetails.Features...)
		details.Extras = cloneMap(s.PoolDetails.Extras)
		out.PoolDetails = &details
	}
	if s.Equipment != nil {
		equip := *s.Equipment
		equip.Photos = append([]MediaRef(nil), s.Equipment.Photos...)
		out.Equipment = &equip
	}
	if s.VoiceNote != nil {
		note := *s.VoiceNote
		out.VoiceNote = &note
	}
	out.Photos = append([]MediaRef(nil), s.Photos...)
	if out.Photos == nil {
		out.Photos = []MediaRef{}
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
