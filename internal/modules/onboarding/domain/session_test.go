package domain_test

import (
	"errors"
	"testing"
	"time"

	"poolintake/internal/modules/onboarding/domain"
)

func TestStatusTransitionsAreMonotonic(t *testing.T) {
	t.Parallel()
	cases := []struct {
		from, to domain.Status
		ok       bool
	}{
		{domain.StatusDraft, domain.StatusInProgress, true},
		{domain.StatusDraft, domain.StatusCompleted, true},
		{domain.StatusInProgress, domain.StatusCompleted, true},
		{domain.StatusInProgress, domain.StatusInProgress, true},
		{domain.StatusCompleted, domain.StatusSynced, true},
		{domain.StatusCompleted, domain.StatusInProgress, false},
		{domain.StatusSynced, domain.StatusDraft, false},
		{domain.Status("bogus"), domain.StatusDraft, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestVoiceNoteBounds(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		duration int
		want     error
	}{
		{"below minimum", 29, domain.ErrVoiceNoteTooShort},
		{"at minimum", 30, nil},
		{"at maximum", 180, nil},
		{"above maximum", 181, domain.ErrVoiceNoteTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			note := domain.VoiceNote{URI: "file:///tmp/note.m4a", DurationSeconds: tc.duration}
			err := note.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestVoiceNoteWithoutURIRejected(t *testing.T) {
	t.Parallel()
	note := domain.VoiceNote{DurationSeconds: 60}
	if !errors.Is(note.Validate(), domain.ErrVoiceNoteMissing) {
		t.Fatalf("expected missing-uri rejection")
	}
}

func TestVoiceNoteRemoteDetection(t *testing.T) {
	t.Parallel()
	local := domain.VoiceNote{URI: "file:///var/audio/a.m4a"}
	inline := domain.VoiceNote{URI: "data:audio/m4a;base64,AAAA"}
	remote := domain.VoiceNote{URI: "https://cdn.example/a.m4a"}
	if local.Remote() || inline.Remote() {
		t.Fatalf("local references must not count as remote")
	}
	if !remote.Remote() {
		t.Fatalf("https reference must count as remote")
	}
}

func TestPoolDetailsPatchPreservesUnspecifiedKeys(t *testing.T) {
	t.Parallel()
	details := domain.PoolDetails{Type: "inground", Shape: "rectangle", VolumeGallons: 15000, Extras: map[string]string{"tile_type": "glass"}}
	volume := 18000.0
	details.Apply(domain.PoolDetailsPatch{VolumeGallons: &volume, Extras: map[string]string{"notes": "pump hums"}})
	if details.Type != "inground" || details.Shape != "rectangle" {
		t.Fatalf("unspecified fields must be preserved: %+v", details)
	}
	if details.VolumeGallons != 18000 {
		t.Fatalf("patched volume not applied: %v", details.VolumeGallons)
	}
	if details.Extras["tile_type"] != "glass" || details.Extras["notes"] != "pump hums" {
		t.Fatalf("extras must merge, not replace: %v", details.Extras)
	}
}

func TestEquipmentPatchMergesAndAppendsPhotos(t *testing.T) {
	t.Parallel()
	equip := domain.Equipment{
		Pump:   domain.EquipmentComponent{Type: "variable-speed", Brand: "Pentair"},
		Photos: []domain.MediaRef{{URI: "file:///p/1.jpg"}},
	}
	equip.Apply(domain.EquipmentPatch{
		Filter:    &domain.EquipmentComponent{Type: "cartridge"},
		AddPhotos: []domain.MediaRef{{URI: "file:///p/2.jpg"}},
	})
	if equip.Pump.Brand != "Pentair" {
		t.Fatalf("pump must survive a filter-only patch")
	}
	if equip.Filter.Type != "cartridge" {
		t.Fatalf("filter patch not applied")
	}
	if len(equip.Photos) != 2 {
		t.Fatalf("photos must append, got %d", len(equip.Photos))
	}
}

func TestChemistryExtrasBounded(t *testing.T) {
	t.Parallel()
	chem := domain.DefaultWaterChemistry()
	chem.Extras = map[string]float64{"salt": 3200}
	if err := chem.ValidateExtras(); err != nil {
		t.Fatalf("allowed extra rejected: %v", err)
	}
	chem.Extras["favorite_color"] = 1
	if !errors.Is(chem.ValidateExtras(), domain.ErrUnknownReading) {
		t.Fatalf("undeclared extra must be rejected")
	}
}

func TestCloneDoesNotAliasState(t *testing.T) {
	t.Parallel()
	chlorine := 3.0
	session := domain.NewSession("ses-1", "c1", "Pat Waters", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	chem := domain.DefaultWaterChemistry()
	chem.Chlorine = &chlorine
	session.WaterChemistry = &chem
	session.Photos = append(session.Photos, domain.MediaRef{URI: "file:///p/1.jpg"})

	clone := session.Clone()
	*clone.WaterChemistry.Chlorine = 9
	clone.Photos[0].URI = "file:///p/other.jpg"

	if *session.WaterChemistry.Chlorine != 3 {
		t.Fatalf("clone must not alias chemistry readings")
	}
	if session.Photos[0].URI != "file:///p/1.jpg" {
		t.Fatalf("clone must not alias photo list")
	}
}
