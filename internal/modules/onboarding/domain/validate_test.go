package domain_test

import (
	"testing"
	"time"

	"poolintake/internal/modules/onboarding/domain"
)

func filledCustomerInfo() *domain.CustomerInfo {
	return &domain.CustomerInfo{
		FirstName: "Pat", LastName: "Waters", Email: "pat@example.com", Phone: "555-0101",
		Street: "12 Lagoon Dr", City: "Clearwater", State: "FL", Zip: "33755",
	}
}

func sessionThroughStep(k int) domain.Session {
	s := domain.NewSession("ses-1", "c1", "Pat Waters", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	if k >= 1 {
		s.CustomerInfo = filledCustomerInfo()
	}
	if k >= 2 {
		chlorine := 3.0
		chem := domain.DefaultWaterChemistry()
		chem.Chlorine = &chlorine
		s.WaterChemistry = &chem
	}
	if k >= 3 {
		s.PoolDetails = &domain.PoolDetails{Type: "inground", VolumeGallons: 15000}
	}
	if k >= 4 {
		s.Equipment = &domain.Equipment{
			Pump:      domain.EquipmentComponent{Type: "single-speed"},
			Filter:    domain.EquipmentComponent{Type: "sand"},
			Sanitizer: domain.EquipmentComponent{Type: "chlorine"},
		}
	}
	if k >= 5 {
		s.VoiceNote = &domain.VoiceNote{URI: "file:///tmp/n.m4a", DurationSeconds: 45}
	}
	return s
}

func TestStepValidatorsInspectOwnSubRecord(t *testing.T) {
	t.Parallel()
	opts := domain.Options{RequireEquipment: true}
	for k := 0; k < domain.StepCount; k++ {
		s := sessionThroughStep(k)
		for step := 0; step < domain.StepCount; step++ {
			want := step < k
			if got := domain.StepValid(step, s, opts); got != want {
				t.Errorf("session through step %d: StepValid(%d) = %v, want %v", k, step, got, want)
			}
		}
	}
}

func TestEquipmentStepPermissiveByDefault(t *testing.T) {
	t.Parallel()
	s := sessionThroughStep(3)
	if !domain.StepValid(domain.StepEquipment, s, domain.Options{}) {
		t.Fatalf("equipment step must pass when gating is off")
	}
	if domain.StepValid(domain.StepEquipment, s, domain.Options{RequireEquipment: true}) {
		t.Fatalf("equipment step must fail with gating on and no equipment recorded")
	}
}

func TestOutOfRangeStepsInvalid(t *testing.T) {
	t.Parallel()
	s := sessionThroughStep(5)
	if domain.StepValid(-1, s, domain.Options{}) || domain.StepValid(domain.StepCount, s, domain.Options{}) {
		t.Fatalf("validator must be total: out-of-range steps are invalid")
	}
}

func TestFirstIncompleteStep(t *testing.T) {
	t.Parallel()
	opts := domain.Options{RequireEquipment: true}
	for k := 0; k < domain.StepCount; k++ {
		s := sessionThroughStep(k)
		if got := domain.FirstIncompleteStep(s, opts); got != k {
			t.Errorf("session through step %d: resume at %d, want %d", k, got, k)
		}
	}
	if got := domain.FirstIncompleteStep(sessionThroughStep(5), opts); got != 0 {
		t.Errorf("fully valid draft must resume at 0, got %d", got)
	}
}

func TestChemistryGateRequiresDefinedReadings(t *testing.T) {
	t.Parallel()
	s := sessionThroughStep(1)
	s.WaterChemistry = &domain.WaterChemistry{}
	if domain.StepValid(domain.StepWaterChemistry, s, domain.Options{}) {
		t.Fatalf("chemistry with no defined readings must not pass")
	}
	chlorine := 3.0
	chem := domain.DefaultWaterChemistry()
	chem.Chlorine = &chlorine
	s.WaterChemistry = &chem
	if !domain.StepValid(domain.StepWaterChemistry, s, domain.Options{}) {
		t.Fatalf("chlorine plus defaulted readings must pass")
	}
}
