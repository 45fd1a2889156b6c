package domain

// Options are the explicit feature toggles injected at construction. They
// replace the module-level flags of the source system so tests can pin
// deterministic behavior.
type Options struct {
	// RequireEquipment makes step 3 gate forward navigation on equipment
	// completeness. Default false.
	RequireEquipment bool

	// UploadPhotos syncs pending local photos during completion.
	UploadPhotos bool
}

// StepValid is the single source of truth for navigation gating and resume
// placement. It is total over step indices: out-of-range steps are invalid.
// Each validator inspects only the sub-record its step owns; no validator
// performs I/O.
func StepValid(step int, s Session, opts Options) bool {
	switch step {
	case StepCustomerInfo:
		return s.CustomerInfo != nil && s.CustomerInfo.Complete()
	case StepWaterChemistry:
		return s.WaterChemistry != nil && s.WaterChemistry.Complete()
	case StepPoolDetails:
		return s.PoolDetails != nil && s.PoolDetails.Complete()
	case StepEquipment:
		if !opts.RequireEquipment {
			return true
		}
		return s.Equipment != nil && s.Equipment.Complete()
	case StepVoiceNote:
		return s.VoiceNote != nil && s.VoiceNote.Validate() == nil
	default:
		return false
	}
}

// FirstIncompleteStep is where a resumed session lands: the first step whose
// validator fails. A fully valid draft resumes at the first step so the
// technician can review before completing.
func FirstIncompleteStep(s Session, opts Options) int {
	for step := 0; step < StepCount; step++ {
		if !StepValid(step, s, opts) {
			return step
		}
	}
	return 0
}
