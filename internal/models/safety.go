package models

import "sort"

// SafetyCategory represents a content safety category.
type SafetyCategory string

const (
	SafetyCategoryHarassment       SafetyCategory = "HARM_CATEGORY_HARASSMENT"
	SafetyCategoryHateSpeech       SafetyCategory = "HARM_CATEGORY_HATE_SPEECH"
	SafetyCategoryDangerousContent SafetyCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
	SafetyCategorySexuallyExplicit SafetyCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
)

// SafetyThreshold represents the blocking threshold for safety filters.
type SafetyThreshold string

const (
	SafetyThresholdBlockNone      SafetyThreshold = "BLOCK_NONE"
	SafetyThresholdBlockLowAndUp  SafetyThreshold = "BLOCK_LOW_AND_ABOVE"
	SafetyThresholdBlockMedAndUp  SafetyThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	SafetyThresholdBlockHighAndUp SafetyThreshold = "BLOCK_ONLY_HIGH"
)

// ValidThreshold reports whether t is a known threshold
func ValidThreshold(t SafetyThreshold) bool {
	switch t {
	case SafetyThresholdBlockNone, SafetyThresholdBlockLowAndUp,
		SafetyThresholdBlockMedAndUp, SafetyThresholdBlockHighAndUp:
		return true
	}
	return false
}

// SafetyPolicy maps a category to its threshold
type SafetyPolicy map[SafetyCategory]SafetyThreshold

// DefaultSafetyPolicy disables content filtering for every category
func DefaultSafetyPolicy() SafetyPolicy {
	return SafetyPolicy{
		SafetyCategoryHarassment:       SafetyThresholdBlockNone,
		SafetyCategoryHateSpeech:       SafetyThresholdBlockNone,
		SafetyCategoryDangerousContent: SafetyThresholdBlockNone,
		SafetyCategorySexuallyExplicit: SafetyThresholdBlockNone,
	}
}

// Categories returns the policy's categories in a stable order
func (p SafetyPolicy) Categories() []SafetyCategory {
	out := make([]SafetyCategory, 0, len(p))
	for c := range p {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
