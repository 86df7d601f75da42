package models

import "time"

// GenerationRequest is the payload submitted to a candidate endpoint
type GenerationRequest struct {
	Payload string
	Safety  SafetyPolicy
}

// NewGenerationRequest builds a request with the default safety policy
func NewGenerationRequest(payload string) GenerationRequest {
	return GenerationRequest{
		Payload: payload,
		Safety:  DefaultSafetyPolicy(),
	}
}

// ModelOutput is the parsed response of a single successful submission
type ModelOutput struct {
	Text             string
	FinishReason     string
	GroundingSources []string // Web URIs, populated only when retrieval was used
	ModelVersion     string
}

// Attempt stages
const (
	StageConstruct = "construct"
	StageSubmit    = "submit"
	// StageCanceled marks a resolution stopped before the next candidate ran.
	// Such an attempt carries no identifier.
	StageCanceled = "canceled"
)

// Attempt records one failed try against a candidate
type Attempt struct {
	Identifier string
	Retrieval  bool
	Stage      string
	Err        error
	Duration   time.Duration
}

// GenerationResult is returned by the resolver on success
type GenerationResult struct {
	Text             string
	Model            string
	Retrieval        bool
	GroundingSources []string
	// Attempts holds the failures that preceded the success, in order
	Attempts []Attempt
	Duration time.Duration
}
