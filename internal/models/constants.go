// Package models contains data types and constants for the generation service.
package models

import (
	"sort"
	"strings"
)

// Endpoints for the Generative Language API
const (
	EndpointBase        = "https://generativelanguage.googleapis.com"
	APIVersion          = "v1beta"
	GenerateMethod      = "generateContent"
	APIKeyHeader        = "x-goog-api-key"
	ModelResourcePrefix = "models/"
)

// Capability is an optional feature a candidate endpoint may support
type Capability string

const (
	// CapabilityRetrieval enables search grounding for the request
	CapabilityRetrieval Capability = "retrieval"
)

// KnownCapabilities lists the capabilities understood by the clients
func KnownCapabilities() []Capability {
	return []Capability{CapabilityRetrieval}
}

// CandidateEndpoint is one addressable configuration of the generation service.
// Values are immutable once built by NewCandidate.
type CandidateEndpoint struct {
	Identifier   string
	Priority     int
	capabilities map[Capability]struct{}
}

// NewCandidate creates a candidate with the given priority and capabilities
func NewCandidate(identifier string, priority int, caps ...Capability) CandidateEndpoint {
	c := CandidateEndpoint{
		Identifier: strings.TrimSpace(identifier),
		Priority:   priority,
	}
	if len(caps) > 0 {
		c.capabilities = make(map[Capability]struct{}, len(caps))
		for _, cp := range caps {
			c.capabilities[cp] = struct{}{}
		}
	}
	return c
}

// Has reports whether the candidate declares a capability
func (c CandidateEndpoint) Has(cp Capability) bool {
	_, ok := c.capabilities[cp]
	return ok
}

// Capabilities returns the declared capabilities in sorted order
func (c CandidateEndpoint) Capabilities() []Capability {
	caps := make([]Capability, 0, len(c.capabilities))
	for cp := range c.capabilities {
		caps = append(caps, cp)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// String returns the identifier
func (c CandidateEndpoint) String() string {
	return c.Identifier
}

// ModelName strips the "models/" resource prefix from an identifier
func ModelName(identifier string) string {
	return strings.TrimPrefix(strings.TrimSpace(identifier), ModelResourcePrefix)
}

// DefaultCandidateIDs are tried in order when no candidates are configured.
// Cheaper and faster models come first.
var DefaultCandidateIDs = []string{
	"gemini-1.5-flash-latest",
	"models/gemini-1.5-flash",
	"gemini-1.5-pro",
}

// DefaultCandidates builds the default candidate list
func DefaultCandidates() []CandidateEndpoint {
	out := make([]CandidateEndpoint, 0, len(DefaultCandidateIDs))
	for i, id := range DefaultCandidateIDs {
		out = append(out, NewCandidate(id, i))
	}
	return out
}

// DefaultHeaders returns the default headers for generation requests
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "compliancegen/1.0",
	}
}
