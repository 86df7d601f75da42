package api

// GJSON paths for extracting values from generateContent responses.
const (
	PathCandidates   = "candidates"
	PathCandText     = "candidates.0.content.parts.#.text"
	PathFinishReason = "candidates.0.finishReason"
	PathGroundingURI = "candidates.0.groundingMetadata.groundingChunks.#.web.uri"
	PathBlockReason  = "promptFeedback.blockReason"
	PathModelVersion = "modelVersion"

	// Error envelope: {"error": {"code": 404, "message": "...", "status": "NOT_FOUND"}}
	PathErrorCode    = "error.code"
	PathErrorMessage = "error.message"
	PathErrorStatus  = "error.status"
)
