package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrConfigNotFound indicates the configuration file does not exist yet.
	ErrConfigNotFound = errors.New("config not found")

	// ErrMissingCredential indicates a provider that needs an API key has none.
	// This is a hard startup failure.
	ErrMissingCredential = errors.New("missing API credential")

	// ErrLLMUnavailable indicates the completion service failed or is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service failed or is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// Ingestion Errors.

	// ErrLoadFailed indicates a document could not be turned into pages.
	ErrLoadFailed = errors.New("document load failed")

	// ErrIndexWrite indicates segments could not be written to the vector index.
	ErrIndexWrite = errors.New("index write failed")

	// Answering Errors.

	// ErrNoDocuments indicates a question was asked before anything was indexed.
	ErrNoDocuments = errors.New("no documents uploaded")

	// ErrNoScopeSelected indicates a question was asked without a document scope.
	ErrNoScopeSelected = errors.New("no document scope selected")

	// ErrAnswerUnavailable indicates the answering flow failed after all attempts.
	ErrAnswerUnavailable = errors.New("answer unavailable")
)

// AnswerUnavailableMessage is shown in place of an answer when
// ErrAnswerUnavailable is returned.
const AnswerUnavailableMessage = "Sorry, I couldn't produce an answer right now. Please try again."

// guidance maps user-input errors to the message shown instead of a failure.
var guidance = map[error]string{
	ErrNoDocuments:     "Please upload at least one PDF document first.",
	ErrNoScopeSelected: "Please select at least one file from drop down to ask question.",
}

// GuidanceMessage returns the user-facing guidance for err, if err is a
// user-input error rather than a failure.
func GuidanceMessage(err error) (string, bool) {
	for target, msg := range guidance {
		if errors.Is(err, target) {
			return msg, true
		}
	}
	return "", false
}
