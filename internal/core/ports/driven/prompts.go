package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return the built-in
	// default, or an error when there is none.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptReformulate turns a follow-up into a standalone question.
	// Used as a system message; no placeholders.
	PromptReformulate = "reformulate"

	// PromptAnswerSystem instructs grounded answering.
	// The template expects a {context} placeholder for retrieved segments.
	PromptAnswerSystem = "answer_system"

	// PromptMultiQuery asks for paraphrases of a question.
	// The template expects {n} (paraphrase count) and {question} placeholders.
	PromptMultiQuery = "multi_query"
)
