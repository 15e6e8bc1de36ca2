package services

import (
	"strconv"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

const defaultReformulatePrompt = `Given a chat history and the latest user question which might reference context in the chat history, formulate a standalone question which can be understood without the chat history. Do NOT answer the question, just reformulate it if needed and otherwise return it as is.`

const defaultAnswerSystemPrompt = `You are a helpful AI Assistant. Use the provided context to answer the user's question.
If the answer cannot be found in the context, say you don't know. Don't provide information without context relevant to the query.
Context:
{context}`

const defaultMultiQueryPrompt = `Generate {n} concise paraphrases (different phrasings / angles) of the user's question.
Return each paraphrase on its own line, no numbering, keep them short.

Question: {question}

Paraphrases:`

// DefaultPrompts returns the built-in prompt templates keyed by name.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptReformulate:  defaultReformulatePrompt,
		driven.PromptAnswerSystem: defaultAnswerSystemPrompt,
		driven.PromptMultiQuery:   defaultMultiQueryPrompt,
	}
}

// loadPrompt returns the named template from store, or the built-in
// default when the store is nil or has no usable template.
func loadPrompt(store driven.PromptStore, name string) string {
	if store != nil {
		tmpl, err := store.Load(name)
		if err == nil && strings.TrimSpace(tmpl) != "" {
			return tmpl
		}
		if err != nil {
			logger.Debug("Prompt %s: using default (%v)", name, err)
		}
	}
	return DefaultPrompts()[name]
}

// renderMultiQuery fills the multi-query template.
func renderMultiQuery(tmpl, question string, n int) string {
	return strings.NewReplacer("{n}", strconv.Itoa(n), "{question}", question).Replace(tmpl)
}

// renderAnswerSystem fills the answer system template.
func renderAnswerSystem(tmpl, contextBlock string) string {
	return strings.ReplaceAll(tmpl, "{context}", contextBlock)
}
