package explain

import (
	"context"
	"fmt"
	"strings"

	"codeatlas/internal/vectorstore"

	"go.uber.org/zap"
)

// contextCharLimit caps the retrieved context passed to the model so the
// prompt stays under the model's token limit.
const contextCharLimit = 3000

// explainTopK is how many chunks function explanations retrieve.
const explainTopK = 10

const functionSystemPrompt = `You are a senior software engineer explaining a function's purpose and usage.
Analyze the provided context and provide a detailed explanation following this structure:
1. Purpose: detailed description of what the function does in relation to the codebase.
2. Parameters: List with types and descriptions
3. Returns: Output type and description
4. Function Relationships: Callers and callees
5. Usage Notes: Important considerations
6. Example: Code snippet from context

Format using markdown with bold section headers.`

const structuredSystemPrompt = "You are a senior software engineer explaining code to a developer. Always respond in JSON format:\n" +
	"```json\n" +
	`{
  "summary": "Brief explanation",
  "detailedExplanation": "In-depth analysis",
  "codeSnippets": [
    {
      "description": "What the snippet does",
      "snippet": "Actual code snippet"
    }
  ]
}` + "\n```\n" +
	"No extra text. Respond with valid JSON only."

// Retriever fetches the chunks most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]vectorstore.Metadata, error)
}

// Composer builds prompts from retrieved context and runs them through the
// chat backend.
type Composer struct {
	retriever Retriever
	chat      Chat
	log       *zap.Logger

	temperature float64
	maxTokens   int
}

// NewComposer creates a Composer. Temperature and maxTokens apply to every
// generation.
func NewComposer(retriever Retriever, chat Chat, temperature float64, maxTokens int, log *zap.Logger) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{
		retriever:   retriever,
		chat:        chat,
		log:         log,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// ExplainFunction retrieves chunks about the named function and returns a
// markdown explanation.
func (c *Composer) ExplainFunction(ctx context.Context, functionName string) (string, error) {
	query := fmt.Sprintf("FunctionDef:%s OR FunctionCall:%s", functionName, functionName)
	chunks, err := c.retriever.Retrieve(ctx, query, explainTopK)
	if err != nil {
		return "", fmt.Errorf("retrieve context for %s: %w", functionName, err)
	}
	c.log.Debug("composing function explanation",
		zap.String("function", functionName),
		zap.Int("chunks", len(chunks)))

	messages := []Message{
		{Role: "system", Content: functionSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("**Function to Explain**: %s\n\n**Relevant Context**:\n%s\n\n**Explanation**:",
			functionName, joinContext(chunks))},
	}
	return c.chat.Generate(ctx, messages, c.temperature, c.maxTokens)
}

// Explain answers a free-form question about the codebase with a structured
// JSON explanation, parsed into an Explanation.
func (c *Composer) Explain(ctx context.Context, query string) (*Explanation, string, error) {
	chunks, err := c.retriever.Retrieve(ctx, query, explainTopK)
	if err != nil {
		return nil, "", fmt.Errorf("retrieve context: %w", err)
	}
	c.log.Debug("composing structured explanation",
		zap.String("query", query),
		zap.Int("chunks", len(chunks)))

	messages := []Message{
		{Role: "system", Content: structuredSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("**User Question**:\n%s\n\n**Relevant Code Context**:\n%s\n\n**Your Explanation**:",
			query, joinContext(chunks))},
	}
	raw, err := c.chat.Generate(ctx, messages, c.temperature, c.maxTokens)
	if err != nil {
		return nil, "", err
	}

	explanation, err := ParseExplanation(raw)
	if err != nil {
		return nil, raw, err
	}
	return explanation, raw, nil
}

// joinContext concatenates chunk contents, capped at contextCharLimit.
func joinContext(chunks []vectorstore.Metadata) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	joined := strings.Join(parts, "\n\n")
	if len(joined) > contextCharLimit {
		joined = joined[:contextCharLimit]
	}
	return joined
}
