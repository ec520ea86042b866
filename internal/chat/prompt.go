package chat

import (
	"fmt"
	"os"
	"strings"
)

// defaultSystemPrompt is the built-in prompt used when no prompt file is
// configured.
const defaultSystemPrompt = `You are Betty, an assistant for questions about the engineering project portfolio. Answer from the provided knowledge base context when it is available, and say so plainly when it is not. Be concise and accurate.`

// maxPromptFileSize caps the system prompt file read.
const maxPromptFileSize = 256 * 1024

// LoadSystemPrompt reads the prompt file at path, falling back to the
// built-in prompt when path is empty.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return defaultSystemPrompt, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("system prompt file: %w", err)
	}
	if info.Size() > maxPromptFileSize {
		return "", fmt.Errorf("system prompt file %s too large: %d bytes", path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading system prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("system prompt file %s is empty", path)
	}
	return prompt, nil
}

// AugmentSystemPrompt appends the retrieved context block and the source
// citation instruction to the base prompt. With no context it returns the
// base prompt unchanged.
func AugmentSystemPrompt(base, contextBlock string, sources []string) string {
	if contextBlock == "" {
		return base
	}

	prompt := base + "\n\nRelevant context from permanent knowledge base:\n\n" + contextBlock
	if len(sources) > 0 {
		prompt += "\n\nIMPORTANT: At the end of your response, include a 'Sources:' section listing the documents you referenced: " + strings.Join(sources, ", ")
	}
	return prompt
}
