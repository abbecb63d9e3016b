package adk

import _ "embed"

// DefaultSystemPrompt tells the assistant which assessment tools exist and
// how to report scores.
//
//go:embed prompts/system_prompt.md
var DefaultSystemPrompt string
