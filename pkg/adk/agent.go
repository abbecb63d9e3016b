package adk

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"
)

// maxToolSteps bounds the tool calls made while answering one message.
const maxToolSteps = 8

// Tool represents an executable action for the agent
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error)
	Schema() map[string]interface{} // JSON schema for arguments
}

// ToolCall represents a request from the LLM to execute a tool
type ToolCall struct {
	ToolName string
	Args     map[string]interface{}
}

// Message represents a chat message
type Message struct {
	Role    string // "system", "user", "model", "function"
	Content string
}

// LLMProvider defines the interface for different AI models
type LLMProvider interface {
	GenerateResponse(ctx context.Context, history []Message, tools []Tool) (string, *ToolCall, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Agent is the core ADK agent
type Agent struct {
	llm          LLMProvider
	tools        map[string]Tool
	history      []Message
	systemPrompt string
	logger       hclog.Logger
}

// NewAgent creates a new agent with the given LLM provider. A nil logger
// discards output.
func NewAgent(llm LLMProvider, logger hclog.Logger) *Agent {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Agent{
		llm:    llm,
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// RegisterTool adds a tool to the agent's registry
func (a *Agent) RegisterTool(t Tool) {
	a.tools[t.Name()] = t
}

// SetSystemPrompt sets the instructions sent ahead of the conversation.
func (a *Agent) SetSystemPrompt(prompt string) {
	a.systemPrompt = prompt
}

// Tools returns the registered tools sorted by name.
func (a *Agent) Tools() []Tool {
	list := make([]Tool, 0, len(a.tools))
	for _, t := range a.tools {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// History returns the conversation so far, without the system prompt.
func (a *Agent) History() []Message {
	return append([]Message(nil), a.history...)
}

func (a *Agent) messages() []Message {
	if a.systemPrompt == "" {
		return a.history
	}
	return append([]Message{{Role: "system", Content: a.systemPrompt}}, a.history...)
}

// Chat sends a message to the agent and returns the response
func (a *Agent) Chat(ctx context.Context, input string, progress func(string)) (string, error) {
	a.history = append(a.history, Message{Role: "user", Content: input})
	tools := a.Tools()

	for step := 0; ; step++ {
		if step == maxToolSteps {
			return "", fmt.Errorf("agent exceeded %d tool calls for one message", maxToolSteps)
		}

		respText, toolCall, err := a.llm.GenerateResponse(ctx, a.messages(), tools)
		if err != nil {
			return "", err
		}

		// If the model just replied with text, we are done
		if toolCall == nil {
			a.history = append(a.history, Message{Role: "model", Content: respText})
			return respText, nil
		}

		a.logger.Debug("executing tool", "tool", toolCall.ToolName, "args", toolCall.Args)
		a.history = append(a.history, Message{
			Role:    "model",
			Content: fmt.Sprintf("I will call tool %s with args %v", toolCall.ToolName, toolCall.Args),
		})

		tool, exists := a.tools[toolCall.ToolName]
		if !exists {
			a.logger.Warn("model requested unknown tool", "tool", toolCall.ToolName)
			a.history = append(a.history, Message{Role: "function", Content: fmt.Sprintf("Error: tool %s not found", toolCall.ToolName)})
			continue
		}

		if progress != nil {
			progress(fmt.Sprintf("running %s", tool.Name()))
		}
		result, err := tool.Execute(ctx, toolCall.Args, progress)
		if err != nil {
			a.logger.Warn("tool failed", "tool", toolCall.ToolName, "error", err)
			result = fmt.Sprintf("Error executing tool: %v", err)
		}

		a.history = append(a.history, Message{
			Role:    "function",
			Content: fmt.Sprintf("Tool %s returned: %s", toolCall.ToolName, result),
		})
	}
}
