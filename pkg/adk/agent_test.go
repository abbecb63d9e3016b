package adk

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	replies []*ToolCall
	seen    [][]Message
}

func (p *scriptedProvider) GenerateResponse(ctx context.Context, history []Message, tools []Tool) (string, *ToolCall, error) {
	p.seen = append(p.seen, append([]Message(nil), history...))
	if len(p.replies) == 0 {
		return "done", nil, nil
	}
	call := p.replies[0]
	p.replies = p.replies[1:]
	return "", call, nil
}

func (p *scriptedProvider) ListModels(ctx context.Context) ([]string, error) {
	return []string{"fake"}, nil
}

type echoTool struct {
	name string
	err  error
}

func (e echoTool) Name() string        { return e.name }
func (e echoTool) Description() string { return "echoes its input" }
func (e echoTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text": map[string]interface{}{"type": "string", "description": "what to echo"},
		},
		"required": []string{"text"},
	}
}
func (e echoTool) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	s, _ := args["text"].(string)
	return strings.ToUpper(s), nil
}

func TestAgentRunsToolThenAnswers(t *testing.T) {
	p := &scriptedProvider{replies: []*ToolCall{{ToolName: "Echo", Args: map[string]interface{}{"text": "hi"}}}}
	a := NewAgent(p, nil)
	a.RegisterTool(echoTool{name: "Echo"})
	a.SetSystemPrompt("be brief")

	var progress []string
	resp, err := a.Chat(context.Background(), "say hi", func(s string) { progress = append(progress, s) })
	require.NoError(t, err)
	assert.Equal(t, "done", resp)
	assert.Equal(t, []string{"running Echo"}, progress)

	require.Len(t, p.seen, 2)
	assert.Equal(t, Message{Role: "system", Content: "be brief"}, p.seen[0][0])
	last := p.seen[1][len(p.seen[1])-1]
	assert.Equal(t, "function", last.Role)
	assert.Equal(t, "Tool Echo returned: HI", last.Content)

	h := a.History()
	assert.Equal(t, "user", h[0].Role)
	assert.Equal(t, "model", h[len(h)-1].Role)
}

func TestAgentReportsUnknownAndFailingTools(t *testing.T) {
	p := &scriptedProvider{replies: []*ToolCall{
		{ToolName: "Missing"},
		{ToolName: "Broken"},
	}}
	a := NewAgent(p, nil)
	a.RegisterTool(echoTool{name: "Broken", err: errors.New("boom")})

	_, err := a.Chat(context.Background(), "go", nil)
	require.NoError(t, err)
	assert.Contains(t, p.seen[1][len(p.seen[1])-1].Content, "tool Missing not found")
	assert.Contains(t, p.seen[2][len(p.seen[2])-1].Content, "Error executing tool: boom")
}

func TestAgentStopsRunawayToolLoops(t *testing.T) {
	var calls []*ToolCall
	for i := 0; i < maxToolSteps+1; i++ {
		calls = append(calls, &ToolCall{ToolName: "Echo"})
	}
	a := NewAgent(&scriptedProvider{replies: calls}, nil)
	a.RegisterTool(echoTool{name: "Echo"})

	_, err := a.Chat(context.Background(), "loop", nil)
	assert.ErrorContains(t, err, "exceeded")
}

func TestToolsAreSorted(t *testing.T) {
	a := NewAgent(&scriptedProvider{}, nil)
	a.RegisterTool(echoTool{name: "b"})
	a.RegisterTool(echoTool{name: "a"})
	tools := a.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "a", tools[0].Name())
}

func TestFunctionDeclarationsFollowToolSchema(t *testing.T) {
	decls := functionDeclarations([]Tool{echoTool{name: "Echo"}})
	require.Len(t, decls, 1)
	params := decls[0].Parameters
	assert.Equal(t, genai.TypeObject, params.Type)
	require.Contains(t, params.Properties, "text")
	assert.Equal(t, genai.TypeString, params.Properties["text"].Type)
	assert.Equal(t, "what to echo", params.Properties["text"].Description)
	assert.Equal(t, []string{"text"}, params.Required)
}

func TestNewProviderRejectsUnknown(t *testing.T) {
	_, err := NewProvider(context.Background(), "openai", "key", "")
	assert.ErrorContains(t, err, "unknown provider: openai")
}

func TestDefaultSystemPromptNamesTools(t *testing.T) {
	for _, name := range []string{"ShowScores", "ShowProjection", "ShowRemediationPlan", "LookupQuestion", "SaveSnapshot", "CompareWithBaseline"} {
		assert.Contains(t, DefaultSystemPrompt, name)
	}
}
