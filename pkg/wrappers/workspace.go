package wrappers

import (
	"strings"

	"github.com/user/hecvat-adk/pkg/adk"
	"github.com/user/hecvat-adk/pkg/engine"
)

// Workspace is the state shared by the assessment tools: the engine that
// produced the assessment, its result, and the snapshot archive (may be nil).
type Workspace struct {
	Engine     *engine.Engine
	Assessment *engine.Assessment
	Store      engine.SnapshotStore
}

// All returns every assessment tool bound to ws.
func All(ws *Workspace) []adk.Tool {
	return []adk.Tool{
		&ScoresWrapper{WS: ws},
		&ProjectionWrapper{WS: ws},
		&RemediationWrapper{WS: ws},
		&LookupQuestionWrapper{WS: ws},
		&SaveSnapshotWrapper{WS: ws},
		&DiffSnapshotWrapper{WS: ws},
	}
}

const notInitialized = "Error: no assessment loaded. Run 'hecvat-adk assess' first."

func (ws *Workspace) ready() bool {
	return ws != nil && ws.Engine != nil && ws.Assessment != nil && ws.Assessment.Current != nil
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func parseTier(s string) (engine.Tier, bool) {
	for _, t := range engine.Tiers {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(strings.ReplaceAll(s, "_", "-"), string(t)) {
			return t, true
		}
	}
	return "", false
}
