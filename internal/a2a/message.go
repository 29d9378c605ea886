package a2a

import (
	"encoding/json"
	"strings"
)

// invocation is one explicit skill call extracted from a message part.
type invocation struct {
	Skill  string
	Params json.RawMessage
}

// parsedMessage is the routing view of an inbound message: the
// concatenated natural-language text and any explicit skill invocations.
// When invocations are present they win; the text is kept only as task
// metadata.
type parsedMessage struct {
	Text        string
	Invocations []invocation
}

func (m parsedMessage) explicit() bool { return len(m.Invocations) > 0 }

func (m parsedMessage) skillNames() []string {
	names := make([]string, len(m.Invocations))
	for i, inv := range m.Invocations {
		names[i] = inv.Skill
	}
	return names
}

// skillData is the recognized shape of a data part carrying an explicit
// invocation. "input" is the current key; "parameters" the legacy one.
type skillData struct {
	Skill      string          `json:"skill"`
	Input      json.RawMessage `json:"input"`
	Parameters json.RawMessage `json:"parameters"`
}

// parseMessage walks the ordered parts, concatenating text and
// collecting skill invocations. Data parts without a skill key are
// ignored rather than rejected; clients use them for annotations.
func parseMessage(msg Message) parsedMessage {
	var (
		texts []string
		out   parsedMessage
	)
	for _, p := range msg.Parts {
		switch p.discriminator() {
		case "text":
			if t := strings.TrimSpace(p.Text); t != "" {
				texts = append(texts, t)
			}
		case "data":
			var d skillData
			if err := json.Unmarshal(p.Data, &d); err != nil || d.Skill == "" {
				continue
			}
			params := d.Input
			if len(params) == 0 {
				params = d.Parameters
			}
			out.Invocations = append(out.Invocations, invocation{Skill: d.Skill, Params: params})
		}
	}
	out.Text = strings.Join(texts, " ")
	return out
}
