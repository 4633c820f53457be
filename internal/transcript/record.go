package transcript

import (
	"bytes"
	"encoding/json"
)

// Record types that carry conversation text.
const (
	TypeUser      = "user"
	TypeAssistant = "assistant"
)

// BlockText is the only content block kind whose payload is kept.
const BlockText = "text"

// Record is a single line of a Claude Code JSONL transcript.
type Record struct {
	Type    string   `json:"type"`
	Message *Message `json:"message"`
}

// Message holds the record payload. Only content is decoded; role and
// the remaining fields are ignored whatever their shape.
type Message struct {
	Content Content `json:"content"`
}

// ContentKind tells which case of Content is populated.
type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentPlainText
	ContentBlocks
)

// Content is either a plain string or an ordered list of blocks.
// Any other JSON shape decodes to ContentNone.
type Content struct {
	Kind   ContentKind
	Text   string
	Blocks []Block
}

// Block is one element of a block list. Only Type and Text are decoded;
// tool_use, tool_result, image, thinking etc. keep their payload opaque.
type Block struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (c *Content) UnmarshalJSON(data []byte) error {
	*c = Content{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		if err := json.Unmarshal(data, &c.Text); err != nil {
			return err
		}
		c.Kind = ContentPlainText
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		c.Kind = ContentBlocks
		c.Blocks = make([]Block, 0, len(raw))
		for _, r := range raw {
			var b Block
			// Non-object or oddly typed blocks are skipped, not fatal.
			if err := json.Unmarshal(r, &b); err != nil || b.Type == "" {
				continue
			}
			c.Blocks = append(c.Blocks, b)
		}
	}
	return nil
}

// texts returns the raw text units of c. String content is only accepted
// when allowPlain is set, which is the case for user records.
func (c Content) texts(allowPlain bool) []string {
	switch c.Kind {
	case ContentPlainText:
		if allowPlain {
			return []string{c.Text}
		}
	case ContentBlocks:
		var out []string
		for _, b := range c.Blocks {
			if b.Type == BlockText {
				out = append(out, b.Text)
			}
		}
		return out
	}
	return nil
}
