package notion

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Block is a Notion block. The API keys the type-specific payload under the
// block's type name ({"type":"paragraph","paragraph":{...}}), so the payload
// is kept raw: blocks captured from one page can be re-posted to another
// without modeling (and silently dropping) every payload field of every
// block type.
type Block struct {
	Object         string     `json:"-"`
	ID             string     `json:"-"`
	Type           string     `json:"-"`
	HasChildren    bool       `json:"-"`
	Archived       bool       `json:"-"`
	CreatedTime    *time.Time `json:"-"`
	LastEditedTime *time.Time `json:"-"`

	// Value is the payload stored under the Type key.
	Value json.RawMessage `json:"-"`
}

// blockHeader carries the fixed block fields through JSON encoding.
type blockHeader struct {
	Object         string     `json:"object,omitempty"`
	ID             string     `json:"id,omitempty"`
	Type           string     `json:"type"`
	HasChildren    bool       `json:"has_children,omitempty"`
	Archived       bool       `json:"archived,omitempty"`
	CreatedTime    *time.Time `json:"created_time,omitempty"`
	LastEditedTime *time.Time `json:"last_edited_time,omitempty"`
}

// MarshalJSON writes the fixed fields plus the payload under the type key.
func (b Block) MarshalJSON() ([]byte, error) {
	if b.Type == "" {
		return nil, errors.New("notion: cannot marshal block without a type")
	}

	header, err := json.Marshal(blockHeader{
		Object:         b.Object,
		ID:             b.ID,
		Type:           b.Type,
		HasChildren:    b.HasChildren,
		Archived:       b.Archived,
		CreatedTime:    b.CreatedTime,
		LastEditedTime: b.LastEditedTime,
	})
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(header, &fields); err != nil {
		return nil, err
	}

	payload := b.Value
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	fields[b.Type] = payload

	return json.Marshal(fields)
}

// UnmarshalJSON reads the fixed fields and pulls the payload from under the
// type key, leaving payloads of unknown block types intact.
func (b *Block) UnmarshalJSON(data []byte) error {
	var header blockHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	b.Object = header.Object
	b.ID = header.ID
	b.Type = header.Type
	b.HasChildren = header.HasChildren
	b.Archived = header.Archived
	b.CreatedTime = header.CreatedTime
	b.LastEditedTime = header.LastEditedTime
	b.Value = fields[header.Type]
	return nil
}

// Stripped returns a copy reduced to object, type, and payload — the only
// fields the API accepts when the block is re-posted as new content.
func (b Block) Stripped() Block {
	return Block{Object: b.Object, Type: b.Type, Value: b.Value}
}

// BlockContent is the slice of a type payload shared by the rich-text block
// types (paragraph, headings, list items, to_do, toggle, callout, quote,
// code, ...). Probing a payload that has neither field yields zero values,
// which is fine: such blocks simply cannot carry mentions.
type BlockContent struct {
	RichText []RichText `json:"rich_text,omitempty"`
	Children []Block    `json:"children,omitempty"`
}

// Content decodes the shared rich-text fields from the payload.
func (b Block) Content() (BlockContent, error) {
	var c BlockContent
	if len(b.Value) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(b.Value, &c); err != nil {
		return c, fmt.Errorf("notion: decode %s payload: %w", b.Type, err)
	}
	return c, nil
}

// WithChildren returns a copy whose payload carries the given child blocks.
// Children must be nested inside the type payload, not as a top-level block
// field, for the create and append endpoints to accept them.
func (b Block) WithChildren(children []Block) (Block, error) {
	payload := map[string]json.RawMessage{}
	if len(b.Value) > 0 {
		if err := json.Unmarshal(b.Value, &payload); err != nil {
			return Block{}, fmt.Errorf("notion: decode %s payload: %w", b.Type, err)
		}
	}

	raw, err := json.Marshal(children)
	if err != nil {
		return Block{}, fmt.Errorf("notion: marshal children: %w", err)
	}
	payload["children"] = raw

	merged, err := json.Marshal(payload)
	if err != nil {
		return Block{}, fmt.Errorf("notion: merge %s payload: %w", b.Type, err)
	}

	out := b
	out.Value = merged
	return out, nil
}

// paragraphPayload is the payload shape used when this tool writes its own
// paragraph and heading blocks.
type paragraphPayload struct {
	RichText     []RichText `json:"rich_text"`
	Color        string     `json:"color,omitempty"`
	IsToggleable bool       `json:"is_toggleable,omitempty"`
	Children     []Block    `json:"children,omitempty"`
}

// Paragraph builds a paragraph block from rich-text fragments.
func Paragraph(fragments ...RichText) Block {
	return mustBlock("paragraph", paragraphPayload{RichText: fragments, Color: "default"})
}

// ToggleHeading builds a toggleable heading_1 block with nested children.
func ToggleHeading(fragments []RichText, children []Block) Block {
	return mustBlock("heading_1", paragraphPayload{
		RichText:     fragments,
		Color:        "default",
		IsToggleable: true,
		Children:     children,
	})
}

// DateMention builds a rich-text fragment mentioning a point in time. When
// timeZone is an IANA name the start is formatted without a UTC offset, as
// the API requires alongside an explicit time_zone; t must already be in
// that zone.
func DateMention(t time.Time, timeZone string) RichText {
	start := t.Format(time.RFC3339)
	if timeZone != "" {
		start = t.Format("2006-01-02T15:04:05")
	}
	return RichText{
		Type: "mention",
		Mention: &Mention{
			Type: "date",
			Date: &Date{Start: start, TimeZone: timeZone},
		},
		Annotations: DefaultAnnotations(),
	}
}

// PageMention builds a rich-text fragment mentioning a page.
func PageMention(pageID string) RichText {
	return RichText{
		Type:        "mention",
		Mention:     &Mention{Type: "page", Page: &PageRef{ID: pageID}},
		Annotations: DefaultAnnotations(),
	}
}

// mustBlock marshals a payload this package constructed itself; a marshal
// failure here is a programming error, not an input error.
func mustBlock(blockType string, payload any) Block {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("notion: marshal %s payload: %v", blockType, err))
	}
	return Block{Object: "block", Type: blockType, Value: raw}
}
