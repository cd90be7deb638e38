package notion

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBlockRoundTrip(t *testing.T) {
	data := []byte(`{
		"object": "block",
		"id": "b1",
		"type": "bulleted_list_item",
		"created_time": "2024-03-01T08:00:00.000Z",
		"last_edited_time": "2024-03-01T09:30:00.000Z",
		"has_children": false,
		"archived": false,
		"bulleted_list_item": {
			"rich_text": [
				{"type": "text", "text": {"content": "hello "}, "plain_text": "hello "},
				{"type": "mention", "mention": {"type": "page", "page": {"id": "p1"}}, "plain_text": "Apollo"}
			],
			"color": "default"
		}
	}`)

	var b Block
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("unmarshal block: %v", err)
	}
	if b.ID != "b1" {
		t.Errorf("ID = %q, want %q", b.ID, "b1")
	}
	if b.Type != "bulleted_list_item" {
		t.Errorf("Type = %q, want %q", b.Type, "bulleted_list_item")
	}
	if b.CreatedTime == nil || b.CreatedTime.UTC().Hour() != 8 {
		t.Errorf("CreatedTime = %v, want 08:00 UTC", b.CreatedTime)
	}

	content, err := b.Content()
	if err != nil {
		t.Fatalf("Content() error: %v", err)
	}
	if len(content.RichText) != 2 {
		t.Fatalf("len(RichText) = %d, want 2", len(content.RichText))
	}
	if got := content.RichText[1].MentionedPageID(); got != "p1" {
		t.Errorf("MentionedPageID() = %q, want %q", got, "p1")
	}

	// Marshaling reproduces the payload under the type key.
	out, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal block: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatalf("unmarshal marshaled block: %v", err)
	}
	if _, ok := fields["bulleted_list_item"]; !ok {
		t.Error("marshaled block missing type payload")
	}
}

func TestBlockMarshalWithoutType(t *testing.T) {
	_, err := json.Marshal(Block{Object: "block"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestStrippedDropsMetadata(t *testing.T) {
	b := Block{
		Object:      "block",
		ID:          "b1",
		Type:        "paragraph",
		HasChildren: true,
		Value:       json.RawMessage(`{"rich_text":[]}`),
	}

	out, err := json.Marshal(b.Stripped())
	if err != nil {
		t.Fatalf("marshal stripped block: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatalf("unmarshal stripped block: %v", err)
	}
	for _, key := range []string{"id", "has_children", "created_time", "last_edited_time"} {
		if _, ok := fields[key]; ok {
			t.Errorf("stripped block still carries %q", key)
		}
	}
	if _, ok := fields["paragraph"]; !ok {
		t.Error("stripped block lost its payload")
	}
}

func TestWithChildrenPreservesPayload(t *testing.T) {
	b := Paragraph(TextFragment("parent"))
	nested, err := b.WithChildren([]Block{Paragraph(TextFragment("child"))})
	if err != nil {
		t.Fatalf("WithChildren() error: %v", err)
	}

	content, err := nested.Content()
	if err != nil {
		t.Fatalf("Content() error: %v", err)
	}
	if len(content.RichText) != 1 || content.RichText[0].Text.Content != "parent" {
		t.Errorf("RichText = %+v, want the original fragment", content.RichText)
	}
	if len(content.Children) != 1 {
		t.Fatalf("len(Children) = %d, want 1", len(content.Children))
	}
	if content.Children[0].Type != "paragraph" {
		t.Errorf("child type = %q, want %q", content.Children[0].Type, "paragraph")
	}
}

func TestContentOnEmptyPayload(t *testing.T) {
	b := Block{Object: "block", Type: "divider", Value: json.RawMessage(`{}`)}
	content, err := b.Content()
	if err != nil {
		t.Fatalf("Content() error: %v", err)
	}
	if len(content.RichText) != 0 || len(content.Children) != 0 {
		t.Errorf("Content() = %+v, want empty", content)
	}
}

func TestToggleHeading(t *testing.T) {
	b := ToggleHeading(
		[]RichText{PageMention("p1")},
		[]Block{Paragraph(TextFragment("entry"))},
	)
	if b.Type != "heading_1" {
		t.Errorf("Type = %q, want %q", b.Type, "heading_1")
	}

	var payload struct {
		RichText     []RichText `json:"rich_text"`
		IsToggleable bool       `json:"is_toggleable"`
		Children     []Block    `json:"children"`
	}
	if err := json.Unmarshal(b.Value, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if !payload.IsToggleable {
		t.Error("IsToggleable = false, want true")
	}
	if got := payload.RichText[0].MentionedPageID(); got != "p1" {
		t.Errorf("MentionedPageID() = %q, want %q", got, "p1")
	}
	if len(payload.Children) != 1 {
		t.Errorf("len(Children) = %d, want 1", len(payload.Children))
	}
}

func TestDateMention(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	at := time.Date(2024, 3, 1, 7, 30, 0, 0, loc)

	rt := DateMention(at, "America/Los_Angeles")
	if rt.Type != "mention" {
		t.Errorf("Type = %q, want %q", rt.Type, "mention")
	}
	if rt.Mention == nil || rt.Mention.Date == nil {
		t.Fatal("missing date mention payload")
	}
	// With an explicit time zone the start carries no UTC offset.
	if got := rt.Mention.Date.Start; got != "2024-03-01T07:30:00" {
		t.Errorf("Start = %q, want %q", got, "2024-03-01T07:30:00")
	}
	if got := rt.Mention.Date.TimeZone; got != "America/Los_Angeles" {
		t.Errorf("TimeZone = %q, want %q", got, "America/Los_Angeles")
	}
	if rt.Annotations == nil || rt.Annotations.Color != "default" {
		t.Errorf("Annotations = %+v, want default color", rt.Annotations)
	}
}

func TestDateMentionWithoutZone(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	at := time.Date(2024, 3, 1, 7, 30, 0, 0, loc)

	rt := DateMention(at, "")
	if got := rt.Mention.Date.Start; got != "2024-03-01T07:30:00-08:00" {
		t.Errorf("Start = %q, want %q", got, "2024-03-01T07:30:00-08:00")
	}
	if got := rt.Mention.Date.TimeZone; got != "" {
		t.Errorf("TimeZone = %q, want empty", got)
	}
}
