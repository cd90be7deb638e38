package aggregate

import (
	"testing"
	"time"

	"github.com/flemzord/scrumroll/internal/notion"
	"github.com/flemzord/scrumroll/internal/scan"
)

func scanOf(t *testing.T, blocks []notion.Block, tracked []string) scan.Result {
	t.Helper()
	result, err := scan.Scan(blocks, tracked)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	return result
}

func TestDigestBodyShape(t *testing.T) {
	tracked := []string{apollo, borealis}
	d := newDigest(tracked, time.UTC, "")

	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	d.addEntry(created, scanOf(t, []notion.Block{
		notion.Paragraph(notion.TextFragment("shipped "), notion.PageMention(apollo)),
	}, tracked))

	body := d.body()
	if len(body) != 1 {
		t.Fatalf("len(body) = %d, want 1", len(body))
	}
	heading := body[0]
	if heading.Type != "heading_1" {
		t.Errorf("Type = %q, want %q", heading.Type, "heading_1")
	}

	content, err := heading.Content()
	if err != nil {
		t.Fatalf("Content() error: %v", err)
	}
	if got := content.RichText[0].MentionedPageID(); got != apollo {
		t.Errorf("heading mention = %q, want %q", got, apollo)
	}
	if len(content.Children) != 2 {
		t.Fatalf("len(Children) = %d, want date paragraph + capture", len(content.Children))
	}

	// First child carries the entry's creation time as a date mention.
	dateContent, err := content.Children[0].Content()
	if err != nil {
		t.Fatalf("Content() error: %v", err)
	}
	mention := dateContent.RichText[0].Mention
	if mention == nil || mention.Date == nil {
		t.Fatal("first child is not a date mention")
	}
	if got := mention.Date.Start; got != "2024-03-01T09:30:00Z" {
		t.Errorf("date mention start = %q, want %q", got, "2024-03-01T09:30:00Z")
	}
}

func TestDigestKeepsTrackedOrder(t *testing.T) {
	tracked := []string{apollo, borealis}
	d := newDigest(tracked, time.UTC, "")

	// Borealis is mentioned first in the document; the digest still lists
	// projects in tracked order.
	d.addEntry(time.Now(), scanOf(t, []notion.Block{
		notion.Paragraph(notion.PageMention(borealis)),
		notion.Paragraph(notion.PageMention(apollo)),
	}, tracked))

	ids := d.projectIDs()
	if len(ids) != 2 || ids[0] != apollo || ids[1] != borealis {
		t.Errorf("projectIDs() = %v, want tracked order", ids)
	}

	body := d.body()
	if len(body) != 2 {
		t.Fatalf("len(body) = %d, want 2", len(body))
	}
	content, err := body[0].Content()
	if err != nil {
		t.Fatalf("Content() error: %v", err)
	}
	if got := content.RichText[0].MentionedPageID(); got != apollo {
		t.Errorf("first heading = %q, want %q", got, apollo)
	}
}

func TestDigestMultipleEntriesOneProject(t *testing.T) {
	tracked := []string{apollo}
	d := newDigest(tracked, time.UTC, "")

	morning := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	d.addEntry(morning, scanOf(t, []notion.Block{notion.Paragraph(notion.PageMention(apollo))}, tracked))
	d.addEntry(evening, scanOf(t, []notion.Block{notion.Paragraph(notion.PageMention(apollo))}, tracked))

	if got := d.total(); got != 2 {
		t.Errorf("total() = %d, want 2", got)
	}

	body := d.body()
	if len(body) != 1 {
		t.Fatalf("len(body) = %d, want one heading", len(body))
	}
	content, err := body[0].Content()
	if err != nil {
		t.Fatalf("Content() error: %v", err)
	}
	// Each entry contributes its own date paragraph plus capture.
	if len(content.Children) != 4 {
		t.Errorf("len(Children) = %d, want 4", len(content.Children))
	}
}

func TestDigestEmpty(t *testing.T) {
	d := newDigest([]string{apollo}, time.UTC, "")
	if got := d.total(); got != 0 {
		t.Errorf("total() = %d, want 0", got)
	}
	if ids := d.projectIDs(); len(ids) != 0 {
		t.Errorf("projectIDs() = %v, want empty", ids)
	}
	if body := d.body(); len(body) != 0 {
		t.Errorf("len(body) = %d, want 0", len(body))
	}
}
