package aggregate

import (
	"time"

	"github.com/flemzord/scrumroll/internal/notion"
	"github.com/flemzord/scrumroll/internal/scan"
)

// digest accumulates captured mention content for one calendar date across
// its daily entries, keyed and ordered by tracked project.
type digest struct {
	loc    *time.Location
	tzName string

	order    []string
	sections map[string]*section
	mentions int
}

type section struct {
	mentions int
	blocks   []notion.Block
}

func newDigest(projects []string, loc *time.Location, tzName string) *digest {
	d := &digest{
		loc:      loc,
		tzName:   tzName,
		order:    projects,
		sections: make(map[string]*section, len(projects)),
	}
	for _, id := range projects {
		d.sections[id] = &section{}
	}
	return d
}

// addEntry folds one daily entry's scan result into the digest. The first
// capture for a project within an entry is preceded by a paragraph carrying
// the entry's creation time as a date mention.
func (d *digest) addEntry(created time.Time, result scan.Result) {
	for _, id := range d.order {
		captured := result.Captured[id]
		if len(captured) == 0 {
			continue
		}
		sec := d.sections[id]
		sec.blocks = append(sec.blocks, notion.Paragraph(notion.DateMention(created.In(d.loc), d.tzName)))
		sec.blocks = append(sec.blocks, captured...)
		sec.mentions += result.Mentions[id]
		d.mentions += result.Mentions[id]
	}
}

// total returns the mention count across all projects.
func (d *digest) total() int {
	return d.mentions
}

// projectIDs returns the mentioned projects in tracked order.
func (d *digest) projectIDs() []string {
	var ids []string
	for _, id := range d.order {
		if d.sections[id].mentions > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// body builds the aggregate page body: one toggleable heading per mentioned
// project, titled with a page mention, holding that project's captures.
func (d *digest) body() []notion.Block {
	var blocks []notion.Block
	for _, id := range d.order {
		sec := d.sections[id]
		if len(sec.blocks) == 0 {
			continue
		}
		blocks = append(blocks, notion.ToggleHeading(
			[]notion.RichText{notion.PageMention(id)},
			sec.blocks,
		))
	}
	return blocks
}
