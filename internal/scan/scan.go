// Package scan finds project mentions inside Notion block trees.
package scan

import (
	"github.com/flemzord/scrumroll/internal/notion"
)

// Result is the outcome of scanning one block tree. Keys are tracked project
// page IDs; only mentioned projects appear.
type Result struct {
	// Captured holds the blocks that mention each project, in scan order.
	Captured map[string][]notion.Block

	// Mentions counts matching rich-text fragments per project. A block
	// mentioning the same project twice counts twice but is captured once.
	Mentions map[string]int
}

// Total returns the number of matching fragments across all projects.
func (r Result) Total() int {
	total := 0
	for _, n := range r.Mentions {
		total += n
	}
	return total
}

// Projects returns the mentioned project IDs in the order given.
func (r Result) Projects(order []string) []string {
	var ids []string
	for _, id := range order {
		if r.Mentions[id] > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// Scan walks the block tree breadth-first and captures every block whose
// rich text mentions a tracked project. Captured blocks keep their nested
// children, so a mention pulls its whole sub-tree into the capture; child
// blocks are still visited on their own, since a deeper mention of another
// project must not be shadowed by its parent.
func Scan(blocks []notion.Block, tracked []string) (Result, error) {
	isTracked := make(map[string]bool, len(tracked))
	for _, id := range tracked {
		isTracked[id] = true
	}

	result := Result{
		Captured: map[string][]notion.Block{},
		Mentions: map[string]int{},
	}

	queue := make([]notion.Block, len(blocks))
	copy(queue, blocks)

	for len(queue) > 0 {
		block := queue[0]
		queue = queue[1:]

		content, err := block.Content()
		if err != nil {
			return Result{}, err
		}

		captured := map[string]bool{}
		for _, fragment := range content.RichText {
			id := fragment.MentionedPageID()
			if id == "" || !isTracked[id] {
				continue
			}
			result.Mentions[id]++
			if !captured[id] {
				result.Captured[id] = append(result.Captured[id], block)
				captured[id] = true
			}
		}

		queue = append(queue, content.Children...)
	}

	return result, nil
}
