package notion

import "github.com/google/uuid"

// NormalizeID converts a page or database reference to canonical dashed UUID
// form. Notion URLs carry IDs as 32 hex characters without dashes; the API
// accepts both, but deduplication and comparison need a single form.
func NormalizeID(ref string) (string, error) {
	id, err := uuid.Parse(ref)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsID reports whether ref parses as a Notion object ID. References that are
// not IDs are treated as titles and resolved through search.
func IsID(ref string) bool {
	_, err := uuid.Parse(ref)
	return err == nil
}
