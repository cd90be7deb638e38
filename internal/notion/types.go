package notion

import (
	"encoding/json"
	"strings"
	"time"
)

// Page is a Notion page object. Pages are the rows of a database; the
// aggregator and pruner only care about identity, the two lifecycle
// timestamps, and a handful of property values.
type Page struct {
	Object         string                   `json:"object,omitempty"`
	ID             string                   `json:"id"`
	CreatedTime    time.Time                `json:"created_time"`
	LastEditedTime time.Time                `json:"last_edited_time"`
	Archived       bool                     `json:"archived,omitempty"`
	URL            string                   `json:"url,omitempty"`
	Parent         *Parent                  `json:"parent,omitempty"`
	Properties     map[string]PropertyValue `json:"properties,omitempty"`
}

// Untouched reports whether the page has never been edited since creation.
// Template-generated pages keep identical timestamps until a human touches
// them, which is what makes this a usable staleness signal.
func (p Page) Untouched() bool {
	return p.LastEditedTime.Equal(p.CreatedTime)
}

// Parent identifies where a page or block lives.
type Parent struct {
	Type       string `json:"type,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
	Workspace  bool   `json:"workspace,omitempty"`
}

// PropertyValue is a single database property value on a page. Only the
// property types this tool reads or writes are modeled; Type discriminates.
// Relation uses omitzero so an empty (non-nil) slice still serializes,
// which is how a relation is cleared.
type PropertyValue struct {
	ID       string     `json:"id,omitempty"`
	Type     string     `json:"type,omitempty"`
	Title    []RichText `json:"title,omitempty"`
	RichText []RichText `json:"rich_text,omitempty"`
	Number   *float64   `json:"number,omitempty"`
	Date     *Date      `json:"date,omitempty"`
	Relation []PageRef  `json:"relation,omitzero"`
}

// NumberValue returns the number property value, or 0 when unset.
func (p PropertyValue) NumberValue() float64 {
	if p.Number == nil {
		return 0
	}
	return *p.Number
}

// TitleProperty builds a title property value from plain text.
func TitleProperty(text string) PropertyValue {
	return PropertyValue{Title: []RichText{TextFragment(text)}}
}

// NumberProperty builds a number property value.
func NumberProperty(n float64) PropertyValue {
	return PropertyValue{Number: &n}
}

// DateProperty builds a date property value from an ISO date string.
func DateProperty(start string) PropertyValue {
	return PropertyValue{Date: &Date{Start: start}}
}

// RelationProperty builds a relation property value from page IDs.
func RelationProperty(ids []string) PropertyValue {
	refs := make([]PageRef, len(ids))
	for i, id := range ids {
		refs[i] = PageRef{ID: id}
	}
	return PropertyValue{Relation: refs}
}

// Database is a Notion database object, as returned by the search endpoint.
type Database struct {
	Object string     `json:"object,omitempty"`
	ID     string     `json:"id"`
	Title  []RichText `json:"title,omitempty"`
}

// PlainTitle returns the concatenated plain text of the database title.
func (d Database) PlainTitle() string {
	var sb strings.Builder
	for _, rt := range d.Title {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}

// RichText is one fragment of Notion rich text. A fragment is either plain
// text or a mention; mentions are how pages reference other pages inline.
// https://developers.notion.com/reference/rich-text
type RichText struct {
	Type        string       `json:"type,omitempty"`
	Text        *Text        `json:"text,omitempty"`
	Mention     *Mention     `json:"mention,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text,omitempty"`
	Href        string       `json:"href,omitempty"`
}

// TextFragment builds a plain text rich-text fragment.
func TextFragment(content string) RichText {
	return RichText{Type: "text", Text: &Text{Content: content}}
}

// MentionedPageID returns the page ID this fragment mentions, or "" when the
// fragment is not a page mention.
func (rt RichText) MentionedPageID() string {
	if rt.Mention == nil || rt.Mention.Page == nil {
		return ""
	}
	return rt.Mention.Page.ID
}

// Text is the payload of a plain text fragment.
type Text struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Link is an inline hyperlink on a text fragment.
type Link struct {
	URL string `json:"url"`
}

// Mention is the payload of a mention fragment. Page and date mentions are
// the only kinds this tool produces or inspects.
type Mention struct {
	Type string   `json:"type,omitempty"`
	Page *PageRef `json:"page,omitempty"`
	Date *Date    `json:"date,omitempty"`
}

// PageRef is a reference to a page by ID.
type PageRef struct {
	ID string `json:"id"`
}

// Date is a Notion date value.
// https://developers.notion.com/reference/property-value-object#date-property-values
type Date struct {
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	TimeZone string `json:"time_zone,omitempty"`
}

// Annotations holds text styling. All fields are serialized explicitly
// because the API echoes complete annotation objects on mentions.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

// DefaultAnnotations returns the no-styling annotation set.
func DefaultAnnotations() *Annotations {
	return &Annotations{Color: "default"}
}

// SearchRequest is the request body for POST /search.
type SearchRequest struct {
	Query       string        `json:"query,omitempty"`
	Filter      *SearchFilter `json:"filter,omitempty"`
	StartCursor string        `json:"start_cursor,omitempty"`
	PageSize    int           `json:"page_size,omitempty"`
}

// SearchFilter restricts search results to one object kind
// ("page" or "database").
type SearchFilter struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// SearchResponse is the paginated response of POST /search. Results mix
// pages and databases, so they stay raw until the caller picks a type.
type SearchResponse struct {
	Object     string            `json:"object"`
	Results    []json.RawMessage `json:"results"`
	NextCursor string            `json:"next_cursor"`
	HasMore    bool              `json:"has_more"`
}

// QueryRequest is the request body for POST /databases/{id}/query.
type QueryRequest struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

// Sort orders query results by a named property or by one of the page
// timestamps ("created_time", "last_edited_time").
type Sort struct {
	Property  string `json:"property,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Direction string `json:"direction"`
}

// Filter is a database query filter. Exactly one condition field should be
// set; And/Or compose nested filters.
// https://developers.notion.com/reference/post-database-query-filter
type Filter struct {
	Property    string        `json:"property,omitempty"`
	Timestamp   string        `json:"timestamp,omitempty"`
	Date        *DateFilter   `json:"date,omitempty"`
	CreatedTime *DateFilter   `json:"created_time,omitempty"`
	Number      *NumberFilter `json:"number,omitempty"`
	And         []Filter      `json:"and,omitempty"`
	Or          []Filter      `json:"or,omitempty"`
}

// DateFilter matches date and timestamp values.
type DateFilter struct {
	Equals     string `json:"equals,omitempty"`
	Before     string `json:"before,omitempty"`
	After      string `json:"after,omitempty"`
	OnOrBefore string `json:"on_or_before,omitempty"`
	OnOrAfter  string `json:"on_or_after,omitempty"`
}

// NumberFilter matches number property values.
type NumberFilter struct {
	Equals *float64 `json:"equals,omitempty"`
}

// NumberEquals builds a number equality filter condition.
func NumberEquals(n float64) *NumberFilter {
	return &NumberFilter{Equals: &n}
}

// PageList is a paginated list of pages.
type PageList struct {
	Object     string `json:"object"`
	Results    []Page `json:"results"`
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

// BlockList is a paginated list of blocks.
type BlockList struct {
	Object     string  `json:"object"`
	Results    []Block `json:"results"`
	NextCursor string  `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// CreatePageRequest is the request body for POST /pages.
type CreatePageRequest struct {
	Parent     Parent                   `json:"parent"`
	Properties map[string]PropertyValue `json:"properties"`
	Children   []Block                  `json:"children,omitempty"`
}

// UpdatePageRequest is the request body for PATCH /pages/{id}.
// A nil Archived leaves the archive state alone.
type UpdatePageRequest struct {
	Properties map[string]PropertyValue `json:"properties,omitempty"`
	Archived   *bool                    `json:"archived,omitempty"`
}

type appendChildrenRequest struct {
	Children []Block `json:"children"`
}
