package form

import (
	"strings"

	"github.com/google/uuid"
)

// TagItem is the UI view model for one tag: a stable id for list keys plus
// the text itself.
type TagItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// TagCollection keeps an ordered, duplicate-free tag list in sync with its
// canonical buffer field. The canonical form is []string, or a comma-joined
// string for legacy fields.
type TagCollection struct {
	joined bool
	items  []TagItem
}

// NewTagCollection hydrates a collection from the current buffer value of the
// field (array, comma-joined string, or nil).
func NewTagCollection(value any, joined bool) *TagCollection {
	c := &TagCollection{joined: joined}
	for _, text := range tagItems(value) {
		c.items = append(c.items, TagItem{ID: uuid.NewString(), Text: text})
	}
	return c
}

// Items returns a copy of the view items.
func (c *TagCollection) Items() []TagItem {
	out := make([]TagItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of tags.
func (c *TagCollection) Len() int { return len(c.items) }

// Add appends a tag. Empty (after trimming) or duplicate text is a no-op;
// the match is case-sensitive and exact. Returns whether the list changed.
func (c *TagCollection) Add(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, item := range c.items {
		if item.Text == text {
			return false
		}
	}
	c.items = append(c.items, TagItem{ID: uuid.NewString(), Text: text})
	return true
}

// Remove deletes the tag at index. Out-of-range indexes are a no-op.
func (c *TagCollection) Remove(index int) bool {
	if index < 0 || index >= len(c.items) {
		return false
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return true
}

// Canonical returns the buffer representation of the current list: []string,
// or a comma-joined string for legacy fields. Both forms stay length
// consistent with the view items.
func (c *TagCollection) Canonical() any {
	texts := make([]string, len(c.items))
	for i, item := range c.items {
		texts[i] = item.Text
	}
	if c.joined {
		return strings.Join(texts, ", ")
	}
	return texts
}
