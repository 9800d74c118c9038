package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidModelSelection = errors.New("invalid model selection")
	ErrEmptyCatalog          = errors.New("model catalog is empty")
)

// Entry is one numbered line of the model listing.
type Entry struct {
	Index int
	ID    string
}

func (e Entry) String() string {
	return fmt.Sprintf("%d. %s", e.Index, e.ID)
}

// Catalog is the model allow-list. The order is fixed at construction so
// the numbers shown to users stay valid for the process lifetime.
type Catalog struct {
	entries []Entry
	byID    map[string]int
}

func New(ids []string) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(ids))}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, exists := c.byID[id]; exists {
			continue
		}
		entry := Entry{Index: len(c.entries) + 1, ID: id}
		c.entries = append(c.entries, entry)
		c.byID[id] = entry.Index
	}
	if len(c.entries) == 0 {
		return nil, ErrEmptyCatalog
	}
	return c, nil
}

func (c *Catalog) Contains(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// ByIndex looks up a model by its 1-based listing number.
func (c *Catalog) ByIndex(n int) (string, bool) {
	if n < 1 || n > len(c.entries) {
		return "", false
	}
	return c.entries[n-1].ID, true
}

// Resolve maps user input to a model id. Exact ids always match; listing
// numbers ("2" or "2.") only when allowIndex is set.
func (c *Catalog) Resolve(text string, allowIndex bool) (string, bool) {
	text = strings.TrimSpace(text)
	if c.Contains(text) {
		return text, true
	}
	if !allowIndex {
		return "", false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(text, "."))
	if err != nil {
		return "", false
	}
	return c.ByIndex(n)
}

// Validate returns ErrInvalidModelSelection for ids outside the allow-list.
func (c *Catalog) Validate(id string) error {
	if !c.Contains(id) {
		return fmt.Errorf("%w: %q", ErrInvalidModelSelection, id)
	}
	return nil
}

func (c *Catalog) Listing() []Entry {
	return append([]Entry(nil), c.entries...)
}

func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.ID
	}
	return ids
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// Render formats the listing, one "n. id" per line.
func (c *Catalog) Render() string {
	lines := make([]string, len(c.entries))
	for i, e := range c.entries {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}
