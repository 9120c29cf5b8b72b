package minutiae

import "slices"

// Collection is an ordered sequence of minutiae. Order is significant:
// encoders write positional indices from it and deletions address entries
// by index.
//
// A Collection is owned by a single session and is not safe for concurrent
// use.
type Collection struct {
	items []Minutia
}

// NewCollection creates a collection holding the given minutiae in order
func NewCollection(ms ...Minutia) *Collection {
	return &Collection{items: slices.Clone(ms)}
}

// Len returns the number of minutiae
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// At returns the minutia at index i
func (c *Collection) At(i int) Minutia {
	return c.items[i]
}

// All returns a copy of the minutiae in collection order
func (c *Collection) All() []Minutia {
	if c == nil {
		return nil
	}
	return slices.Clone(c.items)
}

// Append adds a minutia to the end of the collection
func (c *Collection) Append(m Minutia) {
	c.items = append(c.items, m)
}

// RemoveAt removes the minutia at index i, preserving the order of the
// remaining entries. Returns false if i is out of range.
func (c *Collection) RemoveAt(i int) (Minutia, bool) {
	if i < 0 || i >= len(c.items) {
		return Minutia{}, false
	}
	m := c.items[i]
	c.items = slices.Delete(c.items, i, i+1)
	return m, true
}

// Replace swaps the contents of the collection for a copy of other's
func (c *Collection) Replace(other *Collection) {
	c.items = other.All()
}

// Clear removes every minutia
func (c *Collection) Clear() {
	c.items = nil
}

// Clone returns an independent copy of the collection
func (c *Collection) Clone() *Collection {
	return &Collection{items: c.All()}
}

// Count returns the number of minutiae of the given type
func (c *Collection) Count(t Type) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, m := range c.items {
		if m.Type == t {
			n++
		}
	}
	return n
}
