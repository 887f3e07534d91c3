package features

import (
	"fmt"

	"github.com/cognicore/lexiclass/pkg/lexiclass/internalerr"
)

// Index assigns stable, insertion-ordered integer ids to strings. It only
// grows: ids are never reused or renumbered.
type Index struct {
	items []string
	ids   map[string]int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{ids: make(map[string]int)}
}

// NewIndexFrom rebuilds an index whose ids are the positions in items.
func NewIndexFrom(items []string) (*Index, error) {
	idx := &Index{
		items: make([]string, 0, len(items)),
		ids:   make(map[string]int, len(items)),
	}
	for i, item := range items {
		if _, dup := idx.ids[item]; dup {
			return nil, fmt.Errorf("%w: duplicate entry %q at position %d", internalerr.ErrMalformedState, item, i)
		}
		idx.ids[item] = i
		idx.items = append(idx.items, item)
	}
	return idx, nil
}

// IndexOf returns the id of item, allocating the next id on first sight.
func (x *Index) IndexOf(item string) int {
	if id, ok := x.ids[item]; ok {
		return id
	}
	id := len(x.items)
	x.ids[item] = id
	x.items = append(x.items, item)
	return id
}

// Lookup returns the id of item without allocating one.
func (x *Index) Lookup(item string) (int, bool) {
	id, ok := x.ids[item]
	return id, ok
}

// At returns the item stored under id.
func (x *Index) At(id int) string {
	return x.items[id]
}

// Size returns the number of ids handed out.
func (x *Index) Size() int {
	return len(x.items)
}

// Items returns a copy of the items in id order.
func (x *Index) Items() []string {
	out := make([]string, len(x.items))
	copy(out, x.items)
	return out
}
