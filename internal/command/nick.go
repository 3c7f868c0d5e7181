package command

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// NickComparer compares nicknames at base strength: case and diacritics are
// ignored, so "Bob", "bob", "BOB" and "Böb" are all equal.
type NickComparer struct {
	mu sync.Mutex
	c  *collate.Collator
}

// NewNickComparer returns a comparer using the collation rules of tag.
func NewNickComparer(tag language.Tag) *NickComparer {
	return &NickComparer{c: collate.New(tag, collate.Loose)}
}

// Equal reports whether a and b name the same user.
func (n *NickComparer) Equal(a, b string) bool {
	if a == b {
		return true
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.c.CompareString(a, b) == 0
}
