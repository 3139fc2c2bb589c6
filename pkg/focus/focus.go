// Package focus holds the single expanded row of a report view and the
// opened state of its steps.
package focus

import (
	"net/url"
	"strings"

	"github.com/ethpandaops/reportoor/pkg/tree"
)

// Focus is the focused row. The zero value is unfocused. ScrollTo asks the
// view to scroll the row into view once it is rendered.
type Focus struct {
	ID       string `json:"id"`
	ScrollTo bool   `json:"scroll_to"`
}

// Active reports whether a row is focused.
func (f Focus) Active() bool {
	return f.ID != ""
}

// IsFocused reports whether id is the focused row.
func (f Focus) IsFocused(id string) bool {
	return f.ID != "" && f.ID == id
}

// Toggle handles a click on the status cell of row id: clicking the
// focused row unfocuses it, any other row takes the focus.
func (f Focus) Toggle(id string) Focus {
	if f.IsFocused(id) {
		return Focus{}
	}

	return Focus{ID: id, ScrollTo: true}
}

// WithoutScroll keeps the focused row but drops a pending scroll.
func (f Focus) WithoutScroll() Focus {
	f.ScrollTo = false

	return f
}

// Initial derives the focus of a freshly mounted view. A fragment naming a
// known row focuses it with scroll. Otherwise a report holding exactly one
// test focuses that test, scrolling when scrollOnSingleTest is set.
// Unknown fragments are ignored.
func Initial(idx *tree.Index, fragment string, scrollOnSingleTest bool) Focus {
	if id := normalizeFragment(fragment); id != "" {
		if ref, ok := idx.Lookup(id); ok {
			return Focus{ID: ref.ID, ScrollTo: true}
		}
	}

	if idx.TestCount() != 1 {
		return Focus{}
	}

	for ref := range idx.Tests() {
		return Focus{ID: ref.ID, ScrollTo: scrollOnSingleTest}
	}

	return Focus{}
}

func normalizeFragment(fragment string) string {
	fragment = strings.TrimPrefix(strings.TrimSpace(fragment), "#")

	if unescaped, err := url.PathUnescape(fragment); err == nil {
		return unescaped
	}

	return fragment
}
