package model

import (
	"cmp"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// SortField selects the column a listing is ordered by.
type SortField int

const (
	SortBySize SortField = iota
	SortByName
	SortByCount
	SortByMtime
)

func (f SortField) String() string {
	switch f {
	case SortByName:
		return "Name"
	case SortByCount:
		return "Count"
	case SortByMtime:
		return "Mtime"
	}
	return "Size"
}

type SortOrder int

const (
	SortDesc SortOrder = iota
	SortAsc
)

// SortConfig is the interactive listing order.
type SortConfig struct {
	Field SortField
	Order SortOrder
	// DirsFirst keeps directories ahead of files whatever the field.
	DirsFirst bool
}

// DefaultSort is largest first with directories on top.
func DefaultSort() SortConfig {
	return SortConfig{Field: SortBySize, Order: SortDesc, DirsFirst: true}
}

// Toggle selects field in descending order, or flips the order when field
// is already selected.
func (c SortConfig) Toggle(field SortField) SortConfig {
	if c.Field != field {
		c.Field, c.Order = field, SortDesc
		return c
	}
	if c.Order == SortDesc {
		c.Order = SortAsc
	} else {
		c.Order = SortDesc
	}
	return c
}

func naturalCompare(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return 0
}

// SortBySizeDesc is the canonical order of published trees: apparent size
// descending, ties broken by natural name order.
func SortBySizeDesc(children []*Node) {
	slices.SortStableFunc(children, func(a, b *Node) int {
		if c := cmp.Compare(b.Size, a.Size); c != 0 {
			return c
		}
		return naturalCompare(a.Name, b.Name)
	})
}

// SortChildren orders children in place for display. Equal keys keep their
// previous relative order.
func SortChildren(children []*Node, cfg SortConfig, useApparent bool) {
	var key func(a, b *Node) int
	switch cfg.Field {
	case SortByName:
		key = func(a, b *Node) int {
			return naturalCompare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortByCount:
		key = func(a, b *Node) int { return cmp.Compare(a.ChildrenCount, b.ChildrenCount) }
	case SortByMtime:
		key = func(a, b *Node) int { return cmp.Compare(a.Mtime, b.Mtime) }
	default:
		key = func(a, b *Node) int {
			if useApparent {
				return cmp.Compare(a.Size, b.Size)
			}
			return cmp.Compare(a.Usage, b.Usage)
		}
	}

	slices.SortStableFunc(children, func(a, b *Node) int {
		if cfg.DirsFirst && a.IsDirectory != b.IsDirectory {
			if a.IsDirectory {
				return -1
			}
			return 1
		}
		if cfg.Order == SortDesc {
			return key(b, a)
		}
		return key(a, b)
	})
}
