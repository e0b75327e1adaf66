package perm

import "strings"

// Mask is the 4-bit permission bitfield attached to every grant.
type Mask uint8

const (
	Delete Mask = 1 << iota
	Create
	Modify
	Read
)

// All combines every permission bit.
const All = Read | Modify | Create | Delete

var maskNames = map[string]Mask{
	"read":   Read,
	"modify": Modify,
	"create": Create,
	"delete": Delete,
}

// FromName translates a named permission into its mask bit.
func FromName(name string) (Mask, bool) {
	m, ok := maskNames[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// Valid reports whether m has at least one bit set and no bits outside the
// 4-bit field.
func (m Mask) Valid() bool {
	return m != 0 && m&^All == 0
}

// Contains reports whether every requested bit is present in m. Partial
// overlap is not sufficient.
func (m Mask) Contains(want Mask) bool {
	return m&want == want
}

func (m Mask) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, name := range []string{"read", "modify", "create", "delete"} {
		if m.Contains(maskNames[name]) {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "+")
}
