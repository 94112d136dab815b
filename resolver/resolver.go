// Package resolver turns a script-level item identifier (kebab-case, or a
// quoted localized display name) into a concrete guest actor name plus
// optional metadata.
//
// Grounded on core/emu.go's toTitleCase (cases.Title(language.English))
// normalization helper, generalized here to the kebab-case/localized
// matching rules of spec.md §4.9.
package resolver

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var titleCaser = cases.Title(language.English)

// ItemMeta carries optional per-kind metadata a matched entry may specify
// (e.g. a default weapon modifier for an arrow alias).
type ItemMeta struct {
	WeaponModifier uint32
}

// Kind orders match priority: arrow > material > other, per spec.md §4.9.
type Kind int

const (
	KindOther Kind = iota
	KindMaterial
	KindArrow
)

// Entry is one row of the static identifier table shipped with the build.
type Entry struct {
	ID    string // kebab-case identifier, e.g. "korok-seed"
	Actor string // guest actor name, e.g. "Obj_KorokNuts"
	Kind  Kind
	Meta  *ItemMeta
}

// Resolved is what Resolve returns: the actor name plus optional metadata.
type Resolved struct {
	Actor string
	Meta  *ItemMeta
}

// QuotedResolver resolves a quoted, localized display name asynchronously;
// it owns the localized search data spec.md §4.9 says is out of scope for
// this module.
type QuotedResolver interface {
	Resolve(ctx context.Context, localizedName string) (Resolved, error)
}

// Table is the static unquoted-identifier table plus alias rules.
type Table struct {
	entries []Entry
	aliases map[string]string
}

// NewTable builds a Table from entries and an alias map (e.g.
// "korok-seed" -> "Obj_KorokNuts" bypassing entry lookup entirely).
func NewTable(entries []Entry, aliases map[string]string) *Table {
	t := &Table{entries: append([]Entry(nil), entries...), aliases: map[string]string{}}
	for k, v := range aliases {
		t.aliases[normalize(k)] = v
	}
	return t
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Resolve resolves an unquoted kebab-case identifier against the static
// table, applying alias rules first.
func (t *Table) Resolve(id string) (Resolved, error) {
	key := normalize(id)
	if actor, ok := t.aliases[key]; ok {
		return Resolved{Actor: actor}, nil
	}

	var candidates []Entry
	for _, e := range t.entries {
		if normalize(e.ID) == key {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return Resolved{}, fmt.Errorf("resolver: no entry for identifier %q", id)
	}
	best := pickBest(candidates, id)
	return Resolved{Actor: best.Actor, Meta: best.Meta}, nil
}

// ResolveFuzzy is used when an id doesn't match any entry exactly: it picks
// the best candidate by priority (arrow > material > other), then longest-
// common-substring with the search input, then shorter id, then
// lexicographic, per spec.md §4.9.
func (t *Table) ResolveFuzzy(search string) (Resolved, error) {
	if len(t.entries) == 0 {
		return Resolved{}, fmt.Errorf("resolver: empty identifier table")
	}
	best := pickBest(t.entries, search)
	return Resolved{Actor: best.Actor, Meta: best.Meta}, nil
}

// pickBest applies the tie-break chain: priority, then longest-common-
// substring length against search, then shorter id, then lexicographic.
func pickBest(candidates []Entry, search string) Entry {
	scored := append([]Entry(nil), candidates...)
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Kind != b.Kind {
			return a.Kind > b.Kind // arrow(2) > material(1) > other(0)
		}
		la := longestCommonSubstring(a.ID, search)
		lb := longestCommonSubstring(b.ID, search)
		if la != lb {
			return la > lb
		}
		if len(a.ID) != len(b.ID) {
			return len(a.ID) < len(b.ID)
		}
		return a.ID < b.ID
	})
	return scored[0]
}

// longestCommonSubstring returns the length of the longest contiguous
// substring shared between a and b (case-insensitive), via the classic
// O(len(a)*len(b)) DP table.
func longestCommonSubstring(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == "" || b == "" {
		return 0
	}
	prev := make([]int, len(b)+1)
	best := 0
	for i := 1; i <= len(a); i++ {
		cur := make([]int, len(b)+1)
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
				}
			}
		}
		prev = cur
	}
	return best
}

// TitleCase normalizes a guest direction/flag-style string to Title case,
// the way core/emu.go does for CGRA port names — reused here for
// display-only normalization of resolved actor names.
func TitleCase(s string) string {
	return titleCaser.String(s)
}

//go:embed aliases.yaml
var defaultAliasesYAML []byte

// DefaultAliases is the small, data-driven alias table spec.md §4.9
// references by example, loaded from the embedded aliases.yaml the same
// way core's program listings ship as YAML alongside the binary rather
// than as a compiled-in literal.
var DefaultAliases = mustLoadAliases(defaultAliasesYAML)

func mustLoadAliases(data []byte) map[string]string {
	out := map[string]string{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("resolver: malformed embedded aliases.yaml: %v", err))
	}
	return out
}
