package lower

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"github.com/pine-vm/pine/internal/value"
)

// Path identifies a position inside an environment Value by a sequence of
// List indices walked from the root: Path{1, 0} means "item 1 of the
// environment, then item 0 of that". An empty Path names the environment
// itself.
type Path []int64

// Navigate walks env along p, returning the Value at that position and
// whether the walk succeeded (it fails if any step indexes into a Blob or
// past the end of a List).
func Navigate(env *value.Value, p Path) (*value.Value, bool) {
	cur := env
	for _, idx := range p {
		if cur == nil || !cur.IsList() || idx < 0 || int(idx) >= cur.Len() {
			return nil, false
		}
		cur = cur.Items()[idx]
	}
	return cur, true
}

func (p Path) equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

func (p Path) less(o Path) bool {
	for i := 0; i < len(p) && i < len(o); i++ {
		if p[i] != o[i] {
			return p[i] < o[i]
		}
	}
	return len(p) < len(o)
}

// Fact asserts that the Value found at Path within an environment equals
// Value exactly (by value.Equal).
type Fact struct {
	Path  Path
	Value *value.Value
}

// EnvConstraintID is a stable fingerprint of a Constraint's fact set,
// derived the same way value.Value derives its structural hash: from the
// facts' own content, not from the environment they were learned from.
type EnvConstraintID [32]byte

// Constraint is an ordered, deduplicated set of Facts describing a class
// of environments the PGO analyzer (package pgo) observed sharing the
// same fixed sub-values at the same positions. A Constraint with zero
// Facts is the universal constraint: it matches every environment and is
// never more specific than any other.
type Constraint struct {
	facts []Fact
}

// NewConstraint canonicalizes facts (sorted by Path, duplicate Paths
// resolved by keeping the first occurrence) into a Constraint.
func NewConstraint(facts []Fact) Constraint {
	sorted := append([]Fact(nil), facts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path.less(sorted[j].Path) })
	out := sorted[:0:0]
	for i, f := range sorted {
		if i > 0 && f.Path.equal(sorted[i-1].Path) {
			continue
		}
		out = append(out, f)
	}
	return Constraint{facts: out}
}

// Facts returns the constraint's canonical fact list. Callers must not
// mutate the returned slice.
func (c Constraint) Facts() []Fact { return c.facts }

// IsUniversal reports whether c carries no facts at all.
func (c Constraint) IsUniversal() bool { return len(c.facts) == 0 }

// Matches reports whether env satisfies every fact in c.
func (c Constraint) Matches(env *value.Value) bool {
	for _, f := range c.facts {
		got, ok := Navigate(env, f.Path)
		if !ok || !value.Equal(got, f.Value) {
			return false
		}
	}
	return true
}

// MoreSpecificThan reports whether c asserts a superset of other's facts,
// making c the preferred match when both match the same environment (spec
// §9's "most specific match" selection rule).
func (c Constraint) MoreSpecificThan(other Constraint) bool {
	if len(c.facts) <= len(other.facts) {
		return false
	}
	for _, of := range other.facts {
		found := false
		for _, f := range c.facts {
			if f.Path.equal(of.Path) && value.Equal(f.Value, of.Value) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ID computes c's EnvConstraintID.
func (c Constraint) ID() EnvConstraintID {
	h := sha256.New()
	for _, f := range c.facts {
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(f.Path)))
		h.Write(lenBuf[:])
		for _, idx := range f.Path {
			var idxBuf [8]byte
			binary.BigEndian.PutUint64(idxBuf[:], uint64(idx))
			h.Write(idxBuf[:])
		}
		vh := f.Value.Hash()
		h.Write(vh[:])
	}
	var id EnvConstraintID
	copy(id[:], h.Sum(nil))
	return id
}
