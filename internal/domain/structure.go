package domain

import "math"

// Vec3 is a Cartesian coordinate in Ångström.
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Distance returns the Euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float64 { return v.Sub(o).Norm() }

// Atom is a single atomic record of a pose.
type Atom struct {
	// Name is the trimmed atom name (e.g. "CA", "NZ").
	Name string `json:"name"`

	// Element is the upper-cased element symbol (e.g. "C", "FE").
	Element string `json:"element"`

	// Coord is the atom position in Ångström.
	Coord Vec3 `json:"coord"`
}

// IsHydrogen reports whether the atom is a hydrogen. Every interface
// descriptor is computed over the remaining (heavy) atoms only.
func (a Atom) IsHydrogen() bool { return a.Element == "H" }

// Residue groups the atoms of one chemical unit within a chain.
type Residue struct {
	// Name is the three-letter residue name (e.g. "LYS", "HOH").
	Name string `json:"name"`

	// SeqNum is the residue sequence number.
	SeqNum int `json:"seq_num"`

	// InsertionCode disambiguates residues sharing a sequence number.
	InsertionCode string `json:"insertion_code,omitempty"`

	// Hetero is true for heteroatom groups (ligands, waters, ions) and
	// false for standard polymer residues.
	Hetero bool `json:"hetero"`

	// Atoms holds the residue atoms in file order.
	Atoms []Atom `json:"atoms"`
}

// Chain is one molecular component of a pose.
type Chain struct {
	// ID is the single-character chain identifier; a blank identifier is a
	// valid chain of its own.
	ID string `json:"id"`

	// Residues holds the chain residues in order of first appearance.
	Residues []Residue `json:"residues"`
}

// AtomCount returns the total number of atoms in the chain, hydrogens
// included.
func (c Chain) AtomCount() int {
	n := 0
	for _, r := range c.Residues {
		n += len(r.Atoms)
	}
	return n
}

// Model is one frame of a structure file.
type Model struct {
	// Serial is the model number from the MODEL record, or 1 when the file
	// carries no MODEL records.
	Serial int `json:"serial"`

	// Chains holds the chains in order of first appearance.
	Chains []Chain `json:"chains"`
}

// Pose is a candidate 3D arrangement of a multi-chain complex as read from
// one pose source. A Pose is never mutated after parsing.
type Pose struct {
	// Path identifies the source the pose was read from.
	Path string `json:"path"`

	// Models holds every model in the source; only the first is scored.
	Models []Model `json:"models"`
}

// FirstModel returns the first model of the pose and false when the pose
// contains no models at all.
func (p *Pose) FirstModel() (*Model, bool) {
	if len(p.Models) == 0 {
		return nil, false
	}
	return &p.Models[0], true
}
