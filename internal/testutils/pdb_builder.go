package testutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// PDBAtom describes one ATOM or HETATM record for fixture generation.
type PDBAtom struct {
	Hetero  bool
	Name    string
	AltLoc  string
	ResName string
	Chain   string
	ResSeq  int
	X, Y, Z float64
	Element string
}

// PDBBuilder assembles fixed-column PDB text for tests.
//
// Example:
//
//	pdb := testutils.NewPDBBuilder().
//	    Atom("A", "LYS", 1, "NZ", "N", 0, 0, 0).
//	    Atom("B", "ASP", 1, "OD1", "O", 3.5, 0, 0).
//	    String()
type PDBBuilder struct {
	lines  []string
	serial int
}

// NewPDBBuilder creates an empty builder.
func NewPDBBuilder() *PDBBuilder { return &PDBBuilder{} }

// Atom appends a standard-residue ATOM record.
func (b *PDBBuilder) Atom(chain, resName string, resSeq int, name, element string, x, y, z float64) *PDBBuilder {
	return b.Record(PDBAtom{Name: name, ResName: resName, Chain: chain, ResSeq: resSeq, X: x, Y: y, Z: z, Element: element})
}

// Hetatm appends a HETATM record.
func (b *PDBBuilder) Hetatm(chain, resName string, resSeq int, name, element string, x, y, z float64) *PDBBuilder {
	return b.Record(PDBAtom{Hetero: true, Name: name, ResName: resName, Chain: chain, ResSeq: resSeq, X: x, Y: y, Z: z, Element: element})
}

// Record appends an arbitrary atom record.
func (b *PDBBuilder) Record(a PDBAtom) *PDBBuilder {
	b.serial++
	record := "ATOM"
	if a.Hetero {
		record = "HETATM"
	}
	name := a.Name
	if len(name) < 4 {
		name = " " + name
	}
	altLoc := a.AltLoc
	if altLoc == "" {
		altLoc = " "
	}
	chain := a.Chain
	if chain == "" {
		chain = " "
	}
	b.lines = append(b.lines, fmt.Sprintf("%-6s%5d %-4s%1s%3s %1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s",
		record, b.serial, name, altLoc, a.ResName, chain, a.ResSeq, a.X, a.Y, a.Z, 1.0, 0.0, a.Element))
	return b
}

// Model opens a MODEL block.
func (b *PDBBuilder) Model(serial int) *PDBBuilder {
	b.lines = append(b.lines, fmt.Sprintf("MODEL     %4d", serial))
	return b
}

// EndModel closes a MODEL block.
func (b *PDBBuilder) EndModel() *PDBBuilder {
	b.lines = append(b.lines, "ENDMDL")
	return b
}

// Ter appends a chain terminator.
func (b *PDBBuilder) Ter() *PDBBuilder {
	b.lines = append(b.lines, "TER")
	return b
}

// Raw appends a verbatim line.
func (b *PDBBuilder) Raw(line string) *PDBBuilder {
	b.lines = append(b.lines, line)
	return b
}

// String renders the file, terminated by END.
func (b *PDBBuilder) String() string {
	return strings.Join(append(append([]string{}, b.lines...), "END"), "\n") + "\n"
}

// WriteFile writes the rendered file under dir and returns its path.
func (b *PDBBuilder) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, b.String())
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// SaltBridgePose returns a two-chain pose with a LYS NZ on chain A and an
// ASP OD1 on chain B separated by distance along x.
func SaltBridgePose(distance float64) *PDBBuilder {
	return NewPDBBuilder().
		Atom("A", "LYS", 1, "NZ", "N", 0, 0, 0).
		Ter().
		Atom("B", "ASP", 1, "OD1", "O", distance, 0, 0).
		Ter()
}

// HydrophobicPose returns the SaltBridgePose geometry with both residues
// ALA.
func HydrophobicPose(distance float64) *PDBBuilder {
	return NewPDBBuilder().
		Atom("A", "ALA", 1, "CB", "C", 0, 0, 0).
		Ter().
		Atom("B", "ALA", 1, "CB", "C", distance, 0, 0).
		Ter()
}

// SingleChainPose returns a pose whose atoms all belong to chain A.
func SingleChainPose() *PDBBuilder {
	return NewPDBBuilder().
		Atom("A", "GLY", 1, "N", "N", 0, 0, 0).
		Atom("A", "GLY", 1, "CA", "C", 1.45, 0, 0).
		Atom("A", "GLY", 1, "C", "C", 2.0, 1.4, 0)
}

// PassingPose returns a two-chain pose that passes validation at the
// default minimum of two atoms per chain. Its only contact is a LYS NZ to
// ASP OD1 salt bridge at distance, which must lie in [2, 4.5).
func PassingPose(distance float64) *PDBBuilder {
	return NewPDBBuilder().
		Atom("A", "LYS", 1, "CE", "C", -1.5, 0, 0).
		Atom("A", "LYS", 1, "NZ", "N", 0, 0, 0).
		Ter().
		Atom("B", "ASP", 1, "OD1", "O", distance, 0, 0).
		Atom("B", "ASP", 1, "CG", "C", distance+1.5, 0, 0).
		Ter()
}

// SetColumns overwrites the columns of line (0-based) starting at start
// with value. It is used to inject values the builder cannot format, such
// as non-numeric coordinates.
func SetColumns(text string, line, start int, value string) string {
	lines := strings.Split(text, "\n")
	l := lines[line]
	lines[line] = l[:start] + value + l[start+len(value):]
	return strings.Join(lines, "\n")
}

// NaNPose returns PassingPose(3.0) with the x coordinate of its first atom
// replaced by NaN.
func NaNPose() string {
	return SetColumns(PassingPose(3.0).String(), 0, 30, "     NaN")
}
