// Package pdb reads fixed-column PDB coordinate files into domain poses.
//
// Only the records needed for interface analysis are interpreted: ATOM,
// HETATM, MODEL and ENDMDL. Everything else is skipped. A malformed
// coordinate or residue number fails the whole file.
package pdb

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/ahrav/go-posescore/internal/domain"
)

// Column ranges of an ATOM/HETATM record, as 0-based half-open offsets.
const (
	colNameStart    = 12
	colNameEnd      = 16
	colAltLoc       = 16
	colResNameStart = 17
	colResNameEnd   = 20
	colChainID      = 21
	colResSeqStart  = 22
	colResSeqEnd    = 26
	colICode        = 26
	colXStart       = 30
	colYStart       = 38
	colZStart       = 46
	colZEnd         = 54
	colElementStart = 76
	colElementEnd   = 78
	colModelStart   = 10
	colModelEnd     = 14
)

const maxLineBytes = 1 << 20

// Parse reads a PDB stream into a Pose identified by path.
//
// A stream with no atom records parses successfully into a pose with no
// models. Errors wrap domain.ErrParse and carry the offending line number.
func Parse(r io.Reader, path string) (*domain.Pose, error) {
	b := newBuilder(path)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		switch recordName(line) {
		case "MODEL":
			serial := len(b.pose.Models) + 1
			if f := field(line, colModelStart, colModelEnd); f != "" {
				n, err := strconv.Atoi(f)
				if err != nil {
					return nil, parseErr(path, lineNo, "invalid model serial %q", f)
				}
				serial = n
			}
			b.startModel(serial)
		case "ENDMDL":
			b.endModel()
		case "ATOM", "HETATM":
			rec, err := parseAtomRecord(line)
			if err != nil {
				return nil, domain.NewPoseError(path, lineNo, err)
			}
			b.addAtom(rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, domain.NewPoseError(path, lineNo+1, fmt.Errorf("%w: %v", domain.ErrParse, err))
	}
	return b.pose, nil
}

func parseErr(path string, line int, format string, args ...any) error {
	return domain.NewPoseError(path, line, fmt.Errorf("%w: %s", domain.ErrParse, fmt.Sprintf(format, args...)))
}

func recordName(line string) string {
	if len(line) >= 6 {
		return strings.TrimSpace(line[:6])
	}
	return strings.TrimSpace(line)
}

// field returns the trimmed column range [start, end), clipped to the line.
func field(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(line[start:end])
}

func column(line string, i int) byte {
	if i >= len(line) {
		return ' '
	}
	return line[i]
}

type atomRecord struct {
	hetero  bool
	name    string
	rawName string
	altLoc  byte
	resName string
	chainID string
	resSeq  int
	iCode   string
	element string
	coord   domain.Vec3
}

func parseAtomRecord(line string) (atomRecord, error) {
	if len(line) < colZEnd {
		return atomRecord{}, fmt.Errorf("%w: atom record truncated at %d columns", domain.ErrParse, len(line))
	}

	rec := atomRecord{
		hetero:  recordName(line) == "HETATM",
		rawName: line[colNameStart:colNameEnd],
		altLoc:  column(line, colAltLoc),
		resName: strings.ToUpper(field(line, colResNameStart, colResNameEnd)),
		chainID: string(column(line, colChainID)),
		iCode:   field(line, colICode, colICode+1),
	}
	rec.name = strings.TrimSpace(rec.rawName)

	seq := field(line, colResSeqStart, colResSeqEnd)
	n, err := strconv.Atoi(seq)
	if err != nil {
		return atomRecord{}, fmt.Errorf("%w: invalid residue number %q", domain.ErrParse, seq)
	}
	rec.resSeq = n

	var xyz [3]float64
	for i, start := range [3]int{colXStart, colYStart, colZStart} {
		raw := field(line, start, start+8)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return atomRecord{}, fmt.Errorf("%w: invalid coordinate %q", domain.ErrParse, raw)
		}
		xyz[i] = v
	}
	rec.coord = domain.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}

	rec.element = strings.ToUpper(field(line, colElementStart, colElementEnd))
	if rec.element == "" {
		rec.element = inferElement(rec.rawName, rec.hetero)
	}
	return rec, nil
}

// inferElement derives an element symbol from the four-column atom name
// when the element columns are blank. Names right-justified into column 14
// are single-letter elements; left-justified hetero names may be two-letter
// (FE, ZN, CL).
func inferElement(rawName string, hetero bool) string {
	if rawName == "" {
		return ""
	}
	first := rune(rawName[0])
	if first == ' ' || unicode.IsDigit(first) {
		if len(rawName) > 1 {
			return strings.ToUpper(string(rawName[1]))
		}
		return ""
	}
	letters := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, rawName)
	if hetero && len(letters) >= 2 {
		return letters[:2]
	}
	if letters == "" {
		return ""
	}
	return letters[:1]
}

type residueKey struct {
	seq    int
	iCode  string
	name   string
	hetero bool
}

// builder assembles models, chains and residues in order of first
// appearance.
type builder struct {
	pose    *domain.Pose
	open    bool
	chains  map[string]int
	residue map[string]map[residueKey]int
}

func newBuilder(path string) *builder {
	return &builder{pose: &domain.Pose{Path: path}}
}

func (b *builder) startModel(serial int) {
	b.pose.Models = append(b.pose.Models, domain.Model{Serial: serial})
	b.open = true
	b.chains = make(map[string]int)
	b.residue = make(map[string]map[residueKey]int)
}

func (b *builder) endModel() { b.open = false }

func (b *builder) addAtom(rec atomRecord) {
	if !b.open {
		b.startModel(len(b.pose.Models) + 1)
	}
	model := &b.pose.Models[len(b.pose.Models)-1]

	ci, ok := b.chains[rec.chainID]
	if !ok {
		model.Chains = append(model.Chains, domain.Chain{ID: rec.chainID})
		ci = len(model.Chains) - 1
		b.chains[rec.chainID] = ci
		b.residue[rec.chainID] = make(map[residueKey]int)
	}
	chain := &model.Chains[ci]

	key := residueKey{seq: rec.resSeq, iCode: rec.iCode, name: rec.resName, hetero: rec.hetero}
	ri, ok := b.residue[rec.chainID][key]
	if !ok {
		chain.Residues = append(chain.Residues, domain.Residue{
			Name:          rec.resName,
			SeqNum:        rec.resSeq,
			InsertionCode: rec.iCode,
			Hetero:        rec.hetero,
		})
		ri = len(chain.Residues) - 1
		b.residue[rec.chainID][key] = ri
	}
	res := &chain.Residues[ri]

	// Alternate locations after the first are dropped.
	if rec.altLoc != ' ' {
		for _, a := range res.Atoms {
			if a.Name == rec.name {
				return
			}
		}
	}
	res.Atoms = append(res.Atoms, domain.Atom{Name: rec.name, Element: rec.element, Coord: rec.coord})
}
