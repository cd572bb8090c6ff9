package posecheck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-posescore/infrastructure/pdb"
	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/testutils"
)

func TestChecker_Check(t *testing.T) {
	shortChainB := testutils.NewPDBBuilder().
		Atom("A", "GLY", 1, "N", "N", 0, 0, 0).
		Atom("A", "GLY", 1, "CA", "C", 1.4, 0, 0).
		Atom("B", "GLY", 1, "CA", "C", 5, 0, 0).
		String()
	hydrogensCount := testutils.NewPDBBuilder().
		Atom("A", "GLY", 1, "CA", "C", 0, 0, 0).
		Atom("A", "GLY", 1, "HA2", "H", 0, 1, 0).
		Atom("B", "GLY", 1, "CA", "C", 5, 0, 0).
		Atom("B", "GLY", 1, "HA2", "H", 5, 1, 0).
		String()

	src := testutils.NewMemorySource(map[string]string{
		"good.pdb":   testutils.NewPDBBuilder().Atom("A", "GLY", 1, "N", "N", 0, 0, 0).Atom("A", "GLY", 1, "CA", "C", 1, 0, 0).Atom("B", "GLY", 1, "N", "N", 5, 0, 0).Atom("B", "GLY", 1, "CA", "C", 6, 0, 0).String(),
		"single.pdb": testutils.SingleChainPose().String(),
		"short.pdb":  shortChainB,
		"hydro.pdb":  hydrogensCount,
		"empty.pdb":  "HEADER    EMPTY\n",
		"bad.pdb":    "ATOM  truncated\n",
		"nan.pdb":    testutils.NaNPose(),
	})
	checker, err := NewChecker(pdb.NewLoader(src), 2)
	require.NoError(t, err)

	tests := []struct {
		path string
		want domain.ValidationResult
	}{
		{
			path: "missing.pdb",
			want: domain.ValidationResult{PosePath: "missing.pdb"},
		},
		{
			path: "bad.pdb",
			want: domain.ValidationResult{PosePath: "bad.pdb", FileExists: true},
		},
		{
			path: "nan.pdb",
			want: domain.ValidationResult{PosePath: "nan.pdb", FileExists: true},
		},
		{
			path: "empty.pdb",
			want: domain.ValidationResult{PosePath: "empty.pdb", FileExists: true, ParsedOK: true},
		},
		{
			path: "single.pdb",
			want: domain.ValidationResult{PosePath: "single.pdb", FileExists: true, ParsedOK: true, NChains: 1},
		},
		{
			path: "short.pdb",
			want: domain.ValidationResult{PosePath: "short.pdb", FileExists: true, ParsedOK: true, NChains: 2, TwoChainInterfaceOK: true},
		},
		{
			path: "hydro.pdb",
			want: domain.ValidationResult{PosePath: "hydro.pdb", FileExists: true, ParsedOK: true, NChains: 2, AtomsPerChainOK: true, TwoChainInterfaceOK: true},
		},
		{
			path: "good.pdb",
			want: domain.ValidationResult{PosePath: "good.pdb", FileExists: true, ParsedOK: true, NChains: 2, AtomsPerChainOK: true, TwoChainInterfaceOK: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := checker.Check(context.Background(), tt.path)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Pass(), got.Pass())
		})
	}
}

func TestChecker_MinAtomsOne(t *testing.T) {
	src := testutils.NewMemorySource(map[string]string{"p.pdb": testutils.SaltBridgePose(3.5).String()})
	checker, err := NewChecker(pdb.NewLoader(src), 1)
	require.NoError(t, err)

	assert.True(t, checker.Check(context.Background(), "p.pdb").Pass())
}

func TestNewChecker_RejectsZero(t *testing.T) {
	_, err := NewChecker(nil, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestChecker_CheckPose(t *testing.T) {
	checker, err := NewChecker(nil, 1)
	require.NoError(t, err)

	res := checker.CheckPose(&domain.Pose{Path: "mem", Models: []domain.Model{{Chains: []domain.Chain{
		{ID: "A", Residues: []domain.Residue{{Atoms: []domain.Atom{{Element: "C"}}}}},
		{ID: "B", Residues: []domain.Residue{{Atoms: []domain.Atom{{Element: "C"}}}}},
	}}}})
	assert.True(t, res.Pass())
	assert.Equal(t, 2, res.NChains)
}
