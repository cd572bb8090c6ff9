package features

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ResidueClassConfig lists the residue names of each chemistry class.
// Names are upper-cased when compiled; lookups expect upper-case names as
// produced by the pdb parser.
type ResidueClassConfig struct {
	Hydrophobic []string `yaml:"hydrophobic" json:"hydrophobic" validate:"dive,required"`
	Positive    []string `yaml:"positive" json:"positive" validate:"dive,required"`
	Negative    []string `yaml:"negative" json:"negative" validate:"dive,required"`
}

// DefaultResidueClassConfig returns the standard amino-acid classes.
func DefaultResidueClassConfig() ResidueClassConfig {
	return ResidueClassConfig{
		Hydrophobic: []string{"ALA", "VAL", "LEU", "ILE", "PRO", "PHE", "MET", "TRP", "TYR"},
		Positive:    []string{"LYS", "ARG", "HIS"},
		Negative:    []string{"ASP", "GLU"},
	}
}

// ResidueClasses is the compiled, read-only form of ResidueClassConfig.
type ResidueClasses struct {
	hydrophobic map[string]struct{}
	positive    map[string]struct{}
	negative    map[string]struct{}
}

// NewResidueClasses compiles cfg. Empty lists yield empty classes.
func NewResidueClasses(cfg ResidueClassConfig) *ResidueClasses {
	// Casers are stateful, so each compilation gets its own.
	caser := cases.Upper(language.Und)
	return &ResidueClasses{
		hydrophobic: toSet(caser, cfg.Hydrophobic),
		positive:    toSet(caser, cfg.Positive),
		negative:    toSet(caser, cfg.Negative),
	}
}

func toSet(caser cases.Caser, names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[caser.String(n)] = struct{}{}
	}
	return set
}

// IsHydrophobic reports whether name is in the hydrophobic class.
func (rc *ResidueClasses) IsHydrophobic(name string) bool {
	return has(rc.hydrophobic, name)
}

// IsSaltBridge reports whether a and b are an oppositely charged pair, in
// either order.
func (rc *ResidueClasses) IsSaltBridge(a, b string) bool {
	return (has(rc.positive, a) && has(rc.negative, b)) ||
		(has(rc.positive, b) && has(rc.negative, a))
}

func has(set map[string]struct{}, name string) bool {
	_, ok := set[name]
	return ok
}
