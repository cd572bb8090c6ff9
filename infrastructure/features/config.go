// Package features computes the numeric descriptors scored by the pose
// models: inter-chain interface contacts of a pose and the solution
// conditions it is scored under.
package features

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-posescore/internal/domain"
)

// validate is a package-level validator instance for struct validation.
var validate = validator.New()

// Default geometric parameters of interface featurization, in Ångström.
const (
	DefaultClashDistance   = 2.0
	DefaultContactDistance = 4.0
	DefaultClashPenalty    = 5.0
)

// Config holds the tunable parameters of interface featurization.
type Config struct {
	// ClashDistance is the exclusive upper bound for a steric clash.
	ClashDistance float64 `yaml:"clash_distance" json:"clash_distance" default:"2.0" validate:"gt=0"`

	// ContactDistance is the inclusive upper bound for a contact.
	ContactDistance float64 `yaml:"contact_distance" json:"contact_distance" default:"4.0" validate:"gt=0,gtefield=ClashDistance"`

	// ClashPenalty weighs clashes against contacts in approx_buried_score.
	ClashPenalty float64 `yaml:"clash_penalty" json:"clash_penalty" default:"5.0" validate:"gte=0"`

	// Residues classifies residue names for contact typing.
	Residues ResidueClassConfig `yaml:"residues" json:"residues"`
}

// DefaultConfig returns the standard featurization parameters.
func DefaultConfig() Config {
	return Config{
		ClashDistance:   DefaultClashDistance,
		ContactDistance: DefaultContactDistance,
		ClashPenalty:    DefaultClashPenalty,
		Residues:        DefaultResidueClassConfig(),
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: features: %v", domain.ErrInvalidConfiguration, err)
	}
	return nil
}
