package features

import (
	"context"
	"errors"

	"github.com/ahrav/go-posescore/infrastructure/pdb"
	"github.com/ahrav/go-posescore/internal/domain"
)

// InterfaceFeaturizer computes inter-chain contact descriptors of a pose's
// first model over heavy atoms. It holds only read-only state and is safe
// for concurrent use.
type InterfaceFeaturizer struct {
	loader  *pdb.Loader
	cfg     Config
	classes *ResidueClasses
}

// NewInterfaceFeaturizer creates a featurizer reading poses through loader.
func NewInterfaceFeaturizer(loader *pdb.Loader, cfg Config) (*InterfaceFeaturizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &InterfaceFeaturizer{
		loader:  loader,
		cfg:     cfg,
		classes: NewResidueClasses(cfg.Residues),
	}, nil
}

// Features loads the pose at path and featurizes it. Load failures become
// missing_file or parse_error sentinel results.
func (f *InterfaceFeaturizer) Features(ctx context.Context, path string) domain.FeatureResult {
	pose, err := f.loader.Load(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrFileMissing) {
			return domain.NewDegenerateResult(path, domain.DegenerateMissingFile)
		}
		return domain.NewDegenerateResult(path, domain.DegenerateParseError)
	}
	return f.FromPose(pose)
}

// FromPose featurizes an already parsed pose.
//
// Degenerate outcomes are checked in order: no models, fewer than two
// chains, fewer than two chains with heavy atoms. Otherwise every heavy
// atom pair drawn from two different chains is classified: a distance
// below ClashDistance is a clash, a distance up to and including
// ContactDistance is a contact, and contacts between two standard residues
// are further typed as hydrophobic or salt bridge.
func (f *InterfaceFeaturizer) FromPose(pose *domain.Pose) domain.FeatureResult {
	model, ok := pose.FirstModel()
	if !ok {
		return domain.NewDegenerateResult(pose.Path, domain.DegenerateNoModels)
	}
	if len(model.Chains) < 2 {
		return domain.NewDegenerateResult(pose.Path, domain.DegenerateSingleChain)
	}

	sites, centroids := heavySites(model)
	if len(centroids) < 2 {
		return domain.NewDegenerateResult(pose.Path, domain.DegenerateNoInterfacePairs)
	}

	var contacts, hydrophobic, saltBridges, clashes int
	radius := max(f.cfg.ContactDistance, f.cfg.ClashDistance)
	newGrid(radius, sites).forEachInterChainPair(sites, func(a, b siteRef, d float64) {
		if d < f.cfg.ClashDistance {
			clashes++
		}
		if d > f.cfg.ContactDistance {
			return
		}
		contacts++
		if a.residue.Hetero || b.residue.Hetero {
			return
		}
		if f.classes.IsHydrophobic(a.residue.Name) && f.classes.IsHydrophobic(b.residue.Name) {
			hydrophobic++
		}
		if f.classes.IsSaltBridge(a.residue.Name, b.residue.Name) {
			saltBridges++
		}
	})

	centroidDistance := centroids[0].Distance(centroids[1])
	buried := float64(contacts) - f.cfg.ClashPenalty*float64(clashes)

	return domain.NewFeatureResult(pose.Path, domain.FeatureVector{
		{Name: domain.FeatureContactCount, Value: float64(contacts)},
		{Name: domain.FeatureHydrophobicContact, Value: float64(hydrophobic)},
		{Name: domain.FeatureSaltBridges, Value: float64(saltBridges)},
		{Name: domain.FeatureClashes, Value: float64(clashes)},
		{Name: domain.FeatureCentroidDistance, Value: centroidDistance},
		{Name: domain.FeatureApproxBuriedScore, Value: buried},
	})
}

// heavySites flattens the heavy atoms of model and returns the centroid of
// each chain that has any, in chain order.
func heavySites(model *domain.Model) ([]siteRef, []domain.Vec3) {
	var sites []siteRef
	var centroids []domain.Vec3
	for ci := range model.Chains {
		chain := &model.Chains[ci]
		var sum domain.Vec3
		n := 0
		for ri := range chain.Residues {
			res := &chain.Residues[ri]
			for _, atom := range res.Atoms {
				if atom.IsHydrogen() {
					continue
				}
				sites = append(sites, siteRef{chain: ci, residue: res, coord: atom.Coord})
				sum = sum.Add(atom.Coord)
				n++
			}
		}
		if n > 0 {
			centroids = append(centroids, sum.Scale(1/float64(n)))
		}
	}
	return sites, centroids
}

// ConditionFeatures maps solution conditions onto their four descriptors.
// It is total: every Conditions value yields a vector.
func ConditionFeatures(c domain.Conditions) domain.FeatureVector {
	cofactor := 0.0
	if c.CofactorPresent {
		cofactor = 1.0
	}
	return domain.FeatureVector{
		{Name: domain.FeaturePH, Value: c.PH},
		{Name: domain.FeatureIonicStrength, Value: c.IonicStrength},
		{Name: domain.FeatureHasCofactor, Value: cofactor},
		{Name: domain.FeatureSulfationLevel, Value: c.SulfationLevel},
	}
}
