package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	xrate "golang.org/x/time/rate"

	"github.com/ahrav/go-posescore/infrastructure/features"
	"github.com/ahrav/go-posescore/infrastructure/pdb"
	"github.com/ahrav/go-posescore/infrastructure/posecheck"
	"github.com/ahrav/go-posescore/infrastructure/scoring"
	"github.com/ahrav/go-posescore/infrastructure/source"
	"github.com/ahrav/go-posescore/internal/ports"
)

// Services holds the collaborators of a run, built once from Config.
type Services struct {
	Source     ports.PoseSource
	Checker    ports.PoseChecker
	Featurizer ports.InterfaceFeaturizer
	Conditions ports.ConditionFeaturizer
	Model      ports.ScoringModel
}

// Dependencies returns the unit dependencies backed by s.
func (s *Services) Dependencies() Dependencies {
	return Dependencies{
		Checker:    s.Checker,
		Featurizer: s.Featurizer,
		Conditions: s.Conditions,
		Model:      s.Model,
	}
}

// NewPoseSource builds the source for pose, dataset and artifact paths.
// Local paths are always served; s3:// paths are served when enabled and
// are paced, traced and measured.
func NewPoseSource(ctx context.Context, cfg SourcesConfig, metrics ports.MetricsCollector, logger *zap.Logger) (ports.PoseSource, error) {
	local := source.Chain(source.NewFileSource(), sourceObservers("file", metrics)...)
	router := source.NewRouter(local)
	if !cfg.S3.Enabled {
		return router, nil
	}

	s3src, err := source.NewS3Source(ctx, source.S3Config{
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		PathStyle: cfg.S3.PathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 source: %w", err)
	}
	paced := source.Chain(s3src, source.RateLimitMiddleware(xrate.Limit(cfg.S3.RequestsPerSecond), cfg.S3.Burst))
	router.Register(source.SchemeS3, source.Chain(paced, sourceObservers(source.SchemeS3, metrics)...))
	if logger != nil {
		logger.Info("s3 source enabled",
			zap.String("region", cfg.S3.Region),
			zap.String("endpoint", cfg.S3.Endpoint),
			zap.Float64("requests_per_second", cfg.S3.RequestsPerSecond),
		)
	}
	return router, nil
}

func sourceObservers(backend string, metrics ports.MetricsCollector) []source.Middleware {
	mws := []source.Middleware{source.TracingMiddleware(backend)}
	if metrics != nil {
		mws = append(mws, source.MetricsMiddleware(backend, metrics))
	}
	return mws
}

// NewServices builds the checker, featurizers and model described by cfg,
// reading every path through src. Model construction failures match
// domain.ErrModelUnavailable.
func NewServices(ctx context.Context, cfg *Config, src ports.PoseSource) (*Services, error) {
	loader := pdb.NewLoader(src)

	checker, err := posecheck.NewChecker(loader, cfg.Validation.MinAtomsPerChain)
	if err != nil {
		return nil, err
	}
	featurizer, err := features.NewInterfaceFeaturizer(loader, cfg.Features)
	if err != nil {
		return nil, err
	}
	model, err := scoring.NewRegistry(src).Build(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}

	return &Services{
		Source:     src,
		Checker:    checker,
		Featurizer: featurizer,
		Conditions: ports.ConditionFeaturizerFunc(features.ConditionFeatures),
		Model:      model,
	}, nil
}
