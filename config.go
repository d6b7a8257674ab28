package cp3d

import (
	"errors"
	"fmt"
	"runtime"
)

// Config holds the tuning of the narrow phase and the solver.
type Config struct {
	// Shapes closer than this produce speculative contacts.
	PredictionDistance float64
	Substeps           int
	// Solve passes with position bias per substep.
	Iterations int
	// Solve passes without bias per substep.
	RelaxIterations      int
	WarmStartCoefficient float64
	// Approach speed below which no bounce is applied.
	RestitutionThreshold float64
	// Upper bound of the speed used to push overlapping bodies apart.
	MaxOverlapSolveSpeed float64

	ContactFrequency    float64
	ContactDampingRatio float64
	JointFrequency      float64
	JointDampingRatio   float64

	Gravity Vector

	// Number of steps a pair is kept after it was last seen.
	CollisionPersistence uint
	// Distance within which an unlabeled contact point continues an old one.
	MatchDistance float64

	Workers int
}

func DefaultConfig() Config {
	return Config{
		PredictionDistance:   0.005,
		Substeps:             4,
		Iterations:           1,
		RelaxIterations:      1,
		WarmStartCoefficient: 1,
		RestitutionThreshold: 1,
		MaxOverlapSolveSpeed: 4,
		ContactFrequency:     30,
		ContactDampingRatio:  10,
		JointFrequency:       60,
		JointDampingRatio:    2,
		Gravity:              Vector{0, -9.81, 0},
		CollisionPersistence: 3,
		MatchDistance:        0.05,
		Workers:              runtime.NumCPU(),
	}
}

var errInvalidConfig = errors.New("invalid config")

func (c *Config) Validate() error {
	switch {
	case c.Substeps <= 0:
		return fmt.Errorf("%w: substeps must be positive, got %d", errInvalidConfig, c.Substeps)
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive, got %d", errInvalidConfig, c.Iterations)
	case c.RelaxIterations < 0:
		return fmt.Errorf("%w: relax iterations must not be negative, got %d", errInvalidConfig, c.RelaxIterations)
	case c.WarmStartCoefficient < 0 || c.WarmStartCoefficient > 1:
		return fmt.Errorf("%w: warm start coefficient must be in [0, 1], got %v", errInvalidConfig, c.WarmStartCoefficient)
	case c.PredictionDistance < 0:
		return fmt.Errorf("%w: prediction distance must not be negative, got %v", errInvalidConfig, c.PredictionDistance)
	case c.RestitutionThreshold < 0:
		return fmt.Errorf("%w: restitution threshold must not be negative, got %v", errInvalidConfig, c.RestitutionThreshold)
	case c.MaxOverlapSolveSpeed < 0:
		return fmt.Errorf("%w: max overlap solve speed must not be negative, got %v", errInvalidConfig, c.MaxOverlapSolveSpeed)
	case c.ContactFrequency < 0 || c.ContactDampingRatio < 0:
		return fmt.Errorf("%w: contact softness must not be negative", errInvalidConfig)
	case c.JointFrequency < 0 || c.JointDampingRatio < 0:
		return fmt.Errorf("%w: joint softness must not be negative", errInvalidConfig)
	case c.MatchDistance < 0:
		return fmt.Errorf("%w: match distance must not be negative, got %v", errInvalidConfig, c.MatchDistance)
	}
	return nil
}
