package spaced_repetition

import "fmt"

// DefaultCardWeights are the FSRS-4.5 default coefficients
var DefaultCardWeights = [17]float64{
	0.4872, 1.4003, 3.7145, 13.8206,
	5.1618, 1.2298, 0.8975, 0.031,
	1.6474, 0.1367, 1.0461, 2.1072,
	0.0793, 0.3246, 1.587, 0.2272,
	2.8755,
}

const (
	DefaultRequestRetention    = 0.9
	DefaultCardMinimumInterval = 1.0
	DefaultCardMaximumInterval = 36500.0
)

// CardParameters configures the long-horizon card scheduler
type CardParameters struct {
	W                [17]float64
	RequestRetention float64
	MinimumInterval  float64 // days
	MaximumInterval  float64 // days
}

// DefaultCardParameters returns the stock card parameter set
func DefaultCardParameters() CardParameters {
	return CardParameters{
		W:                DefaultCardWeights,
		RequestRetention: DefaultRequestRetention,
		MinimumInterval:  DefaultCardMinimumInterval,
		MaximumInterval:  DefaultCardMaximumInterval,
	}
}

// Validate checks that every coefficient is finite and the bounds are usable
func (p CardParameters) Validate() error {
	for i, w := range p.W {
		if !finite(w) {
			return fmt.Errorf("%w: weight w[%d] is not finite", ErrInvalidArgument, i)
		}
	}
	return validateBounds(p.RequestRetention, p.MinimumInterval, p.MaximumInterval)
}

const (
	DefaultQuizMinimumInterval   = 0.25
	DefaultQuizMaximumInterval   = 180.0
	DefaultQuizInitialStability  = 1.0
	DefaultQuizInitialDifficulty = 5.0
	DefaultIncorrectDecay        = 0.85
	DefaultEasyMultiplier        = 2.5
	DefaultGoodMultiplier        = 2.0
	DefaultHardMultiplier        = 1.5
	DefaultDifficultyIncrease    = 0.5
	DefaultDifficultyDecrease    = 0.2
	DefaultFastResponseRatio     = 0.7
	DefaultSlowResponseRatio     = 1.3
	DefaultJitterFraction        = 0.1
)

// QuizParameters configures the short-horizon quiz scheduler
type QuizParameters struct {
	RequestRetention   float64
	MinimumInterval    float64 // days
	MaximumInterval    float64 // days
	InitialStability   float64
	InitialDifficulty  float64
	IncorrectDecay     float64
	EasyMultiplier     float64
	GoodMultiplier     float64
	HardMultiplier     float64
	DifficultyIncrease float64
	DifficultyDecrease float64
	FastResponseRatio  float64
	SlowResponseRatio  float64
	JitterFraction     float64
}

// DefaultQuizParameters returns the stock quiz parameter set
func DefaultQuizParameters() QuizParameters {
	return QuizParameters{
		RequestRetention:   DefaultRequestRetention,
		MinimumInterval:    DefaultQuizMinimumInterval,
		MaximumInterval:    DefaultQuizMaximumInterval,
		InitialStability:   DefaultQuizInitialStability,
		InitialDifficulty:  DefaultQuizInitialDifficulty,
		IncorrectDecay:     DefaultIncorrectDecay,
		EasyMultiplier:     DefaultEasyMultiplier,
		GoodMultiplier:     DefaultGoodMultiplier,
		HardMultiplier:     DefaultHardMultiplier,
		DifficultyIncrease: DefaultDifficultyIncrease,
		DifficultyDecrease: DefaultDifficultyDecrease,
		FastResponseRatio:  DefaultFastResponseRatio,
		SlowResponseRatio:  DefaultSlowResponseRatio,
		JitterFraction:     DefaultJitterFraction,
	}
}

// Validate checks the quiz parameter set
func (p QuizParameters) Validate() error {
	if !finite(p.InitialStability, p.InitialDifficulty, p.IncorrectDecay,
		p.EasyMultiplier, p.GoodMultiplier, p.HardMultiplier,
		p.DifficultyIncrease, p.DifficultyDecrease,
		p.FastResponseRatio, p.SlowResponseRatio, p.JitterFraction) {
		return fmt.Errorf("%w: quiz parameters must be finite", ErrInvalidArgument)
	}
	if p.IncorrectDecay <= 0 || p.IncorrectDecay > 1 {
		return fmt.Errorf("%w: incorrect decay %v outside (0,1]", ErrInvalidArgument, p.IncorrectDecay)
	}
	if p.InitialStability <= 0 {
		return fmt.Errorf("%w: initial stability must be positive", ErrInvalidArgument)
	}
	if p.FastResponseRatio > p.SlowResponseRatio {
		return fmt.Errorf("%w: fast response ratio above slow ratio", ErrInvalidArgument)
	}
	if p.JitterFraction < 0 || p.JitterFraction >= 1 {
		return fmt.Errorf("%w: jitter fraction %v outside [0,1)", ErrInvalidArgument, p.JitterFraction)
	}
	return validateBounds(p.RequestRetention, p.MinimumInterval, p.MaximumInterval)
}

func validateBounds(retention, minimum, maximum float64) error {
	if !finite(retention, minimum, maximum) {
		return fmt.Errorf("%w: bounds must be finite", ErrInvalidArgument)
	}
	if retention <= 0 || retention >= 1 {
		return fmt.Errorf("%w: request retention %v outside (0,1)", ErrInvalidArgument, retention)
	}
	if minimum <= 0 || maximum < minimum {
		return fmt.Errorf("%w: interval bounds [%v,%v]", ErrInvalidArgument, minimum, maximum)
	}
	return nil
}
