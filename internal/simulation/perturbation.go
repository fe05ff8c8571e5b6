package simulation

import (
	"math/rand"

	"github.com/yourusername/edge-engine/internal/models"
	"github.com/yourusername/edge-engine/internal/simcontext"
)

// perturbationSeedOffset keeps the perturbation stream independent of the
// primary trial stream while staying reproducible from the same context.
const perturbationSeedOffset int64 = 7_777_777_777

// perturbationScale is the +/-5% applied to pace and minutes projections.
const perturbationScale = 0.05

// StabilityFloor is the reference operating floor: recommendations with a
// stability score below it should not be surfaced externally.
const StabilityFloor = 0.70

// RunPerturbationTest reruns the full evaluation across n perturbed copies of
// the context and reports the fraction that still pass is_valid_play. If the
// base result already fails validation the score is 0 without probing.
func RunPerturbationTest(ctx simcontext.Context, gen TrialGenerator, cfg Config, n int) (float64, error) {
	base, err := Run(ctx, gen, cfg)
	if err != nil {
		return 0, err
	}
	if !base.IsValidPlay {
		return 0, nil
	}
	if n <= 0 {
		n = 20
	}

	prng := rand.New(rand.NewSource(ctx.DeterministicSeed() + perturbationSeedOffset))

	passes := 0
	for i := 0; i < n; i++ {
		perturbed := perturbContext(ctx, prng)
		// Each perturbed context differs from the base, so it derives its
		// own fresh seed.
		result, err := Run(perturbed, gen, cfg)
		if err != nil {
			return 0, err
		}
		if result.IsValidPlay {
			passes++
		}
	}

	return float64(passes) / float64(n), nil
}

func perturbContext(ctx simcontext.Context, prng *rand.Rand) simcontext.Context {
	perturbed := ctx

	if ctx.Pace != nil {
		pace := *ctx.Pace * jitter(prng)
		perturbed.Pace = &pace
	}

	if len(ctx.Injuries) > 0 {
		injuries := make([]models.InjurySnapshot, len(ctx.Injuries))
		copy(injuries, ctx.Injuries)
		for i := range injuries {
			injuries[i].MinutesProjection *= jitter(prng)
		}
		perturbed.Injuries = injuries
	}

	return perturbed
}

func jitter(prng *rand.Rand) float64 {
	return 1 + (prng.Float64()*2-1)*perturbationScale
}
