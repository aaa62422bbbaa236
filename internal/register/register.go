// Package register re-registers an annotation set against a replacement
// scan of the same document. Given matched landmark points on the old
// and new images it estimates the mapping robustly and carries every
// annotation's geometry across.
package register

import (
	"fmt"
	"math/rand"

	"image-markup/internal/annotation"
	"image-markup/pkg/geometry"
)

// Options tunes the RANSAC estimation.
type Options struct {
	// Iterations is the number of random samples drawn. Zero means 2000.
	Iterations int
	// Threshold is the inlier distance in destination pixels. Zero
	// means 3.0.
	Threshold float64
	// Seed makes the sampling deterministic when non-zero.
	Seed int64
}

// Result holds the estimated mapping.
type Result struct {
	Transform geometry.AffineTransform
	Inliers   []int
	MeanError float64
}

// Estimate computes the affine transform mapping src landmarks onto dst
// landmarks using RANSAC, then refines it by least squares over the
// inlier set.
func Estimate(src, dst []geometry.Point2D, opts Options) (Result, error) {
	if len(src) != len(dst) {
		return Result{}, fmt.Errorf("landmark count mismatch: %d vs %d", len(src), len(dst))
	}
	if len(src) < 3 {
		return Result{}, fmt.Errorf("need at least 3 landmarks, got %d", len(src))
	}

	iterations := opts.Iterations
	if iterations == 0 {
		iterations = 2000
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = 3.0
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	if opts.Seed == 0 {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	n := len(src)
	var bestInliers []int
	for iter := 0; iter < iterations; iter++ {
		indices := rng.Perm(n)[:3]

		sample := make([]geometry.Point2D, 3)
		target := make([]geometry.Point2D, 3)
		for i, idx := range indices {
			sample[i] = src[idx]
			target[i] = dst[idx]
		}

		transform, err := geometry.FitAffine(sample, target)
		if err != nil {
			continue
		}

		var inliers []int
		for i := range src {
			if transform.Apply(src[i]).Distance(dst[i]) < threshold {
				inliers = append(inliers, i)
			}
		}
		if len(inliers) > len(bestInliers) {
			bestInliers = inliers
		}
	}

	if len(bestInliers) < 3 {
		return Result{}, fmt.Errorf("no consensus among %d landmarks", n)
	}

	inSrc := make([]geometry.Point2D, len(bestInliers))
	inDst := make([]geometry.Point2D, len(bestInliers))
	for i, idx := range bestInliers {
		inSrc[i] = src[idx]
		inDst[i] = dst[idx]
	}

	refined, err := geometry.FitAffine(inSrc, inDst)
	if err != nil {
		return Result{}, fmt.Errorf("refine over inliers: %w", err)
	}

	return Result{
		Transform: refined,
		Inliers:   bestInliers,
		MeanError: geometry.FitError(refined, inSrc, inDst),
	}, nil
}

// Apply maps every annotation's geometry through the transform,
// returning new annotation values. Identity and metadata are untouched.
func Apply(anns []annotation.Annotation, m geometry.AffineTransform) []annotation.Annotation {
	out := make([]annotation.Annotation, len(anns))
	for i, a := range anns {
		out[i] = a.WithTarget(a.Target.Transform(m))
	}
	return out
}
