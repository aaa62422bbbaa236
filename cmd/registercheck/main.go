// Command registercheck estimates the affine mapping between two scans
// of the same document from a landmark correspondence file and prints
// the fit quality. Each line of the file is "sx,sy,dx,dy": a point on
// the old scan and its match on the new one.
//
// Usage: registercheck -l <landmarks.csv> [-threshold px] [-iter n]
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"image-markup/internal/register"
	"image-markup/pkg/geometry"
)

func main() {
	landmarks := flag.String("l", "", "Path to landmark correspondence file")
	threshold := flag.Float64("threshold", 3.0, "Inlier distance in destination pixels")
	iterations := flag.Int("iter", 2000, "RANSAC iterations")
	seed := flag.Int64("seed", 0, "Random seed (0 = random)")
	flag.Parse()

	if *landmarks == "" {
		fmt.Println("Usage: registercheck -l <landmarks.csv> [-threshold px] [-iter n]")
		os.Exit(1)
	}

	src, dst, err := loadLandmarks(*landmarks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read landmarks: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("=== %d landmark pairs from %s ===\n", len(src), *landmarks)

	res, err := register.Estimate(src, dst, register.Options{
		Iterations: *iterations,
		Threshold:  *threshold,
		Seed:       *seed,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Estimation failed: %v\n", err)
		os.Exit(1)
	}

	m := res.Transform
	fmt.Printf("Transform:\n  [%9.4f %9.4f %10.2f]\n  [%9.4f %9.4f %10.2f]\n",
		m.A, m.B, m.TX, m.C, m.D, m.TY)
	sx, sy := m.ScaleFactors()
	fmt.Printf("Scale: %.4f x %.4f\n", sx, sy)
	fmt.Printf("Inliers: %d/%d, mean error %.3f px\n", len(res.Inliers), len(src), res.MeanError)

	if len(res.Inliers) < len(src) {
		inlier := make(map[int]bool, len(res.Inliers))
		for _, idx := range res.Inliers {
			inlier[idx] = true
		}
		for i := range src {
			if !inlier[i] {
				d := res.Transform.Apply(src[i]).Distance(dst[i])
				fmt.Printf("  outlier %d: (%.1f,%.1f) -> (%.1f,%.1f), off by %.1f px\n",
					i, src[i].X, src[i].Y, dst[i].X, dst[i].Y, d)
			}
		}
	}
}

func loadLandmarks(path string) (src, dst []geometry.Point2D, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.Split(text, ",")
		if len(parts) != 4 {
			return nil, nil, fmt.Errorf("line %d: want 4 values, got %d", line, len(parts))
		}
		vals := make([]float64, 4)
		for i, p := range parts {
			vals[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		src = append(src, geometry.Point2D{X: vals[0], Y: vals[1]})
		dst = append(dst, geometry.Point2D{X: vals[2], Y: vals[3]})
	}
	return src, dst, scanner.Err()
}
