package geometry

import "math"

// PolygonArea returns the absolute area of a simple polygon (shoelace
// formula). Returns 0 for fewer than 3 vertices.
func PolygonArea(polygon []Point2D) float64 {
	if len(polygon) < 3 {
		return 0
	}
	var sum float64
	for i := range polygon {
		j := (i + 1) % len(polygon)
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return math.Abs(sum) / 2
}

// PointInPolygon returns true if the point lies inside the polygon,
// using the ray casting algorithm.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi, pj := polygon[i], polygon[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// DistanceToSegment returns the shortest distance from p to the segment a-b.
func DistanceToSegment(p, a, b Point2D) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return p.Distance(a)
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Distance(Point2D{X: a.X + t*abx, Y: a.Y + t*aby})
}

// SimplifyPolyline reduces a polyline using the Douglas-Peucker
// algorithm with the given distance tolerance. Endpoints are preserved.
func SimplifyPolyline(points []Point2D, tolerance float64) []Point2D {
	if len(points) < 3 {
		return points
	}

	// Find the point farthest from the chord
	var maxDist float64
	maxIdx := 0
	first, last := points[0], points[len(points)-1]
	for i := 1; i < len(points)-1; i++ {
		d := DistanceToSegment(points[i], first, last)
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= tolerance {
		return []Point2D{first, last}
	}

	left := SimplifyPolyline(points[:maxIdx+1], tolerance)
	right := SimplifyPolyline(points[maxIdx:], tolerance)
	return append(left[:len(left)-1], right...)
}
