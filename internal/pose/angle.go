package pose

import "math"

// Angle returns the angle in degrees at vertex b formed by the rays to a and c,
// measured on the image (x, y) plane. The result is in [0, 180].
func Angle(a, b, c Point3D) float64 {
	rad := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)

	deg := math.Abs(rad * 180 / math.Pi)
	if deg > 180 {
		deg = 360 - deg
	}
	return deg
}

// AngleOf returns the angle at landmark b formed with a and c. The second result
// is false if any of the three landmarks is missing from the set.
func (s LandmarkSet) AngleOf(a, b, c Landmark) (float64, bool) {
	pa, ok := s.Get(a)
	if !ok {
		return 0, false
	}
	pb, ok := s.Get(b)
	if !ok {
		return 0, false
	}
	pc, ok := s.Get(c)
	if !ok {
		return 0, false
	}
	return Angle(pa, pb, pc), true
}
