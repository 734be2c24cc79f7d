package pose

// Preset landmark sets in normalized image coordinates (y grows downward).
// They are used by tests and by the demo reference data.

// body lists the joints a fixture places explicitly; head, hand and foot
// detail points are derived from them.
type body struct {
	nose                          Point3D
	leftShoulder, rightShoulder   Point3D
	leftElbow, rightElbow         Point3D
	leftWrist, rightWrist         Point3D
	leftHip, rightHip             Point3D
	leftKnee, rightKnee           Point3D
	leftAnkle, rightAnkle         Point3D
	leftHeel, rightHeel           Point3D
	leftFootIndex, rightFootIndex Point3D
}

func offset(p Point3D, dx, dy float64) Point3D {
	return Point3D{X: p.X + dx, Y: p.Y + dy, Z: p.Z}
}

func (b body) set() LandmarkSet {
	var s LandmarkSet

	s.Set(Nose, b.nose)
	s.Set(LeftEyeInner, offset(b.nose, 0.01, -0.02))
	s.Set(LeftEye, offset(b.nose, 0.02, -0.02))
	s.Set(LeftEyeOuter, offset(b.nose, 0.03, -0.02))
	s.Set(RightEyeInner, offset(b.nose, -0.01, -0.02))
	s.Set(RightEye, offset(b.nose, -0.02, -0.02))
	s.Set(RightEyeOuter, offset(b.nose, -0.03, -0.02))
	s.Set(LeftEar, offset(b.nose, 0.05, -0.01))
	s.Set(RightEar, offset(b.nose, -0.05, -0.01))
	s.Set(LeftMouth, offset(b.nose, 0.015, 0.02))
	s.Set(RightMouth, offset(b.nose, -0.015, 0.02))

	s.Set(LeftShoulder, b.leftShoulder)
	s.Set(RightShoulder, b.rightShoulder)
	s.Set(LeftElbow, b.leftElbow)
	s.Set(RightElbow, b.rightElbow)
	s.Set(LeftWrist, b.leftWrist)
	s.Set(RightWrist, b.rightWrist)
	s.Set(LeftPinky, offset(b.leftWrist, 0.01, 0.02))
	s.Set(RightPinky, offset(b.rightWrist, -0.01, 0.02))
	s.Set(LeftIndex, offset(b.leftWrist, 0, 0.03))
	s.Set(RightIndex, offset(b.rightWrist, 0, 0.03))
	s.Set(LeftThumb, offset(b.leftWrist, -0.01, 0.02))
	s.Set(RightThumb, offset(b.rightWrist, 0.01, 0.02))

	s.Set(LeftHip, b.leftHip)
	s.Set(RightHip, b.rightHip)
	s.Set(LeftKnee, b.leftKnee)
	s.Set(RightKnee, b.rightKnee)
	s.Set(LeftAnkle, b.leftAnkle)
	s.Set(RightAnkle, b.rightAnkle)
	s.Set(LeftHeel, b.leftHeel)
	s.Set(RightHeel, b.rightHeel)
	s.Set(LeftFootIndex, b.leftFootIndex)
	s.Set(RightFootIndex, b.rightFootIndex)

	return s
}

// StandingLandmarks returns a frontal upright pose with the arms hanging down.
func StandingLandmarks() LandmarkSet {
	return body{
		nose:           Point3D{X: 0.50, Y: 0.10},
		leftShoulder:   Point3D{X: 0.58, Y: 0.25},
		rightShoulder:  Point3D{X: 0.42, Y: 0.25},
		leftElbow:      Point3D{X: 0.60, Y: 0.40},
		rightElbow:     Point3D{X: 0.40, Y: 0.40},
		leftWrist:      Point3D{X: 0.61, Y: 0.55},
		rightWrist:     Point3D{X: 0.39, Y: 0.55},
		leftHip:        Point3D{X: 0.55, Y: 0.55},
		rightHip:       Point3D{X: 0.45, Y: 0.55},
		leftKnee:       Point3D{X: 0.55, Y: 0.72},
		rightKnee:      Point3D{X: 0.45, Y: 0.72},
		leftAnkle:      Point3D{X: 0.55, Y: 0.90},
		rightAnkle:     Point3D{X: 0.45, Y: 0.90},
		leftHeel:       Point3D{X: 0.55, Y: 0.92},
		rightHeel:      Point3D{X: 0.45, Y: 0.92},
		leftFootIndex:  Point3D{X: 0.57, Y: 0.94},
		rightFootIndex: Point3D{X: 0.43, Y: 0.94},
	}.set()
}

// SquatDownLandmarks returns a frontal squat at the bottom of the motion.
func SquatDownLandmarks() LandmarkSet {
	return body{
		nose:           Point3D{X: 0.50, Y: 0.30},
		leftShoulder:   Point3D{X: 0.58, Y: 0.45},
		rightShoulder:  Point3D{X: 0.42, Y: 0.45},
		leftElbow:      Point3D{X: 0.60, Y: 0.55},
		rightElbow:     Point3D{X: 0.40, Y: 0.55},
		leftWrist:      Point3D{X: 0.58, Y: 0.62},
		rightWrist:     Point3D{X: 0.42, Y: 0.62},
		leftHip:        Point3D{X: 0.55, Y: 0.68},
		rightHip:       Point3D{X: 0.45, Y: 0.68},
		leftKnee:       Point3D{X: 0.63, Y: 0.72},
		rightKnee:      Point3D{X: 0.37, Y: 0.72},
		leftAnkle:      Point3D{X: 0.58, Y: 0.90},
		rightAnkle:     Point3D{X: 0.42, Y: 0.90},
		leftHeel:       Point3D{X: 0.58, Y: 0.92},
		rightHeel:      Point3D{X: 0.42, Y: 0.92},
		leftFootIndex:  Point3D{X: 0.60, Y: 0.94},
		rightFootIndex: Point3D{X: 0.40, Y: 0.94},
	}.set()
}

// PushupDownLandmarks returns a side view of a push-up with the chest lowered.
func PushupDownLandmarks() LandmarkSet {
	return body{
		nose:           Point3D{X: 0.20, Y: 0.72},
		leftShoulder:   Point3D{X: 0.30, Y: 0.70, Z: -0.02},
		rightShoulder:  Point3D{X: 0.30, Y: 0.70, Z: 0.02},
		leftElbow:      Point3D{X: 0.34, Y: 0.80, Z: -0.03},
		rightElbow:     Point3D{X: 0.34, Y: 0.80, Z: 0.03},
		leftWrist:      Point3D{X: 0.32, Y: 0.90, Z: -0.03},
		rightWrist:     Point3D{X: 0.32, Y: 0.90, Z: 0.03},
		leftHip:        Point3D{X: 0.55, Y: 0.72, Z: -0.02},
		rightHip:       Point3D{X: 0.55, Y: 0.72, Z: 0.02},
		leftKnee:       Point3D{X: 0.70, Y: 0.74, Z: -0.02},
		rightKnee:      Point3D{X: 0.70, Y: 0.74, Z: 0.02},
		leftAnkle:      Point3D{X: 0.85, Y: 0.76, Z: -0.02},
		rightAnkle:     Point3D{X: 0.85, Y: 0.76, Z: 0.02},
		leftHeel:       Point3D{X: 0.86, Y: 0.75, Z: -0.02},
		rightHeel:      Point3D{X: 0.86, Y: 0.75, Z: 0.02},
		leftFootIndex:  Point3D{X: 0.85, Y: 0.80, Z: -0.02},
		rightFootIndex: Point3D{X: 0.85, Y: 0.80, Z: 0.02},
	}.set()
}

// PushupUpLandmarks returns a side view of a push-up with the arms extended.
func PushupUpLandmarks() LandmarkSet {
	return body{
		nose:           Point3D{X: 0.20, Y: 0.58},
		leftShoulder:   Point3D{X: 0.30, Y: 0.60, Z: -0.02},
		rightShoulder:  Point3D{X: 0.30, Y: 0.60, Z: 0.02},
		leftElbow:      Point3D{X: 0.31, Y: 0.73, Z: -0.03},
		rightElbow:     Point3D{X: 0.31, Y: 0.73, Z: 0.03},
		leftWrist:      Point3D{X: 0.32, Y: 0.86, Z: -0.03},
		rightWrist:     Point3D{X: 0.32, Y: 0.86, Z: 0.03},
		leftHip:        Point3D{X: 0.55, Y: 0.66, Z: -0.02},
		rightHip:       Point3D{X: 0.55, Y: 0.66, Z: 0.02},
		leftKnee:       Point3D{X: 0.70, Y: 0.71, Z: -0.02},
		rightKnee:      Point3D{X: 0.70, Y: 0.71, Z: 0.02},
		leftAnkle:      Point3D{X: 0.85, Y: 0.76, Z: -0.02},
		rightAnkle:     Point3D{X: 0.85, Y: 0.76, Z: 0.02},
		leftHeel:       Point3D{X: 0.86, Y: 0.75, Z: -0.02},
		rightHeel:      Point3D{X: 0.86, Y: 0.75, Z: 0.02},
		leftFootIndex:  Point3D{X: 0.85, Y: 0.80, Z: -0.02},
		rightFootIndex: Point3D{X: 0.85, Y: 0.80, Z: 0.02},
	}.set()
}

// Transform returns a copy of s scaled by factor and then shifted by (dx, dy).
func Transform(s LandmarkSet, factor, dx, dy float64) LandmarkSet {
	var out LandmarkSet
	s.Each(func(l Landmark, p Point3D) {
		out.Set(l, Point3D{
			X: p.X*factor + dx,
			Y: p.Y*factor + dy,
			Z: p.Z * factor,
		})
	})
	return out
}
