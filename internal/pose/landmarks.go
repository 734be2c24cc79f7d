// Package pose provides body landmark types shared by the classifier and the service layers.
package pose

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Landmark identifies a body joint. The order matches the 33-point body model
// used by common pose-estimation providers and the column order of reference data.
type Landmark int

// Body landmark indices.
const (
	Nose Landmark = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	LeftMouth
	RightMouth
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
)

// NumLandmarks is the size of the landmark schema.
const NumLandmarks = 33

var landmarkNames = [NumLandmarks]string{
	"NOSE",
	"LEFT_EYE_INNER",
	"LEFT_EYE",
	"LEFT_EYE_OUTER",
	"RIGHT_EYE_INNER",
	"RIGHT_EYE",
	"RIGHT_EYE_OUTER",
	"LEFT_EAR",
	"RIGHT_EAR",
	"LEFT_MOUTH",
	"RIGHT_MOUTH",
	"LEFT_SHOULDER",
	"RIGHT_SHOULDER",
	"LEFT_ELBOW",
	"RIGHT_ELBOW",
	"LEFT_WRIST",
	"RIGHT_WRIST",
	"LEFT_PINKY",
	"RIGHT_PINKY",
	"LEFT_INDEX",
	"RIGHT_INDEX",
	"LEFT_THUMB",
	"RIGHT_THUMB",
	"LEFT_HIP",
	"RIGHT_HIP",
	"LEFT_KNEE",
	"RIGHT_KNEE",
	"LEFT_ANKLE",
	"RIGHT_ANKLE",
	"LEFT_HEEL",
	"RIGHT_HEEL",
	"LEFT_FOOT_INDEX",
	"RIGHT_FOOT_INDEX",
}

var landmarksByName = func() map[string]Landmark {
	m := make(map[string]Landmark, NumLandmarks)
	for i, name := range landmarkNames {
		m[name] = Landmark(i)
	}
	return m
}()

// Valid reports whether l is part of the schema.
func (l Landmark) Valid() bool {
	return l >= 0 && l < NumLandmarks
}

// String returns the upper-snake name of the landmark, e.g. "LEFT_KNEE".
func (l Landmark) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Landmark(%d)", int(l))
	}
	return landmarkNames[l]
}

// ParseLandmark returns the landmark with the given upper-snake name.
func ParseLandmark(name string) (Landmark, error) {
	l, ok := landmarksByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown landmark %q", name)
	}
	return l, nil
}

// Point3D represents a point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec returns the point as a gonum vector.
func (p Point3D) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// LandmarkSet maps landmarks to positions for a single frame. Any landmark may be
// absent; an empty set means no body was detected.
// The zero value is an empty set.
type LandmarkSet struct {
	points  [NumLandmarks]Point3D
	present [NumLandmarks]bool
	n       int
}

// Set records the position of l. Invalid landmarks are ignored.
func (s *LandmarkSet) Set(l Landmark, p Point3D) {
	if !l.Valid() {
		return
	}
	if !s.present[l] {
		s.present[l] = true
		s.n++
	}
	s.points[l] = p
}

// Delete removes l from the set.
func (s *LandmarkSet) Delete(l Landmark) {
	if !l.Valid() || !s.present[l] {
		return
	}
	s.present[l] = false
	s.points[l] = Point3D{}
	s.n--
}

// Get returns the position of l and whether it was detected.
func (s LandmarkSet) Get(l Landmark) (Point3D, bool) {
	if !l.Valid() || !s.present[l] {
		return Point3D{}, false
	}
	return s.points[l], true
}

// Has reports whether all of the given landmarks are present.
func (s LandmarkSet) Has(ls ...Landmark) bool {
	for _, l := range ls {
		if !l.Valid() || !s.present[l] {
			return false
		}
	}
	return true
}

// Len returns the number of present landmarks.
func (s LandmarkSet) Len() int {
	return s.n
}

// Empty reports whether no landmark is present.
func (s LandmarkSet) Empty() bool {
	return s.n == 0
}

// Complete reports whether every landmark of the schema is present.
func (s LandmarkSet) Complete() bool {
	return s.n == NumLandmarks
}

// Each calls fn for every present landmark in schema order.
func (s LandmarkSet) Each(fn func(l Landmark, p Point3D)) {
	for i := 0; i < NumLandmarks; i++ {
		if s.present[i] {
			fn(Landmark(i), s.points[i])
		}
	}
}

// MarshalJSON encodes the set as an object keyed by landmark name.
func (s LandmarkSet) MarshalJSON() ([]byte, error) {
	m := make(map[string]Point3D, s.n)
	s.Each(func(l Landmark, p Point3D) {
		m[l.String()] = p
	})
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by landmark name.
func (s *LandmarkSet) UnmarshalJSON(data []byte) error {
	var m map[string]Point3D
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	*s = LandmarkSet{}
	for name, p := range m {
		l, err := ParseLandmark(name)
		if err != nil {
			return err
		}
		s.Set(l, p)
	}
	return nil
}
