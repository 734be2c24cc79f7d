// Package testdata provides reference sample fixtures for tests.
package testdata

import (
	"strings"

	"github.com/ayusman/asana/internal/classification"
	"github.com/ayusman/asana/internal/pose"
)

// Classes lists the fixture classes in reference order.
var Classes = []string{
	classification.SquatsUp,
	classification.SquatsDown,
	classification.PushupsDown,
	classification.PushupsUp,
}

// VariantsPerClass is the number of samples generated for each class.
const VariantsPerClass = 5

var scales = [VariantsPerClass]float64{1, 0.5, 1.5, 0.8, 2}

// Pose returns the preset pose for a fixture class.
func Pose(class string) pose.LandmarkSet {
	switch class {
	case classification.SquatsUp:
		return pose.StandingLandmarks()
	case classification.SquatsDown:
		return pose.SquatDownLandmarks()
	case classification.PushupsDown:
		return pose.PushupDownLandmarks()
	case classification.PushupsUp:
		return pose.PushupUpLandmarks()
	}
	return pose.LandmarkSet{}
}

// ReferenceSamples returns scaled and shifted copies of every preset pose.
func ReferenceSamples() []classification.PoseSample {
	samples := make([]classification.PoseSample, 0, len(Classes)*VariantsPerClass)
	for _, class := range Classes {
		for i, factor := range scales {
			samples = append(samples, classification.PoseSample{
				Label:     class,
				Landmarks: pose.Transform(Pose(class), factor, 0.05*float64(i), 0),
				Dims:      3,
			})
		}
	}
	return samples
}

// ReferenceFile returns ReferenceSamples as a comma-separated reference file.
func ReferenceFile() string {
	var b strings.Builder
	for _, s := range ReferenceSamples() {
		b.WriteString(s.Format(",", 3))
		b.WriteByte('\n')
	}
	return b.String()
}
