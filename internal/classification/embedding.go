package classification

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/asana/internal/pose"
)

// NumFeatures is the number of difference vectors in an Embedding.
const NumFeatures = 23

const (
	// torsoMultiplier scales the torso length into the minimum pose size.
	torsoMultiplier = 2.5
	// embeddingScale keeps normalized coordinates in a readable range.
	embeddingScale = 100
	minPoseSize    = 1e-9
)

// joint is either a single landmark (a == b) or the midpoint of two landmarks.
type joint struct {
	a, b pose.Landmark
}

func single(l pose.Landmark) joint { return joint{a: l, b: l} }

var (
	hipsCenter      = joint{a: pose.LeftHip, b: pose.RightHip}
	shouldersCenter = joint{a: pose.LeftShoulder, b: pose.RightShoulder}
)

// features lists the (from, to) joints of every embedding dimension.
var features = [NumFeatures][2]joint{
	// torso
	{hipsCenter, shouldersCenter},

	// one joint
	{single(pose.LeftShoulder), single(pose.LeftElbow)},
	{single(pose.RightShoulder), single(pose.RightElbow)},
	{single(pose.LeftElbow), single(pose.LeftWrist)},
	{single(pose.RightElbow), single(pose.RightWrist)},
	{single(pose.LeftHip), single(pose.LeftKnee)},
	{single(pose.RightHip), single(pose.RightKnee)},
	{single(pose.LeftKnee), single(pose.LeftAnkle)},
	{single(pose.RightKnee), single(pose.RightAnkle)},

	// two joints
	{single(pose.LeftShoulder), single(pose.LeftWrist)},
	{single(pose.RightShoulder), single(pose.RightWrist)},
	{single(pose.LeftHip), single(pose.LeftAnkle)},
	{single(pose.RightHip), single(pose.RightAnkle)},

	// four joints
	{single(pose.LeftHip), single(pose.LeftWrist)},
	{single(pose.RightHip), single(pose.RightWrist)},

	// five joints
	{single(pose.LeftShoulder), single(pose.LeftAnkle)},
	{single(pose.RightShoulder), single(pose.RightAnkle)},
	{single(pose.LeftShoulder), single(pose.LeftKnee)},
	{single(pose.RightShoulder), single(pose.RightKnee)},

	// cross body
	{single(pose.LeftElbow), single(pose.RightElbow)},
	{single(pose.LeftKnee), single(pose.RightKnee)},
	{single(pose.LeftWrist), single(pose.RightWrist)},
	{single(pose.LeftAnkle), single(pose.RightAnkle)},
}

// Embedding is the feature vector of a pose: normalized difference vectors
// between joints. A feature is undefined when one of its joints is missing.
type Embedding struct {
	Features [NumFeatures]r3.Vec
	Defined  [NumFeatures]bool
	usable   bool
}

// Usable reports whether the pose could be normalized at all. Normalization
// needs both hips and both shoulders and a non-degenerate pose size.
func (e Embedding) Usable() bool {
	return e.usable
}

// Complete reports whether every feature is defined.
func (e Embedding) Complete() bool {
	if !e.usable {
		return false
	}
	for _, ok := range e.Defined {
		if !ok {
			return false
		}
	}
	return true
}

func (e Embedding) finite() bool {
	for _, v := range e.Features {
		for _, f := range [...]float64{v.X, v.Y, v.Z} {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return false
			}
		}
	}
	return true
}

// Mirrored returns the embedding of the horizontally flipped pose.
func (e Embedding) Mirrored() Embedding {
	out := e
	for i := range out.Features {
		out.Features[i].X = -out.Features[i].X
	}
	return out
}

// Embed computes the embedding of a landmark set. The set is translated so the
// hip midpoint is the origin and scaled by the pose size, which makes the
// result independent of where the body is in the frame and how large it is.
func Embed(set pose.LandmarkSet) Embedding {
	var e Embedding

	center, ok := position(set, hipsCenter)
	if !ok {
		return e
	}
	shoulders, ok := position(set, shouldersCenter)
	if !ok {
		return e
	}

	size := poseSize(set, center, shoulders)
	if size < minPoseSize {
		return e
	}
	scale := embeddingScale / size

	for i, f := range features {
		from, ok := position(set, f[0])
		if !ok {
			continue
		}
		to, ok := position(set, f[1])
		if !ok {
			continue
		}
		// Translation cancels out in a difference vector.
		e.Features[i] = r3.Scale(scale, r3.Sub(to, from))
		e.Defined[i] = true
	}
	e.usable = true

	return e
}

// poseSize is the larger of the scaled torso length and the largest distance of
// any present landmark from the center, measured on the image plane.
func poseSize(set pose.LandmarkSet, center, shoulders r3.Vec) float64 {
	size := norm2D(r3.Sub(shoulders, center)) * torsoMultiplier
	set.Each(func(_ pose.Landmark, p pose.Point3D) {
		if d := norm2D(r3.Sub(p.Vec(), center)); d > size {
			size = d
		}
	})
	return size
}

func norm2D(v r3.Vec) float64 {
	return math.Hypot(v.X, v.Y)
}

func position(set pose.LandmarkSet, j joint) (r3.Vec, bool) {
	a, ok := set.Get(j.a)
	if !ok {
		return r3.Vec{}, false
	}
	if j.a == j.b {
		return a.Vec(), true
	}
	b, ok := set.Get(j.b)
	if !ok {
		return r3.Vec{}, false
	}
	return r3.Scale(0.5, r3.Add(a.Vec(), b.Vec())), true
}
