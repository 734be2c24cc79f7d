package classification

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/asana/internal/pose"
)

// Classifier defaults.
const (
	DefaultK               = 10
	DefaultMaxDistanceTopK = 30
)

// DefaultAxesWeights down-weights depth, which pose providers estimate poorly.
var DefaultAxesWeights = r3.Vec{X: 1, Y: 1, Z: 0.2}

const stride = NumFeatures * 3

// Option configures a Classifier.
type Option func(*Classifier)

// WithK sets the number of nearest samples that vote. Values < 1 are ignored.
func WithK(k int) Option {
	return func(c *Classifier) {
		if k > 0 {
			c.k = k
		}
	}
}

// WithMaxDistanceTopK sets how many samples survive the max-distance pre-filter.
// Values < 1 are ignored.
func WithMaxDistanceTopK(k int) Option {
	return func(c *Classifier) {
		if k > 0 {
			c.maxDistanceTopK = k
		}
	}
}

// WithAxesWeights sets the per-axis weights applied to feature differences.
func WithAxesWeights(w r3.Vec) Option {
	return func(c *Classifier) {
		c.weights = w
	}
}

// Classifier classifies poses by k-nearest-neighbor voting over reference
// sample embeddings. It is immutable after construction and safe for
// concurrent use.
type Classifier struct {
	k               int
	maxDistanceTopK int
	weights         r3.Vec

	// arena holds the embeddings of all references back to back, stride floats each.
	arena   []float64
	labels  []string
	classes []string
	dropped int
}

type neighbor struct {
	index    int
	distance float64
}

// NewClassifier embeds the reference samples once and returns a classifier over
// them. Samples whose pose cannot be embedded are dropped; see Dropped.
func NewClassifier(samples []PoseSample, opts ...Option) *Classifier {
	c := &Classifier{
		k:               DefaultK,
		maxDistanceTopK: DefaultMaxDistanceTopK,
		weights:         DefaultAxesWeights,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.arena = make([]float64, 0, len(samples)*stride)
	c.labels = make([]string, 0, len(samples))
	seen := make(map[string]bool)

	for _, s := range samples {
		e := Embed(s.Landmarks)
		if !e.Complete() || !e.finite() {
			c.dropped++
			continue
		}
		for _, v := range e.Features {
			c.arena = append(c.arena, v.X, v.Y, v.Z)
		}
		c.labels = append(c.labels, s.Label)
		if !seen[s.Label] {
			seen[s.Label] = true
			c.classes = append(c.classes, s.Label)
		}
	}

	return c
}

// K returns the number of voting neighbors.
func (c *Classifier) K() int {
	return c.k
}

// Len returns the number of reference samples in the index.
func (c *Classifier) Len() int {
	return len(c.labels)
}

// Dropped returns the number of samples rejected at construction.
func (c *Classifier) Dropped() int {
	return c.dropped
}

// Classes returns the reference labels in the order they first appear.
func (c *Classifier) Classes() []string {
	out := make([]string, len(c.classes))
	copy(out, c.classes)
	return out
}

// Classify returns per-class confidences for the pose. The confidence of a
// class is the share of the K nearest samples carrying its label. An empty or
// unusable landmark set yields an empty result.
//
// Neighbors are found in two passes: the MaxDistanceTopK samples with the
// smallest worst-axis difference are kept, then the K of those with the
// smallest mean difference vote. Both distances are taken against the pose and
// its mirror image, whichever is closer.
func (c *Classifier) Classify(set pose.LandmarkSet) *Result {
	result := NewResult()
	if set.Empty() || c.Len() == 0 {
		return result
	}

	e := Embed(set)
	if !e.Usable() {
		return result
	}
	mirrored := e.Mirrored()

	candidates := make([]neighbor, c.Len())
	for i := range candidates {
		ref := c.arena[i*stride : (i+1)*stride]
		candidates[i] = neighbor{
			index:    i,
			distance: math.Min(c.maxDistance(e, ref), c.maxDistance(mirrored, ref)),
		}
	}
	candidates = nearest(candidates, c.maxDistanceTopK)

	for i := range candidates {
		ref := c.arena[candidates[i].index*stride : (candidates[i].index+1)*stride]
		candidates[i].distance = math.Min(c.meanDistance(e, ref), c.meanDistance(mirrored, ref))
	}
	candidates = nearest(candidates, c.k)

	votes := make(map[string]int)
	for _, n := range candidates {
		votes[c.labels[n.index]]++
	}
	for _, label := range c.classes {
		if v := votes[label]; v > 0 {
			result.Set(label, float64(v)/float64(c.k))
		}
	}

	return result
}

// nearest sorts by ascending distance, then by sample index, and keeps the
// first k entries. NaN distances sort after every number.
func nearest(ns []neighbor, k int) []neighbor {
	sort.Slice(ns, func(i, j int) bool {
		ni, nj := math.IsNaN(ns[i].distance), math.IsNaN(ns[j].distance)
		if ni != nj {
			return nj
		}
		if !ni && ns[i].distance != ns[j].distance {
			return ns[i].distance < ns[j].distance
		}
		return ns[i].index < ns[j].index
	})
	if len(ns) > k {
		ns = ns[:k]
	}
	return ns
}

func (c *Classifier) weighted(e Embedding, ref []float64, i int) r3.Vec {
	v := e.Features[i]
	return r3.Vec{
		X: math.Abs(v.X-ref[i*3]) * c.weights.X,
		Y: math.Abs(v.Y-ref[i*3+1]) * c.weights.Y,
		Z: math.Abs(v.Z-ref[i*3+2]) * c.weights.Z,
	}
}

func (c *Classifier) maxDistance(e Embedding, ref []float64) float64 {
	var worst float64
	for i := 0; i < NumFeatures; i++ {
		if !e.Defined[i] {
			continue
		}
		d := c.weighted(e, ref, i)
		worst = math.Max(worst, math.Max(d.X, math.Max(d.Y, d.Z)))
	}
	return worst
}

func (c *Classifier) meanDistance(e Embedding, ref []float64) float64 {
	var sum float64
	var n int
	for i := 0; i < NumFeatures; i++ {
		if !e.Defined[i] {
			continue
		}
		d := c.weighted(e, ref, i)
		sum += d.X + d.Y + d.Z
		n++
	}
	if n == 0 {
		return math.Inf(1)
	}
	return sum / float64(n*3)
}
