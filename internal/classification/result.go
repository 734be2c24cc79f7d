// Package classification classifies body poses against labeled reference samples,
// smooths per-frame results over time and counts exercise repetitions.
package classification

import "encoding/json"

// Result maps class labels to confidence scores for a single frame.
// Labels keep the order in which they were first added.
type Result struct {
	order      []string
	confidence map[string]float64
}

// NewResult creates an empty Result.
func NewResult() *Result {
	return &Result{confidence: make(map[string]float64)}
}

// Set assigns the confidence of label, adding the label if it is new.
func (r *Result) Set(label string, confidence float64) {
	if r.confidence == nil {
		r.confidence = make(map[string]float64)
	}
	if _, ok := r.confidence[label]; !ok {
		r.order = append(r.order, label)
	}
	r.confidence[label] = confidence
}

// Confidence returns the confidence of label, or 0 if the label is absent.
func (r *Result) Confidence(label string) float64 {
	if r == nil {
		return 0
	}
	return r.confidence[label]
}

// Classes returns the labels in insertion order.
func (r *Result) Classes() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of labels in the result.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Empty reports whether the result holds no labels.
func (r *Result) Empty() bool {
	return r.Len() == 0
}

// MaxConfidenceClass returns the label with the highest confidence. Ties go to
// the label added first. It returns "" for an empty result.
func (r *Result) MaxConfidenceClass() string {
	if r == nil {
		return ""
	}
	best := ""
	bestConf := 0.0
	for i, label := range r.order {
		c := r.confidence[label]
		if i == 0 || c > bestConf {
			best, bestConf = label, c
		}
	}
	return best
}

// ClassConfidence is the JSON form of one entry of a Result.
type ClassConfidence struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Entries returns the result as a slice in insertion order.
func (r *Result) Entries() []ClassConfidence {
	out := make([]ClassConfidence, 0, r.Len())
	if r == nil {
		return out
	}
	for _, label := range r.order {
		out = append(out, ClassConfidence{Class: label, Confidence: r.confidence[label]})
	}
	return out
}

// MarshalJSON encodes the result as an ordered array of class confidences.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Entries())
}

// UnmarshalJSON decodes an array of class confidences.
func (r *Result) UnmarshalJSON(data []byte) error {
	var entries []ClassConfidence
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*r = Result{confidence: make(map[string]float64, len(entries))}
	for _, e := range entries {
		r.Set(e.Class, e.Confidence)
	}
	return nil
}
