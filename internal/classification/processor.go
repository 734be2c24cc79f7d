package classification

import (
	"fmt"

	"github.com/ayusman/asana/internal/pose"
)

// DefaultRepClasses are the classes counted when no counters are configured.
var DefaultRepClasses = []string{PushupsDown, SquatsDown}

// RepEvent is reported when a counter completes a repetition.
type RepEvent struct {
	Class string `json:"class"`
	Reps  int    `json:"reps"`
}

// FrameResult is the outcome of processing one frame.
type FrameResult struct {
	// Classification is the smoothed result in stream mode and the raw one otherwise.
	Classification *Result `json:"classification"`
	// Label is the display label; empty when the frame held no pose.
	Label string `json:"label,omitempty"`
	// RepText is the latest "<class> : <n> reps" message in stream mode.
	RepText string         `json:"rep_text,omitempty"`
	Counts  map[string]int `json:"counts,omitempty"`
	Events  []RepEvent     `json:"events,omitempty"`
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithCounters replaces the default repetition counters.
func WithCounters(counters ...*RepetitionCounter) ProcessorOption {
	return func(p *Processor) {
		p.counters = counters
	}
}

// WithSmoothing replaces the default smoother.
func WithSmoothing(s *EMASmoothing) ProcessorOption {
	return func(p *Processor) {
		if s != nil {
			p.smoothing = s
		}
	}
}

// WithOverlay replaces the default overlay. A nil overlay passes labels through.
func WithOverlay(o *Overlay) ProcessorOption {
	return func(p *Processor) {
		p.overlay = o
	}
}

// WithOnRep registers a callback invoked for every completed repetition.
func WithOnRep(fn func(RepEvent)) ProcessorOption {
	return func(p *Processor) {
		p.onRep = fn
	}
}

// Processor runs the per-frame pipeline of one session: classify, smooth,
// count repetitions and refine the label. In one-shot mode only classification
// and refinement run. A Processor is not safe for concurrent use; frames of a
// session must be fed in order.
type Processor struct {
	classifier *Classifier
	stream     bool
	smoothing  *EMASmoothing
	counters   []*RepetitionCounter
	overlay    *Overlay
	onRep      func(RepEvent)

	lastRepText string
}

// NewProcessor creates a processor backed by a shared classifier.
func NewProcessor(classifier *Classifier, stream bool, opts ...ProcessorOption) *Processor {
	p := &Processor{
		classifier: classifier,
		stream:     stream,
		overlay:    DefaultOverlay(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if stream {
		if p.smoothing == nil {
			p.smoothing = NewEMASmoothing()
		}
		if p.counters == nil {
			for _, class := range DefaultRepClasses {
				c, _ := NewRepetitionCounter(class, DefaultEnterThreshold, DefaultExitThreshold)
				p.counters = append(p.counters, c)
			}
		}
	} else {
		p.smoothing = nil
		p.counters = nil
	}

	return p
}

// Stream reports whether the processor tracks state across frames.
func (p *Processor) Stream() bool {
	return p.stream
}

// Process handles one frame. An empty set means no pose was detected: in
// stream mode it still decays the smoothed history but leaves the counters
// untouched.
//
// Every counter sees every frame, so one frame can complete repetitions for
// several counters. Events lists all of them in counter order; RepText
// describes only the first.
func (p *Processor) Process(set pose.LandmarkSet) FrameResult {
	classification := p.classifier.Classify(set)

	if !p.stream {
		res := FrameResult{Classification: classification}
		if !set.Empty() {
			res.Label = p.overlay.Refine(classification.MaxConfidenceClass(), set)
		}
		return res
	}

	classification = p.smoothing.Smooth(classification)
	res := FrameResult{Classification: classification}

	if set.Empty() {
		res.RepText = p.lastRepText
		res.Counts = p.Counts()
		return res
	}

	for _, c := range p.counters {
		before := c.Count()
		after := c.AddClassificationResult(classification)
		if after <= before {
			continue
		}
		ev := RepEvent{Class: c.ClassName(), Reps: after}
		if len(res.Events) == 0 {
			p.lastRepText = fmt.Sprintf("%s : %d reps", ev.Class, ev.Reps)
		}
		res.Events = append(res.Events, ev)
		if p.onRep != nil {
			p.onRep(ev)
		}
	}

	res.RepText = p.lastRepText
	res.Counts = p.Counts()
	res.Label = p.overlay.Refine(classification.MaxConfidenceClass(), set)

	return res
}

// Counts returns the repetitions counted so far per tracked class.
func (p *Processor) Counts() map[string]int {
	counts := make(map[string]int, len(p.counters))
	for _, c := range p.counters {
		counts[c.ClassName()] = c.Count()
	}
	return counts
}
