package classification

import "fmt"

// Default hysteresis thresholds on the smoothed confidence.
const (
	DefaultEnterThreshold = 0.6
	DefaultExitThreshold  = 0.4
)

// RepetitionCounter counts repetitions of one pose class. A repetition is
// counted when the class confidence rises to the enter threshold and then
// falls back to the exit threshold, so holding the pose counts once.
// It is not safe for concurrent use.
type RepetitionCounter struct {
	className string
	enter     float64
	exit      float64
	entered   bool
	count     int
}

// NewRepetitionCounter returns a counter for className. enter must be
// strictly greater than exit.
func NewRepetitionCounter(className string, enter, exit float64) (*RepetitionCounter, error) {
	if className == "" {
		return nil, fmt.Errorf("class name is required")
	}
	if enter <= exit {
		return nil, fmt.Errorf("enter threshold %.3f must be greater than exit threshold %.3f", enter, exit)
	}
	return &RepetitionCounter{
		className: className,
		enter:     enter,
		exit:      exit,
	}, nil
}

// AddClassificationResult feeds one smoothed result and returns the number of
// repetitions so far. A class absent from r has confidence 0.
func (c *RepetitionCounter) AddClassificationResult(r *Result) int {
	conf := r.Confidence(c.className)

	if !c.entered {
		c.entered = conf >= c.enter
		return c.count
	}

	if conf <= c.exit {
		c.count++
		c.entered = false
	}
	return c.count
}

// ClassName returns the tracked class.
func (c *RepetitionCounter) ClassName() string {
	return c.className
}

// Count returns the number of repetitions counted.
func (c *RepetitionCounter) Count() int {
	return c.count
}

// Entered reports whether the counter is currently inside the pose.
func (c *RepetitionCounter) Entered() bool {
	return c.entered
}
