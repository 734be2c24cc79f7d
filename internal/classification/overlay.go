package classification

import "github.com/ayusman/asana/internal/pose"

// Reference labels the default rules and counters refer to.
const (
	PushupsDown = "pushups_down"
	PushupsUp   = "pushups_up"
	SquatsDown  = "squats_down"
	SquatsUp    = "squats_up"
)

// Rule relabels a pose from its joint angles.
type Rule struct {
	// Name identifies the rule; Label is the display label it produces.
	Name  string
	Label string
	// When restricts the rule to one classifier label. Empty matches any label.
	When string
	// Requires lists the landmarks Match reads. The rule is skipped when any
	// of them is missing.
	Requires []pose.Landmark
	Match    func(s pose.LandmarkSet) bool
	// Unless suppresses the rule when any of these rules matches the same frame.
	Unless []*Rule
}

// Matches reports whether the rule applies to a frame classified as label.
func (r *Rule) Matches(label string, s pose.LandmarkSet) bool {
	if r.When != "" && r.When != label {
		return false
	}
	if !s.Has(r.Requires...) {
		return false
	}
	if r.Match == nil || !r.Match(s) {
		return false
	}
	for _, guard := range r.Unless {
		if guard.Matches(label, s) {
			return false
		}
	}
	return true
}

// Overlay turns a classifier label into a display label. Rules are tried in
// order and the first match wins; otherwise the label is mapped through the
// display names, and passed through unchanged when it has none.
type Overlay struct {
	rules []*Rule
	names map[string]string
}

// NewOverlay returns an overlay with the given rules and display names.
func NewOverlay(rules []*Rule, names map[string]string) *Overlay {
	o := &Overlay{
		rules: rules,
		names: make(map[string]string, len(names)),
	}
	for k, v := range names {
		o.names[k] = v
	}
	return o
}

// Rules returns the rules in evaluation order.
func (o *Overlay) Rules() []*Rule {
	out := make([]*Rule, len(o.rules))
	copy(out, o.rules)
	return out
}

// Refine returns the display label for a frame.
func (o *Overlay) Refine(label string, s pose.LandmarkSet) string {
	if o == nil {
		return label
	}
	for _, r := range o.rules {
		if r.Matches(label, s) {
			return r.Label
		}
	}
	if name, ok := o.names[label]; ok {
		return name
	}
	return label
}

// DefaultDisplayNames maps the reference labels to display labels.
func DefaultDisplayNames() map[string]string {
	return map[string]string{
		SquatsUp:    "Standing",
		SquatsDown:  "Squats Down",
		PushupsDown: "Pushup Down",
		PushupsUp:   "Pushup",
	}
}

// angle reads an angle whose landmarks were already checked by Requires.
func angle(s pose.LandmarkSet, a, b, c pose.Landmark) float64 {
	deg, _ := s.AngleOf(a, b, c)
	return deg
}

var (
	armLandmarks = []pose.Landmark{
		pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist,
		pose.RightShoulder, pose.RightElbow, pose.RightWrist,
	}
	abductionLandmarks = []pose.Landmark{
		pose.LeftElbow, pose.LeftShoulder, pose.LeftHip,
		pose.RightElbow, pose.RightShoulder, pose.RightHip,
	}
)

func leftElbowAngle(s pose.LandmarkSet) float64 {
	return angle(s, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist)
}

func rightElbowAngle(s pose.LandmarkSet) float64 {
	return angle(s, pose.RightShoulder, pose.RightElbow, pose.RightWrist)
}

func leftKneeAngle(s pose.LandmarkSet) float64 {
	return angle(s, pose.LeftHip, pose.LeftKnee, pose.LeftHeel)
}

func rightKneeAngle(s pose.LandmarkSet) float64 {
	return angle(s, pose.RightHip, pose.RightKnee, pose.RightHeel)
}

// armsRaised reports whether both upper arms are lifted above shoulder level.
func armsRaised(s pose.LandmarkSet) bool {
	return angle(s, pose.LeftElbow, pose.LeftShoulder, pose.LeftHip) > 90 &&
		angle(s, pose.RightElbow, pose.RightShoulder, pose.RightHip) > 90
}

// DefaultRules returns the built-in rule list in evaluation order.
func DefaultRules() []*Rule {
	vrikshasana := &Rule{
		Name:  "vrikshasana",
		Label: "Vrikshasana",
		Requires: append([]pose.Landmark{
			pose.LeftHip, pose.LeftKnee, pose.LeftHeel,
			pose.RightHip, pose.RightKnee, pose.RightHeel,
		}, abductionLandmarks...),
		Match: func(s pose.LandmarkSet) bool {
			if !armsRaised(s) {
				return false
			}
			left, right := leftKneeAngle(s), rightKneeAngle(s)
			return (left < 90 && right > 90) || (left > 90 && right < 90)
		},
	}

	kneePushUpLeft := &Rule{
		Name:     "knee_push_up_left",
		Label:    "Knee Push Up",
		When:     PushupsDown,
		Requires: []pose.Landmark{pose.LeftHip, pose.LeftKnee, pose.LeftHeel},
		Match: func(s pose.LandmarkSet) bool {
			return leftKneeAngle(s) < 110
		},
	}

	kneePushUpRight := &Rule{
		Name:     "knee_push_up_right",
		Label:    "Knee Push Up",
		When:     PushupsDown,
		Requires: []pose.Landmark{pose.RightHip, pose.RightKnee, pose.RightHeel},
		Match: func(s pose.LandmarkSet) bool {
			return rightKneeAngle(s) < 110
		},
	}

	legRaise := &Rule{
		Name:  "leg_raise",
		Label: "Leg Raise",
		Requires: []pose.Landmark{
			pose.LeftShoulder, pose.LeftHip, pose.LeftKnee,
			pose.RightShoulder, pose.RightHip, pose.RightKnee,
		},
		Match: func(s pose.LandmarkSet) bool {
			return angle(s, pose.LeftShoulder, pose.LeftHip, pose.LeftKnee) < 95 &&
				angle(s, pose.RightShoulder, pose.RightHip, pose.RightKnee) < 95
		},
	}

	planks := &Rule{
		Name:     "planks",
		Label:    "Planks",
		When:     PushupsDown,
		Requires: armLandmarks,
		Match: func(s pose.LandmarkSet) bool {
			return leftElbowAngle(s) < 95 || rightElbowAngle(s) < 95
		},
		Unless: []*Rule{vrikshasana, kneePushUpLeft, kneePushUpRight},
	}

	bicepCurls := &Rule{
		Name:     "bicep_curls",
		Label:    "Bicep Curls",
		Requires: armLandmarks,
		Match: func(s pose.LandmarkSet) bool {
			return leftElbowAngle(s) < 30 || rightElbowAngle(s) < 30
		},
	}

	jumpingJacks := &Rule{
		Name:  "jumping_jacks",
		Label: "Jumping Jacks",
		When:  SquatsUp,
		Requires: append([]pose.Landmark{
			pose.LeftHeel, pose.RightHeel,
		}, abductionLandmarks...),
		Match: func(s pose.LandmarkSet) bool {
			return armsRaised(s) &&
				angle(s, pose.LeftHeel, pose.LeftHip, pose.RightHeel) > 10
		},
	}

	return []*Rule{
		legRaise,
		planks,
		bicepCurls,
		vrikshasana,
		jumpingJacks,
		kneePushUpLeft,
		kneePushUpRight,
	}
}

// DefaultOverlay returns the built-in rules with the default display names.
func DefaultOverlay() *Overlay {
	return NewOverlay(DefaultRules(), DefaultDisplayNames())
}
