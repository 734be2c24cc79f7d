package classification

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ayusman/asana/internal/pose"
)

// DefaultDelimiter separates fields of a reference record.
const DefaultDelimiter = ","

// ErrMalformedRecord is returned when a reference record cannot be parsed.
var ErrMalformedRecord = errors.New("malformed reference record")

// PoseSample is a labeled reference pose. Samples are created once at load time
// and never modified.
type PoseSample struct {
	Label     string
	Landmarks pose.LandmarkSet
	Dims      int // 2 or 3 coordinates per landmark in the source record
}

// ParseSample parses a record of the form
//
//	label,x0,y0[,z0],x1,y1[,z1],...
//
// with one coordinate group per landmark in schema order. Records with 2 or 3
// coordinates per landmark are accepted; 2D records get z = 0.
func ParseSample(record, delimiter string) (PoseSample, error) {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	tokens := strings.Split(strings.TrimSpace(record), delimiter)
	label := strings.TrimSpace(tokens[0])
	if label == "" {
		return PoseSample{}, fmt.Errorf("%w: empty label", ErrMalformedRecord)
	}

	coords := tokens[1:]
	var dims int
	switch len(coords) {
	case pose.NumLandmarks * 3:
		dims = 3
	case pose.NumLandmarks * 2:
		dims = 2
	default:
		return PoseSample{}, fmt.Errorf("%w: got %d coordinates, want %d or %d",
			ErrMalformedRecord, len(coords), pose.NumLandmarks*2, pose.NumLandmarks*3)
	}

	values := make([]float64, len(coords))
	for i, tok := range coords {
		v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil {
			return PoseSample{}, fmt.Errorf("%w: field %d: %v", ErrMalformedRecord, i+1, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return PoseSample{}, fmt.Errorf("%w: field %d: non-finite value %q", ErrMalformedRecord, i+1, tok)
		}
		values[i] = v
	}

	sample := PoseSample{Label: label, Dims: dims}
	for i := 0; i < pose.NumLandmarks; i++ {
		p := pose.Point3D{X: values[i*dims], Y: values[i*dims+1]}
		if dims == 3 {
			p.Z = values[i*dims+2]
		}
		sample.Landmarks.Set(pose.Landmark(i), p)
	}

	return sample, nil
}

// Format serializes the sample back into a record. dims selects 2 or 3
// coordinates per landmark; any other value uses the sample's own Dims.
func (s PoseSample) Format(delimiter string, dims int) string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	if dims != 2 && dims != 3 {
		dims = s.Dims
	}
	if dims != 2 {
		dims = 3
	}

	fields := make([]string, 0, 1+pose.NumLandmarks*dims)
	fields = append(fields, s.Label)
	for i := 0; i < pose.NumLandmarks; i++ {
		p, _ := s.Landmarks.Get(pose.Landmark(i))
		fields = append(fields, formatFloat(p.X), formatFloat(p.Y))
		if dims == 3 {
			fields = append(fields, formatFloat(p.Z))
		}
	}
	return strings.Join(fields, delimiter)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SkippedRecord describes a reference line that was rejected during loading.
type SkippedRecord struct {
	Line int
	Err  error
}

// LoadSamples reads one record per line. Malformed lines are skipped and
// reported without aborting the batch; blank lines are ignored. The returned
// error is only set when reading from r fails.
func LoadSamples(r io.Reader, delimiter string) ([]PoseSample, []SkippedRecord, error) {
	var samples []PoseSample
	var skipped []SkippedRecord

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		sample, err := ParseSample(text, delimiter)
		if err != nil {
			skipped = append(skipped, SkippedRecord{Line: line, Err: err})
			continue
		}
		samples = append(samples, sample)
	}

	if err := scanner.Err(); err != nil {
		return samples, skipped, fmt.Errorf("read samples: %w", err)
	}

	return samples, skipped, nil
}
