package store

import (
	"testing"

	"github.com/ayusman/asana/internal/classification"
	"github.com/ayusman/asana/internal/pose"
)

func testSamples() []classification.PoseSample {
	return []classification.PoseSample{
		{Label: "squats_up", Landmarks: pose.StandingLandmarks(), Dims: 3},
		{Label: "squats_down", Landmarks: pose.SquatDownLandmarks(), Dims: 3},
		{Label: "squats_up", Landmarks: pose.Transform(pose.StandingLandmarks(), 0.5, 0.1, 0.1), Dims: 2},
	}
}

func TestSampleRepository_ReplaceAllAndList(t *testing.T) {
	s := newTestStore(t)
	repo := s.Samples()

	if err := repo.ReplaceAll(testSamples()); err != nil {
		t.Fatalf("failed to store samples: %v", err)
	}

	got, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list samples: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got))
	}

	want := testSamples()
	for i := range want {
		if got[i].Label != want[i].Label {
			t.Errorf("sample %d: expected label %q, got %q", i, want[i].Label, got[i].Label)
		}
		if got[i].Dims != want[i].Dims {
			t.Errorf("sample %d: expected dims %d, got %d", i, want[i].Dims, got[i].Dims)
		}
		wp, _ := want[i].Landmarks.Get(pose.LeftKnee)
		gp, ok := got[i].Landmarks.Get(pose.LeftKnee)
		if !ok || gp.X != wp.X || gp.Y != wp.Y {
			t.Errorf("sample %d: expected left knee %+v, got %+v", i, wp, gp)
		}
	}

	// 2D samples lose depth.
	gp, _ := got[2].Landmarks.Get(pose.LeftKnee)
	if gp.Z != 0 {
		t.Errorf("expected z = 0 for 2D sample, got %v", gp.Z)
	}
}

func TestSampleRepository_ReplaceAllReplaces(t *testing.T) {
	s := newTestStore(t)
	repo := s.Samples()

	if err := repo.ReplaceAll(testSamples()); err != nil {
		t.Fatalf("failed to store samples: %v", err)
	}
	if err := repo.ReplaceAll(testSamples()[:1]); err != nil {
		t.Fatalf("failed to replace samples: %v", err)
	}

	n, err := repo.Count()
	if err != nil {
		t.Fatalf("failed to count samples: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 sample after replace, got %d", n)
	}
}

func TestSampleRepository_CountByLabel(t *testing.T) {
	s := newTestStore(t)
	repo := s.Samples()

	counts, err := repo.CountByLabel()
	if err != nil {
		t.Fatalf("failed to count empty table: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("expected no counts, got %v", counts)
	}

	if err := repo.ReplaceAll(testSamples()); err != nil {
		t.Fatalf("failed to store samples: %v", err)
	}

	counts, err = repo.CountByLabel()
	if err != nil {
		t.Fatalf("failed to count samples: %v", err)
	}

	want := []LabelCount{{Label: "squats_down", Samples: 1}, {Label: "squats_up", Samples: 2}}
	if len(counts) != len(want) {
		t.Fatalf("expected %d labels, got %d", len(want), len(counts))
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("label %d: expected %+v, got %+v", i, want[i], counts[i])
		}
	}
}
