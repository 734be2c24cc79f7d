package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ayusman/asana/testdata"
)

type samplesBody struct {
	Total   int      `json:"total"`
	Dropped int      `json:"dropped"`
	Classes []string `json:"classes"`
	Labels  []struct {
		Label   string `json:"label"`
		Samples int    `json:"samples"`
	} `json:"labels"`
}

func getSamples(t *testing.T, handler http.Handler) samplesBody {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/samples", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var body samplesBody
	decode(t, rec, &body)
	return body
}

func TestSamplesHandler_List(t *testing.T) {
	s := newTestStore(t)
	a := newTestApp(t, s, false)
	handler := NewSamplesHandler(a, s)

	// Nothing loaded yet
	empty := getSamples(t, handler)
	if empty.Total != 0 || len(empty.Classes) != 0 || len(empty.Labels) != 0 {
		t.Errorf("expected no samples, got %+v", empty)
	}

	body := testdata.ReferenceFile() + "broken,1,2,3\n"
	if _, err := a.ImportSamplesFrom(strings.NewReader(body), "test"); err != nil {
		t.Fatalf("ImportSamplesFrom() error = %v", err)
	}

	listed := getSamples(t, handler)
	if listed.Total != len(testdata.ReferenceSamples()) {
		t.Errorf("expected %d samples, got %d", len(testdata.ReferenceSamples()), listed.Total)
	}
	if strings.Join(listed.Classes, ",") != strings.Join(testdata.Classes, ",") {
		t.Errorf("expected classes %v, got %v", testdata.Classes, listed.Classes)
	}
	if len(listed.Labels) != len(testdata.Classes) {
		t.Fatalf("expected %d stored labels, got %d", len(testdata.Classes), len(listed.Labels))
	}
	for _, l := range listed.Labels {
		if l.Samples != testdata.VariantsPerClass {
			t.Errorf("label %s: expected %d samples, got %d", l.Label, testdata.VariantsPerClass, l.Samples)
		}
	}
}

func TestSamplesHandler_WithoutStore(t *testing.T) {
	handler := NewSamplesHandler(newTestApp(t, nil, true), nil)

	listed := getSamples(t, handler)
	if listed.Total != len(testdata.ReferenceSamples()) {
		t.Errorf("expected %d samples, got %d", len(testdata.ReferenceSamples()), listed.Total)
	}
	if listed.Labels != nil {
		t.Errorf("expected no stored labels, got %+v", listed.Labels)
	}
}

func TestSamplesHandler_ReadOnly(t *testing.T) {
	handler := NewSamplesHandler(newTestApp(t, nil, false), nil)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/samples", strings.NewReader("x"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}
