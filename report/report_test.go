package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"simfinder/types"
)

func TestRankIsStable(t *testing.T) {
	records := []types.SimilarityRecord{
		{Path: "A", Score: 50},
		{Path: "B", Score: 50},
		{Path: "C", Score: 90},
	}

	got := Rank(records)
	want := []types.SimilarityRecord{
		{Path: "C", Score: 90},
		{Path: "A", Score: 50},
		{Path: "B", Score: 50},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rank = %v, want %v", got, want)
	}
	if records[0].Path != "A" || records[2].Path != "C" {
		t.Errorf("input was mutated: %v", records)
	}
}

func TestFilter(t *testing.T) {
	ranked := []types.SimilarityRecord{
		{Path: "a", Score: 100},
		{Path: "b", Score: 75},
		{Path: "c", Score: 40},
	}

	tests := []struct {
		name     string
		minScore float64
		limit    int
		want     []string
	}{
		{"no filter", 0, 0, []string{"a", "b", "c"}},
		{"min score", 50, 0, []string{"a", "b"}},
		{"limit", 0, 1, []string{"a"}},
		{"both", 75, 5, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range Filter(ranked, tt.minScore, tt.limit) {
				got = append(got, r.Path)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, "/data/photos", []types.SimilarityRecord{
		{Path: "/tmp/x/same.png", Score: 100},
		{Path: "/tmp/x/sub/close.png", Score: 75},
		{Path: "/tmp/x/far.png", Score: 0},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := "/data/photos\nsame.png --> 100.00%\nclose.png --> 75.00%\nfar.png --> 0.00%\n"
	if buf.String() != want {
		t.Errorf("report = %q, want %q", buf.String(), want)
	}
}

func TestWriteReportRoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "similarity.txt")
	records := []types.SimilarityRecord{
		{Path: "dir/one.jpg", Score: 98.4375},
		{Path: "dir/two --> tricky.jpg", Score: 71.875},
		{Path: "dir/three.jpg", Score: 3.125},
	}

	if err := WriteReport(out, "photos.zip", records); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	label, entries, err := ReadReport(out)
	if err != nil {
		t.Fatal(err)
	}
	if label != "photos.zip" {
		t.Errorf("label = %q", label)
	}

	want := []Entry{
		{Filename: "one.jpg", Score: 98.44},
		{Filename: "two --> tricky.jpg", Score: 71.88},
		{Filename: "three.jpg", Score: 3.12},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("entries = %+v, want %+v", entries, want)
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(out), ".simfinder-report-*"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestWriteReportEmpty(t *testing.T) {
	out := filepath.Join(t.TempDir(), "similarity.txt")
	if err := WriteReport(out, "empty-dir", nil); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "empty-dir\n" {
		t.Errorf("report = %q", data)
	}
}

func TestWriteReportUnwritablePath(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing", "similarity.txt")
	err := WriteReport(out, "src", nil)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestParseReportRejectsGarbage(t *testing.T) {
	if _, _, err := ParseReport(strings.NewReader("")); err == nil {
		t.Error("expected error for empty report")
	}
	if _, _, err := ParseReport(strings.NewReader("src\nnot a record\n")); err == nil {
		t.Error("expected error for malformed line")
	}
}
