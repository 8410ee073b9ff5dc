package dataset

import (
	"bytes"
	"strings"
	"testing"
)

const sampleCSV = "city,population,area\nBerlin,3645000,891.7\nHamburg,1841000,755.2\nMunich,1472000,310.4\n"

func TestReadCSV(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}

	if len(f.Columns) != 3 || f.Columns[0] != "city" {
		t.Errorf("columns = %v", f.Columns)
	}
	if len(f.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(f.Rows))
	}
	if f.Rows[1][0] != "Hamburg" || f.Rows[1][1] != "1841000" {
		t.Errorf("row 1 = %v", f.Rows[1])
	}
}

func TestReadCSV_RaggedRowsPadded(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("a,b,c\n1,2\n3,4,5,6\n"))
	if err != nil {
		t.Fatal(err)
	}

	for i, row := range f.Rows {
		if len(row) != 3 {
			t.Errorf("row %d width = %d, want 3", i, len(row))
		}
	}
	if f.Rows[0][2] != "" {
		t.Errorf("short row padding = %q, want empty", f.Rows[0][2])
	}
	if f.Rows[1][2] != "5" {
		t.Errorf("long row truncation = %q, want 5", f.Rows[1][2])
	}
}

func TestReadCSV_Empty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Error("empty input parsed, want error")
	}
}

func TestFrame_CopyIsPrivate(t *testing.T) {
	f, _ := ReadCSV(strings.NewReader(sampleCSV))
	c := f.Copy()

	c.Columns[0] = "mutated"
	c.Rows[0][0] = "mutated"

	if f.Columns[0] != "city" || f.Rows[0][0] != "Berlin" {
		t.Error("mutating the copy changed the original")
	}
}

func TestFrame_WriteCSVRoundTrip(t *testing.T) {
	f, _ := ReadCSV(strings.NewReader(sampleCSV))

	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}
	back, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if len(back.Rows) != len(f.Rows) || back.Rows[2][0] != "Munich" {
		t.Errorf("round trip rows = %v", back.Rows)
	}
}

func TestDtypeOf(t *testing.T) {
	cases := []struct {
		name  string
		cells []string
		want  string
	}{
		{"integers", []string{"1", "2", "3"}, "int64"},
		{"floats", []string{"1.5", "2", "3.25"}, "float64"},
		{"strings", []string{"a", "b"}, "object"},
		{"mixed", []string{"1", "x"}, "object"},
		{"empties skipped", []string{"", "7", ""}, "int64"},
		{"all empty", []string{"", ""}, "object"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := dtypeOf(tc.cells); got != tc.want {
				t.Errorf("dtypeOf(%v) = %q, want %q", tc.cells, got, tc.want)
			}
		})
	}
}

func TestFrame_Schema(t *testing.T) {
	f, _ := ReadCSV(strings.NewReader("city,population,score\nBerlin,3645000,8.5\nHamburg,,7.25\n"))
	s := f.Schema()

	if s.Shape[0] != 2 || s.Shape[1] != 3 {
		t.Errorf("shape = %v, want [2 3]", s.Shape)
	}
	if s.Dtypes["city"] != "object" || s.Dtypes["population"] != "int64" || s.Dtypes["score"] != "float64" {
		t.Errorf("dtypes = %v", s.Dtypes)
	}
	if s.NullCounts["population"] != 1 || s.NullCounts["city"] != 0 {
		t.Errorf("null counts = %v", s.NullCounts)
	}

	if len(s.SampleRows) != 2 {
		t.Fatalf("sample rows = %d, want 2", len(s.SampleRows))
	}
	if v, ok := s.SampleRows[0]["population"].(int64); !ok || v != 3645000 {
		t.Errorf("sample population = %v, want int64 3645000", s.SampleRows[0]["population"])
	}
	if v, ok := s.SampleRows[0]["score"].(float64); !ok || v != 8.5 {
		t.Errorf("sample score = %v, want float64 8.5", s.SampleRows[0]["score"])
	}
	if s.SampleRows[1]["population"] != nil {
		t.Errorf("empty cell sample = %v, want nil", s.SampleRows[1]["population"])
	}
}

func TestFrame_SchemaSampleRowLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < 25; i++ {
		b.WriteString("1\n")
	}
	f, _ := ReadCSV(strings.NewReader(b.String()))

	s := f.Schema()
	if len(s.SampleRows) != sampleRowLimit {
		t.Errorf("sample rows = %d, want %d", len(s.SampleRows), sampleRowLimit)
	}
	if s.Shape[0] != 25 {
		t.Errorf("shape rows = %d, want 25", s.Shape[0])
	}
}
