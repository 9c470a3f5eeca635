// Package pairs loads the annotation task table: an ordered list of face
// image pairs with a known ground truth label.
package pairs

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Ground truth labels recognized in the pairs table.
const (
	GroundTruthSame      = "same"
	GroundTruthDifferent = "different"
)

// Pair is one unit of annotation work. Immutable once loaded.
type Pair struct {
	Index       int    `json:"index"`
	ImageA      string `json:"image_a"`
	ImageB      string `json:"image_b"`
	GroundTruth string `json:"-"` // never sent to the browser before submission
	CelebID     string `json:"-"`
}

// FormatError reports a malformed pairs table. It aborts startup.
type FormatError struct {
	Path string
	Line int // 0 when the problem is not tied to a row
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("pairs table %s: line %d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("pairs table %s: %s", e.Path, e.Msg)
}

// requiredColumns in the CSV header. The image columns are uppercase in
// the source data.
var requiredColumns = []string{"index", "A", "B", "ground_truth", "celeb_id"}

// Load reads the pairs CSV. Row order is preserved: it is the order in
// which pairs are presented to annotators.
func Load(path string) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pairs table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, &FormatError{Path: path, Msg: err.Error()}
	}
	if len(records) == 0 {
		return nil, &FormatError{Path: path, Msg: "empty file"}
	}

	cols, err := columnIndexes(path, records[0])
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, len(records)-1)
	for i, row := range records[1:] {
		line := i + 2 // 1-based, after the header
		p, err := parseRow(path, line, row, cols)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// columnIndexes maps each required column name to its position in the header.
func columnIndexes(path string, header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, &FormatError{Path: path, Msg: fmt.Sprintf("missing required column %q", name)}
		}
	}
	return cols, nil
}

func parseRow(path string, line int, row []string, cols map[string]int) (Pair, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	index, err := strconv.Atoi(field("index"))
	if err != nil {
		return Pair{}, &FormatError{Path: path, Line: line, Msg: fmt.Sprintf("index %q is not an integer", field("index"))}
	}

	truth := strings.ToLower(field("ground_truth"))
	if truth != GroundTruthSame && truth != GroundTruthDifferent {
		return Pair{}, &FormatError{
			Path: path, Line: line,
			Msg: fmt.Sprintf("ground_truth %q must be %q or %q", field("ground_truth"), GroundTruthSame, GroundTruthDifferent),
		}
	}

	return Pair{
		Index:       index,
		ImageA:      field("A"),
		ImageB:      field("B"),
		GroundTruth: truth,
		CelebID:     field("celeb_id"),
	}, nil
}
