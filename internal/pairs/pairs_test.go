package pairs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writePairsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pairs.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write pairs file: %v", err)
	}
	return path
}

func TestLoad_PreservesRowOrder(t *testing.T) {
	path := writePairsFile(t, `index,A,B,ground_truth,celeb_id
3,a1.jpg,b1.jpg,same,100
1,a2.jpg,b2.jpg,different,200
2,a3.jpg,b3.jpg,same,300
`)

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(loaded) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(loaded))
	}
	// Table order, not index order.
	wantIndexes := []int{3, 1, 2}
	for i, want := range wantIndexes {
		if loaded[i].Index != want {
			t.Errorf("position %d: expected index %d, got %d", i, want, loaded[i].Index)
		}
	}
}

func TestLoad_ParsesFields(t *testing.T) {
	path := writePairsFile(t, `index,A,B,ground_truth,celeb_id
0,img1.jpg,img2.jpg,same,1234
`)

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := loaded[0]
	if p.ImageA != "img1.jpg" || p.ImageB != "img2.jpg" {
		t.Errorf("unexpected images: %q, %q", p.ImageA, p.ImageB)
	}
	if p.GroundTruth != GroundTruthSame {
		t.Errorf("expected ground truth 'same', got %q", p.GroundTruth)
	}
	if p.CelebID != "1234" {
		t.Errorf("expected celeb id '1234', got %q", p.CelebID)
	}
}

func TestLoad_NormalizesGroundTruthCase(t *testing.T) {
	path := writePairsFile(t, `index,A,B,ground_truth,celeb_id
0,a.jpg,b.jpg,Same,1
`)

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded[0].GroundTruth != GroundTruthSame {
		t.Errorf("expected normalized ground truth, got %q", loaded[0].GroundTruth)
	}
}

func TestLoad_MissingColumn(t *testing.T) {
	path := writePairsFile(t, `index,A,B,celeb_id
0,a.jpg,b.jpg,1
`)

	_, err := Load(path)

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestLoad_BadGroundTruth(t *testing.T) {
	path := writePairsFile(t, `index,A,B,ground_truth,celeb_id
0,a.jpg,b.jpg,maybe,1
`)

	_, err := Load(path)

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if formatErr.Line != 2 {
		t.Errorf("expected error on line 2, got %d", formatErr.Line)
	}
}

func TestLoad_BadIndex(t *testing.T) {
	path := writePairsFile(t, `index,A,B,ground_truth,celeb_id
zero,a.jpg,b.jpg,same,1
`)

	_, err := Load(path)

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writePairsFile(t, "")

	_, err := Load(path)

	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError for empty file, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
