package mesh

import (
	"strings"
	"testing"
)

func TestParseOBJBasic(t *testing.T) {
	obj := `# a single triangle
v 0.0 0.0 0.0
v 1.0 0.0 0.0
v 0.0 1.0 0.0
f 1 2 3
`
	m, err := ParseOBJ(strings.NewReader(obj))
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if m.VertexCount() != 3 || m.FaceCount() != 1 {
		t.Errorf("expected 3 vertices / 1 face, got %d / %d", m.VertexCount(), m.FaceCount())
	}
	if m.Faces[0] != [3]int{0, 1, 2} {
		t.Errorf("unexpected face indices %v", m.Faces[0])
	}
}

func TestParseOBJSlashForms(t *testing.T) {
	obj := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vn 0 0 1
f 1/1/1 2/1/1 3/1/1
`
	m, err := ParseOBJ(strings.NewReader(obj))
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if m.FaceCount() != 1 {
		t.Errorf("expected 1 face, got %d", m.FaceCount())
	}
}

func TestParseOBJNegativeIndices(t *testing.T) {
	obj := `v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	m, err := ParseOBJ(strings.NewReader(obj))
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if m.Faces[0] != [3]int{0, 1, 2} {
		t.Errorf("negative indices resolved to %v", m.Faces[0])
	}
}

func TestParseOBJRejectsQuads(t *testing.T) {
	obj := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`
	if _, err := ParseOBJ(strings.NewReader(obj)); err == nil {
		t.Error("expected error for non-triangular face")
	}
}

func TestParseOBJRejectsOutOfRangeIndex(t *testing.T) {
	obj := `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 9
`
	if _, err := ParseOBJ(strings.NewReader(obj)); err == nil {
		t.Error("expected error for out-of-range face index")
	}
}

func TestParseOBJRejectsBadCoordinate(t *testing.T) {
	obj := `v 0 zero 0
`
	if _, err := ParseOBJ(strings.NewReader(obj)); err == nil {
		t.Error("expected error for non-numeric coordinate")
	}
}

func TestParseOBJEmpty(t *testing.T) {
	if _, err := ParseOBJ(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestLoadOBJMissingFile(t *testing.T) {
	if _, err := LoadOBJ("does-not-exist.obj"); err == nil {
		t.Error("expected error for missing file")
	}
}
