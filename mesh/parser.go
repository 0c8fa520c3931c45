package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
)

// LoadOBJ reads a triangulated Wavefront OBJ file.
func LoadOBJ(path string) (*TriangleMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading OBJ: %w", err)
	}
	defer f.Close()
	m, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("loading OBJ %s: %w", path, err)
	}
	return m, nil
}

// ParseOBJ reads a triangulated mesh from Wavefront OBJ data. Only vertex
// (v) and face (f) records are interpreted; texture and normal references in
// face corners are ignored. Faces with more or fewer than three corners are
// rejected, keeping the triangulated-input precondition at the boundary.
func ParseOBJ(r io.Reader) (*TriangleMesh, error) {
	var vertices []r3.Vector
	var faces [][3]int

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("parsing OBJ line %d: vertex needs 3 coordinates", lineNo)
			}
			var coords [3]float64
			for i := 0; i < 3; i++ {
				c, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("parsing OBJ line %d: bad coordinate %q: %w", lineNo, fields[i+1], err)
				}
				coords[i] = c
			}
			vertices = append(vertices, r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})

		case "f":
			if len(fields) != 4 {
				return nil, fmt.Errorf("parsing OBJ line %d: face has %d corners, mesh must be triangulated", lineNo, len(fields)-1)
			}
			var face [3]int
			for i := 0; i < 3; i++ {
				idx, err := parseFaceIndex(fields[i+1], len(vertices))
				if err != nil {
					return nil, fmt.Errorf("parsing OBJ line %d: %w", lineNo, err)
				}
				face[i] = idx
			}
			faces = append(faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parsing OBJ: %w", err)
	}
	return NewTriangleMesh(vertices, faces)
}

// parseFaceIndex resolves an OBJ face corner (possibly "v/vt/vn") to a
// zero-based vertex index. OBJ indices are 1-based; negative indices count
// back from the most recent vertex.
func parseFaceIndex(field string, vertexCount int) (int, error) {
	if i := strings.IndexByte(field, '/'); i >= 0 {
		field = field[:i]
	}
	idx, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("bad face index %q: %w", field, err)
	}
	if idx < 0 {
		idx = vertexCount + idx
	} else {
		idx--
	}
	if idx < 0 || idx >= vertexCount {
		return 0, fmt.Errorf("face index %q out of range", field)
	}
	return idx, nil
}
