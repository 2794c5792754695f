package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/morphface/pkg/morph"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic       = errors.New("invalid PLY magic: expected 'ply'")
	ErrUnsupportedPLYFormat  = errors.New("unsupported PLY format")
	ErrTruncatedPLYData      = errors.New("truncated PLY data")
	ErrMalformedPLYData      = errors.New("malformed PLY data")
	ErrColorCountMismatch    = errors.New("color count does not match vertex count")
	errUnexpectedPLYProperty = errors.New("unexpected PLY property")
)

// Header lines shared by both PLY variants.
const (
	plyPositionProps = "property float x\nproperty float y\nproperty float z\n"
	plyColorProps    = "property uchar red\nproperty uchar green\nproperty uchar blue\n"
	plyFaceProps     = "property list uchar int vertex_indices\n"
)

// maxPLYElements bounds the vertex and face counts read from a PLY header.
const maxPLYElements = 1 << 24

// WritePLY writes an ASCII PLY mesh with per-vertex colors.
// colors must have one entry per vertex.
func WritePLY(w io.Writer, vertices [][3]float64, colors [][3]uint8, faces [][3]int32) error {
	if len(colors) != len(vertices) {
		return fmt.Errorf("%w: %d colors for %d vertices (%w)", ErrColorCountMismatch, len(colors), len(vertices), morph.ErrShapeMismatch)
	}
	return writePLY(w, vertices, colors, faces, true)
}

// WritePLYTextureless writes an ASCII PLY mesh without colors.
func WritePLYTextureless(w io.Writer, vertices [][3]float64, faces [][3]int32) error {
	return writePLY(w, vertices, nil, faces, false)
}

// writePLY writes either variant. colors is ignored unless textured is set.
func writePLY(w io.Writer, vertices [][3]float64, colors [][3]uint8, faces [][3]int32, textured bool) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("ply\n")
	bw.WriteString("format ascii 1.0\n")
	fmt.Fprintf(bw, "element vertex %d\n", len(vertices))
	bw.WriteString(plyPositionProps)
	if textured {
		bw.WriteString(plyColorProps)
	}
	fmt.Fprintf(bw, "element face %d\n", len(faces))
	bw.WriteString(plyFaceProps)
	bw.WriteString("end_header\n")

	for i, v := range vertices {
		if textured {
			c := colors[i]
			fmt.Fprintf(bw, "%0.4f %0.4f %0.4f %d %d %d\n", v[0], v[1], v[2], c[0], c[1], c[2])
		} else {
			fmt.Fprintf(bw, "%0.4f %0.4f %0.4f\n", v[0], v[1], v[2])
		}
	}

	for _, f := range faces {
		fmt.Fprintf(bw, "3 %d %d %d\n", f[0], f[1], f[2])
	}

	// bufio.Writer keeps the first write error and returns it here.
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing PLY: %w", err)
	}
	return nil
}

// WritePLYFile creates or truncates path and writes a colored mesh to it.
// On failure the file may be left incomplete.
func WritePLYFile(path string, vertices [][3]float64, colors [][3]uint8, faces [][3]int32) error {
	if len(colors) != len(vertices) {
		return fmt.Errorf("%w: %d colors for %d vertices (%w)", ErrColorCountMismatch, len(colors), len(vertices), morph.ErrShapeMismatch)
	}
	return writePLYFile(path, vertices, colors, faces, true)
}

// WritePLYTexturelessFile creates or truncates path and writes a mesh without colors.
func WritePLYTexturelessFile(path string, vertices [][3]float64, faces [][3]int32) error {
	return writePLYFile(path, vertices, nil, faces, false)
}

// WriteMeshFile writes mesh to path, choosing the textured layout when the mesh has colors.
func WriteMeshFile(path string, mesh *morph.Mesh) error {
	if mesh.Colors != nil {
		return WritePLYFile(path, mesh.Vertices, mesh.Colors, mesh.Faces)
	}
	return WritePLYTexturelessFile(path, mesh.Vertices, mesh.Faces)
}

func writePLYFile(path string, vertices [][3]float64, colors [][3]uint8, faces [][3]int32, textured bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating PLY file: %w", err)
	}

	if err := writePLY(f, vertices, colors, faces, textured); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing PLY file: %w", err)
	}
	return nil
}

// PLY is a parsed ASCII PLY mesh.
type PLY struct {
	Vertices [][3]float64
	// Colors is nil when the file has no color properties.
	Colors [][3]uint8
	Faces  [][3]int32
}

// HasColors reports whether the mesh carries per-vertex colors.
func (p *PLY) HasColors() bool {
	return p.Colors != nil
}

// plyHeader is the subset of the PLY header this package writes.
type plyHeader struct {
	vertexCount int
	faceCount   int
	vertexProps []string
}

// ParsePLY reads an ASCII PLY mesh in the layout produced by WritePLY or
// WritePLYTextureless. Faces must be triangles.
func ParsePLY(r io.Reader) (*PLY, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	hdr, err := parsePLYHeader(sc)
	if err != nil {
		return nil, err
	}

	withColors := len(hdr.vertexProps) == 6
	ply := &PLY{
		Vertices: make([][3]float64, hdr.vertexCount),
		Faces:    make([][3]int32, hdr.faceCount),
	}
	if withColors {
		ply.Colors = make([][3]uint8, hdr.vertexCount)
	}

	for i := 0; i < hdr.vertexCount; i++ {
		fields, err := nextFields(sc, len(hdr.vertexProps))
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: vertex %d coordinate %d: %v", ErrMalformedPLYData, i, j, err)
			}
			ply.Vertices[i][j] = v
		}
		if withColors {
			for j := 0; j < 3; j++ {
				c, err := strconv.ParseUint(fields[3+j], 10, 8)
				if err != nil {
					return nil, fmt.Errorf("%w: vertex %d color %d: %v", ErrMalformedPLYData, i, j, err)
				}
				ply.Colors[i][j] = uint8(c)
			}
		}
	}

	for i := 0; i < hdr.faceCount; i++ {
		fields, err := nextFields(sc, 4)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		if fields[0] != "3" {
			return nil, fmt.Errorf("%w: face %d has %s vertices, only triangles are supported", ErrMalformedPLYData, i, fields[0])
		}
		for j := 0; j < 3; j++ {
			idx, err := strconv.ParseInt(fields[1+j], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: face %d index %d: %v", ErrMalformedPLYData, i, j, err)
			}
			ply.Faces[i][j] = int32(idx)
		}
	}

	return ply, nil
}

// ParsePLYFile parses a PLY file from disk.
func ParsePLYFile(path string) (*PLY, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PLY file: %w", err)
	}
	defer f.Close()
	return ParsePLY(f)
}

func parsePLYHeader(sc *bufio.Scanner) (plyHeader, error) {
	var hdr plyHeader

	if !sc.Scan() {
		return hdr, ErrTruncatedPLYData
	}
	if strings.TrimSpace(sc.Text()) != "ply" {
		return hdr, ErrInvalidPLYMagic
	}

	element := ""
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "format":
			if len(fields) < 2 || fields[1] != "ascii" {
				return hdr, fmt.Errorf("%w: %s", ErrUnsupportedPLYFormat, sc.Text())
			}
		case "comment", "obj_info":
		case "element":
			if len(fields) != 3 {
				return hdr, fmt.Errorf("%w: %q", ErrMalformedPLYData, sc.Text())
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 || n > maxPLYElements {
				return hdr, fmt.Errorf("%w: element count %q", ErrMalformedPLYData, fields[2])
			}
			element = fields[1]
			switch element {
			case "vertex":
				hdr.vertexCount = n
			case "face":
				hdr.faceCount = n
			default:
				return hdr, fmt.Errorf("%w: element %s", ErrUnsupportedPLYFormat, element)
			}
		case "property":
			if element == "vertex" {
				hdr.vertexProps = append(hdr.vertexProps, fields[len(fields)-1])
			} else if element == "face" && fields[len(fields)-1] != "vertex_indices" {
				return hdr, fmt.Errorf("%w: face %s", errUnexpectedPLYProperty, fields[len(fields)-1])
			}
		case "end_header":
			if n := len(hdr.vertexProps); n != 3 && n != 6 {
				return hdr, fmt.Errorf("%w: %d vertex properties", errUnexpectedPLYProperty, n)
			}
			return hdr, nil
		default:
			return hdr, fmt.Errorf("%w: header line %q", ErrMalformedPLYData, sc.Text())
		}
	}

	if err := sc.Err(); err != nil {
		return hdr, fmt.Errorf("reading PLY header: %w", err)
	}
	return hdr, ErrTruncatedPLYData
}

// nextFields returns the next non-empty line split into exactly n fields.
func nextFields(sc *bufio.Scanner, n int) ([]string, error) {
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != n {
			return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedPLYData, n, len(fields))
		}
		return fields, nil
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, ErrTruncatedPLYData
}
