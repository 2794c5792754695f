package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/Faultbox/morphface/pkg/morph"
)

// createTestModelData creates a minimal valid basis model with numVertices vertices.
func createTestModelData(numVertices int, withExpression bool) *morph.ModelData {
	length := numVertices * 3

	fill := func(n int, f func(i int) float64) []float64 {
		v := make([]float64, n)
		for i := range v {
			v[i] = f(i)
		}
		return v
	}

	data := &morph.ModelData{
		ShapeMU: mat.NewVecDense(length, fill(length, func(i int) float64 { return float64(i) * 0.5 })),
		ShapePC: mat.NewDense(length, morph.ShapeComponents, fill(length*morph.ShapeComponents, func(i int) float64 { return float64(i%11) * 0.01 })),
		ShapeEV: mat.NewVecDense(morph.ShapeComponents, fill(morph.ShapeComponents, func(i int) float64 { return 1 + float64(i) })),
		TexMU:   mat.NewVecDense(length, fill(length, func(i int) float64 { return 50 + float64(i) })),
		TexPC:   mat.NewDense(length, morph.TextureComponents, fill(length*morph.TextureComponents, func(i int) float64 { return float64(i%5) * 0.1 })),
		TexEV:   mat.NewVecDense(morph.TextureComponents, fill(morph.TextureComponents, func(int) float64 { return 2 })),
	}
	if withExpression {
		data.ExpMU = mat.NewVecDense(length, fill(length, func(i int) float64 { return -float64(i) }))
		data.ExpPC = mat.NewDense(length, morph.ExpressionComponents, fill(length*morph.ExpressionComponents, func(i int) float64 { return float64(i%3) * 0.2 }))
		data.ExpEV = mat.NewVecDense(morph.ExpressionComponents, fill(morph.ExpressionComponents, func(int) float64 { return 0.5 }))
	}
	for i := 0; i+2 < numVertices; i++ {
		data.Faces = append(data.Faces, [3]int32{int32(i), int32(i + 2), int32(i + 1)})
	}
	return data
}

func encodeTestModel(t *testing.T, data *morph.ModelData) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteModel(&buf, data); err != nil {
		t.Fatalf("WriteModel failed: %v", err)
	}
	return buf.Bytes()
}

func TestParseModel_RoundTrip(t *testing.T) {
	for _, withExp := range []bool{false, true} {
		data := createTestModelData(5, withExp)

		m, err := ParseModel(bytes.NewReader(encodeTestModel(t, data)))
		if err != nil {
			t.Fatalf("ParseModel(expression=%v) failed: %v", withExp, err)
		}

		if m.NumVertices() != 5 {
			t.Errorf("expected 5 vertices, got %d", m.NumVertices())
		}
		if m.NumFaces() != 3 {
			t.Errorf("expected 3 faces, got %d", m.NumFaces())
		}
		if m.HasExpression() != withExp {
			t.Errorf("HasExpression = %v, want %v", m.HasExpression(), withExp)
		}
		if m.Faces()[1] != data.Faces[1] {
			t.Errorf("face 1: got %v, want %v", m.Faces()[1], data.Faces[1])
		}

		mean := m.MeanShape()
		for i := range mean {
			for j := 0; j < 3; j++ {
				if want := data.ShapeMU.AtVec(3*i + j); mean[i][j] != want {
					t.Errorf("mean[%d][%d]: got %v, want %v", i, j, mean[i][j], want)
				}
			}
		}
	}
}

func TestReadModelData_Version(t *testing.T) {
	raw := encodeTestModel(t, createTestModelData(3, false))

	_, version, err := ReadModelData(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadModelData failed: %v", err)
	}
	if version.String() != "1.0" {
		t.Errorf("expected version 1.0, got %s", version)
	}
}

func TestParseModel_Errors(t *testing.T) {
	valid := encodeTestModel(t, createTestModelData(3, true))

	badMagic := append([]byte("XXXX"), valid[4:]...)
	badVersion := append([]byte(nil), valid...)
	badVersion[4] = 9

	// Shape mean header starts after the 7-byte container header; the
	// shape basis header follows the 9 mean values.
	hugeMean := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint64(hugeMean[7+8:], 1<<40)
	hugeBasis := append([]byte(nil), valid...)
	basisAt := 7 + 40 + 9*8
	binary.LittleEndian.PutUint64(hugeBasis[basisAt+8:], 1<<40)
	binary.LittleEndian.PutUint64(hugeBasis[basisAt+16:], 1<<20)
	hugeFaces := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(hugeFaces[len(valid)-4-12:], maxModelFaces+1)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncatedModelData},
		{"bad magic", badMagic, ErrInvalidModelMagic},
		{"bad version", badVersion, ErrUnsupportedModelVersion},
		{"truncated basis", valid[:40], ErrTruncatedModelData},
		{"truncated faces", valid[:len(valid)-4], ErrTruncatedModelData},
		{"oversized mean", hugeMean, ErrOversizedModelData},
		{"oversized basis", hugeBasis, ErrOversizedModelData},
		{"oversized face count", hugeFaces, ErrOversizedModelData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModel(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseModel_ShapeMismatch(t *testing.T) {
	data := createTestModelData(3, false)
	data.TexMU = mat.NewVecDense(6, nil)

	_, err := ParseModel(bytes.NewReader(encodeTestModel(t, data)))
	if !errors.Is(err, morph.ErrShapeMismatch) {
		t.Errorf("expected morph.ErrShapeMismatch, got %v", err)
	}
}

func TestParseModelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.bfmc")
	if err := WriteModelFile(path, createTestModelData(4, true)); err != nil {
		t.Fatalf("WriteModelFile failed: %v", err)
	}

	m, err := ParseModelFile(path)
	if err != nil {
		t.Fatalf("ParseModelFile failed: %v", err)
	}
	if m.NumVertices() != 4 {
		t.Errorf("expected 4 vertices, got %d", m.NumVertices())
	}

	if _, err := ParseModelFile(filepath.Join(t.TempDir(), "missing.bfmc")); err == nil {
		t.Error("expected error for missing file")
	}
}
