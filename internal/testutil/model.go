// Package testutil builds small basis models for tests of the driver layers.
package testutil

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/Faultbox/morphface/pkg/formats"
	"github.com/Faultbox/morphface/pkg/morph"
)

// ModelData returns a valid model with numVertices vertices and the minimum
// number of components. Vertex i of the mean shape is (i, 2i, 3i) and its mean
// color is (10i, 10i+1, 10i+2).
func ModelData(numVertices int, withExpression bool) *morph.ModelData {
	length := numVertices * 3

	shapeMU := make([]float64, length)
	texMU := make([]float64, length)
	for i := 0; i < numVertices; i++ {
		for k := 0; k < 3; k++ {
			shapeMU[3*i+k] = float64(i * (k + 1))
			texMU[3*i+k] = float64(10*i + k)
		}
	}

	basis := func(cols int, scale float64) *mat.Dense {
		d := mat.NewDense(length, cols, nil)
		for i := 0; i < length; i++ {
			d.Set(i, i%cols, scale)
		}
		return d
	}
	ones := func(n int) *mat.VecDense {
		v := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			v.SetVec(i, 1)
		}
		return v
	}

	data := &morph.ModelData{
		ShapeMU: mat.NewVecDense(length, shapeMU),
		ShapePC: basis(morph.ShapeComponents, 0.1),
		ShapeEV: ones(morph.ShapeComponents),
		TexMU:   mat.NewVecDense(length, texMU),
		TexPC:   basis(morph.TextureComponents, 1),
		TexEV:   ones(morph.TextureComponents),
	}
	if withExpression {
		data.ExpMU = mat.NewVecDense(length, nil)
		data.ExpPC = basis(morph.ExpressionComponents, 0.01)
		data.ExpEV = ones(morph.ExpressionComponents)
	}
	for i := 0; i+2 < numVertices; i++ {
		data.Faces = append(data.Faces, [3]int32{int32(i), int32(i + 1), int32(i + 2)})
	}
	return data
}

// WriteModelFile writes a ModelData container into dir and returns its path.
func WriteModelFile(t testing.TB, dir string, numVertices int, withExpression bool) string {
	t.Helper()
	path := filepath.Join(dir, "bfm.bin")
	if err := formats.WriteModelFile(path, ModelData(numVertices, withExpression)); err != nil {
		t.Fatalf("writing test model: %v", err)
	}
	return path
}
