// Package morph reconstructs face meshes from a linear morphable model.
//
// A Model holds the mean shape and texture, their principal-component bases and
// the per-component standard deviations (EV). Synthesis decodes a compact
// parameter vector into a dense mesh:
//
//	S = shapeMU + shapePC · (shapeEV ⊙ α)
//	T = texMU   + texPC   · (texEV   ⊙ β)
//
// with optional expression offsets and a rigid pose applied to S.
package morph

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Number of coefficients consumed from each parameter block.
const (
	ShapeComponents      = 99
	TextureComponents    = 99
	ExpressionComponents = 29
	PoseLength           = 6

	// ParameterLength is the minimum length of a shape+texture parameter vector.
	ParameterLength = ShapeComponents + TextureComponents
)

// Model errors.
var (
	ErrShapeMismatch          = errors.New("basis model shape mismatch")
	ErrInvalidParameterLength = errors.New("invalid parameter length")
	ErrNoExpressionBasis      = errors.New("model has no expression basis")
	ErrFaceIndexOutOfRange    = errors.New("face index out of range")
	errMissingBasisComponent  = errors.New("missing basis component")
)

// ModelData is the raw content of a basis model before validation.
// Expression fields may all be nil for models without an expression basis.
type ModelData struct {
	ShapeMU *mat.VecDense
	ShapePC *mat.Dense
	ShapeEV *mat.VecDense

	TexMU *mat.VecDense
	TexPC *mat.Dense
	TexEV *mat.VecDense

	ExpMU *mat.VecDense
	ExpPC *mat.Dense
	ExpEV *mat.VecDense

	Faces [][3]int32
}

// HasExpression reports whether any expression field is set.
func (d *ModelData) HasExpression() bool {
	return d.ExpMU != nil || d.ExpPC != nil || d.ExpEV != nil
}

// basis is one mean + components + deviations triple, truncated to the
// components synthesis actually uses.
type basis struct {
	mu *mat.VecDense
	pc *mat.Dense
	ev *mat.VecDense
}

// Model is a validated, immutable linear basis model.
type Model struct {
	numVertices int

	shape basis
	tex   basis
	exp   *basis

	faces [][3]int32
}

// NewModel validates data and builds a Model. The matrices are copied, so later
// changes to data do not affect the model.
func NewModel(data ModelData) (*Model, error) {
	if data.ShapeMU == nil || data.ShapePC == nil || data.ShapeEV == nil {
		return nil, fmt.Errorf("%w: shape", errMissingBasisComponent)
	}
	if data.TexMU == nil || data.TexPC == nil || data.TexEV == nil {
		return nil, fmt.Errorf("%w: texture", errMissingBasisComponent)
	}

	length := data.ShapeMU.Len()
	if length == 0 || length%3 != 0 {
		return nil, fmt.Errorf("%w: shapeMU length %d is not a positive multiple of 3", ErrShapeMismatch, length)
	}

	shape, err := newBasis("shape", data.ShapeMU, data.ShapePC, data.ShapeEV, length, ShapeComponents)
	if err != nil {
		return nil, err
	}
	tex, err := newBasis("texture", data.TexMU, data.TexPC, data.TexEV, length, TextureComponents)
	if err != nil {
		return nil, err
	}

	m := &Model{
		numVertices: length / 3,
		shape:       shape,
		tex:         tex,
	}

	if data.HasExpression() {
		if data.ExpMU == nil || data.ExpPC == nil || data.ExpEV == nil {
			return nil, fmt.Errorf("%w: expression", errMissingBasisComponent)
		}
		exp, err := newBasis("expression", data.ExpMU, data.ExpPC, data.ExpEV, length, ExpressionComponents)
		if err != nil {
			return nil, err
		}
		m.exp = &exp
	}

	m.faces = make([][3]int32, len(data.Faces))
	for i, f := range data.Faces {
		for _, idx := range f {
			if idx < 0 || int(idx) >= m.numVertices {
				return nil, fmt.Errorf("%w: face %d references vertex %d of %d", ErrFaceIndexOutOfRange, i, idx, m.numVertices)
			}
		}
		m.faces[i] = f
	}

	return m, nil
}

// newBasis checks one basis block and keeps copies of the leading components.
func newBasis(name string, mu *mat.VecDense, pc *mat.Dense, ev *mat.VecDense, length, components int) (basis, error) {
	if mu.Len() != length {
		return basis{}, fmt.Errorf("%w: %s mean has length %d, want %d", ErrShapeMismatch, name, mu.Len(), length)
	}
	rows, cols := pc.Dims()
	if rows != length {
		return basis{}, fmt.Errorf("%w: %s basis has %d rows, want %d", ErrShapeMismatch, name, rows, length)
	}
	if cols < components {
		return basis{}, fmt.Errorf("%w: %s basis has %d components, need %d", ErrShapeMismatch, name, cols, components)
	}
	if ev.Len() < components {
		return basis{}, fmt.Errorf("%w: %s deviations have length %d, need %d", ErrShapeMismatch, name, ev.Len(), components)
	}

	b := basis{
		mu: mat.VecDenseCopyOf(mu),
		ev: mat.VecDenseCopyOf(ev.SliceVec(0, components)),
	}
	b.pc = mat.DenseCopyOf(pc.Slice(0, rows, 0, components))
	return b, nil
}

// NumVertices returns the number of mesh vertices.
func (m *Model) NumVertices() int {
	return m.numVertices
}

// NumFaces returns the number of triangles.
func (m *Model) NumFaces() int {
	return len(m.faces)
}

// HasExpression reports whether the model carries an expression basis.
func (m *Model) HasExpression() bool {
	return m.exp != nil
}

// Faces returns the model's triangle list. Callers must not modify it.
func (m *Model) Faces() [][3]int32 {
	return m.faces
}

// MeanShape returns shapeMU reshaped into one row per vertex.
func (m *Model) MeanShape() [][3]float64 {
	return reshape(m.shape.mu)
}

// MeanTexture returns texMU reshaped into one clamped color per vertex.
func (m *Model) MeanTexture() [][3]uint8 {
	return reshapeColors(m.tex.mu)
}

// reshape turns a flat x0 y0 z0 x1 ... vector into rows of three.
func reshape(v mat.Vector) [][3]float64 {
	n := v.Len() / 3
	out := make([][3]float64, n)
	for i := range out {
		out[i] = [3]float64{v.AtVec(3 * i), v.AtVec(3*i + 1), v.AtVec(3*i + 2)}
	}
	return out
}

// reshapeColors reshapes and clamps a flat r0 g0 b0 r1 ... vector.
func reshapeColors(v mat.Vector) [][3]uint8 {
	n := v.Len() / 3
	out := make([][3]uint8, n)
	for i := range out {
		out[i] = [3]uint8{
			TruncateUint8(v.AtVec(3 * i)),
			TruncateUint8(v.AtVec(3*i + 1)),
			TruncateUint8(v.AtVec(3*i + 2)),
		}
	}
	return out
}
