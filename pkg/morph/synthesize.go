package morph

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Mesh is a synthesized face mesh.
type Mesh struct {
	Vertices [][3]float64
	// Colors holds one RGB triple per vertex, or nil for geometry-only meshes.
	Colors [][3]uint8
	// Faces is shared with the Model and must not be modified.
	Faces [][3]int32
}

// SynthesisOptions selects the optional stages of Synthesize.
// A nil slice skips the stage.
type SynthesisOptions struct {
	// Expression holds at least ExpressionComponents coefficients.
	Expression []float64
	// Pose holds [rx, ry, rz, tx, ty, tz], see ApplyPose.
	Pose []float64
}

// Synthesize decodes params into a textured mesh. params must hold at least
// ParameterLength values: shape coefficients first, then texture coefficients.
// Extra values are ignored.
func (m *Model) Synthesize(params []float64, opts SynthesisOptions) (*Mesh, error) {
	if len(params) < ParameterLength {
		return nil, fmt.Errorf("%w: parameter vector has %d values, need %d", ErrInvalidParameterLength, len(params), ParameterLength)
	}

	vertices, err := m.Shape(params[:ShapeComponents], opts)
	if err != nil {
		return nil, err
	}

	tex := m.tex.apply(params[ShapeComponents:ParameterLength])

	return &Mesh{
		Vertices: vertices,
		Colors:   reshapeColors(tex),
		Faces:    m.faces,
	}, nil
}

// Shape decodes only the geometry. shapeParams must hold at least
// ShapeComponents values.
func (m *Model) Shape(shapeParams []float64, opts SynthesisOptions) ([][3]float64, error) {
	if len(shapeParams) < ShapeComponents {
		return nil, fmt.Errorf("%w: shape vector has %d values, need %d", ErrInvalidParameterLength, len(shapeParams), ShapeComponents)
	}

	s := m.shape.apply(shapeParams[:ShapeComponents])

	if opts.Expression != nil {
		if m.exp == nil {
			return nil, ErrNoExpressionBasis
		}
		if len(opts.Expression) < ExpressionComponents {
			return nil, fmt.Errorf("%w: expression vector has %d values, need %d", ErrInvalidParameterLength, len(opts.Expression), ExpressionComponents)
		}
		s.AddVec(s, m.exp.mu)
		s.AddVec(s, m.exp.offset(opts.Expression[:ExpressionComponents]))
	}

	vertices := reshape(s)

	if opts.Pose != nil {
		return ApplyPose(opts.Pose, vertices)
	}
	return vertices, nil
}

// ShapeTexture is Synthesize without expression or pose.
func (m *Model) ShapeTexture(params []float64) (*Mesh, error) {
	return m.Synthesize(params, SynthesisOptions{})
}

// WithExpression is Synthesize with expression offsets.
func (m *Model) WithExpression(params, expr []float64) (*Mesh, error) {
	if expr == nil {
		expr = []float64{}
	}
	return m.Synthesize(params, SynthesisOptions{Expression: expr})
}

// WithExpressionPose is Synthesize with expression offsets and a rigid pose.
func (m *Model) WithExpressionPose(params, expr, pose []float64) (*Mesh, error) {
	if expr == nil {
		expr = []float64{}
	}
	if pose == nil {
		pose = []float64{}
	}
	return m.Synthesize(params, SynthesisOptions{Expression: expr, Pose: pose})
}

// offset returns pc · (ev ⊙ coeffs).
func (b *basis) offset(coeffs []float64) *mat.VecDense {
	c := mat.NewVecDense(len(coeffs), append([]float64(nil), coeffs...))
	c.MulElemVec(c, b.ev)

	out := mat.NewVecDense(b.mu.Len(), nil)
	out.MulVec(b.pc, c)
	return out
}

// apply returns mu + pc · (ev ⊙ coeffs).
func (b *basis) apply(coeffs []float64) *mat.VecDense {
	out := b.offset(coeffs)
	out.AddVec(b.mu, out)
	return out
}
