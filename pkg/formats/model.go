package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/Faultbox/morphface/pkg/morph"
)

// Basis model container errors.
var (
	ErrInvalidModelMagic       = errors.New("invalid model magic: expected 'BFMC'")
	ErrUnsupportedModelVersion = errors.New("unsupported model version")
	ErrTruncatedModelData      = errors.New("truncated model data")
	ErrOversizedModelData      = errors.New("model data exceeds size limit")
)

// modelMagic starts every basis model container.
const modelMagic = "BFMC"

// Current container version.
const (
	ModelVersionMajor = 1
	ModelVersionMinor = 0
)

// modelFlagExpression marks a container that carries an expression basis.
const modelFlagExpression = 1 << 0

// maxModelFaces bounds the face count read from a container header.
const maxModelFaces = 1 << 24

// maxBasisElements bounds rows*cols of any encoded vector or matrix.
const maxBasisElements = 1 << 28

// gonumHeaderSize is the length of gonum's binary matrix header. Rows and
// cols are little-endian int64 values at offsets 8 and 16.
const gonumHeaderSize = 40

// ModelVersion represents the container version.
type ModelVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v ModelVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ParseModel reads a basis model container and validates it.
//
// Layout (little-endian):
//
//	"BFMC" major minor flags
//	shapeMU shapePC shapeEV texMU texPC texEV [expMU expPC expEV]
//	uint32 faceCount, faceCount × 3 × int32
//
// Vectors and matrices use gonum's binary encoding.
func ParseModel(r io.Reader) (*morph.Model, error) {
	data, version, err := ReadModelData(r)
	if err != nil {
		return nil, err
	}

	m, err := morph.NewModel(*data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", version, err)
	}
	return m, nil
}

// ParseModelFile parses a basis model container from disk.
func ParseModelFile(path string) (*morph.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model file: %w", err)
	}
	defer f.Close()

	return ParseModel(bufio.NewReader(f))
}

// ReadModelData reads the raw container content without validating dimensions.
func ReadModelData(r io.Reader) (*morph.ModelData, ModelVersion, error) {
	var header [7]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, ModelVersion{}, fmt.Errorf("%w: reading header", ErrTruncatedModelData)
	}
	if string(header[0:4]) != modelMagic {
		return nil, ModelVersion{}, ErrInvalidModelMagic
	}

	version := ModelVersion{Major: header[4], Minor: header[5]}
	if version.Major != ModelVersionMajor {
		return nil, version, fmt.Errorf("%w: %s", ErrUnsupportedModelVersion, version)
	}
	flags := header[6]

	data := &morph.ModelData{}
	var err error

	if data.ShapeMU, data.ShapePC, data.ShapeEV, err = readBasis(r, "shape"); err != nil {
		return nil, version, err
	}
	if data.TexMU, data.TexPC, data.TexEV, err = readBasis(r, "texture"); err != nil {
		return nil, version, err
	}
	if flags&modelFlagExpression != 0 {
		if data.ExpMU, data.ExpPC, data.ExpEV, err = readBasis(r, "expression"); err != nil {
			return nil, version, err
		}
	}

	if data.Faces, err = readFaces(r); err != nil {
		return nil, version, err
	}

	return data, version, nil
}

func readBasis(r io.Reader, name string) (*mat.VecDense, *mat.Dense, *mat.VecDense, error) {
	mu, err := readVec(r)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading %s mean: %w", name, err)
	}
	pr, err := checkedMatrix(r)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading %s basis: %w", name, err)
	}
	pc := &mat.Dense{}
	if _, err := pc.UnmarshalBinaryFrom(pr); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: reading %s basis: %v", ErrTruncatedModelData, name, err)
	}
	ev, err := readVec(r)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading %s deviations: %w", name, err)
	}
	return mu, pc, ev, nil
}

func readVec(r io.Reader) (*mat.VecDense, error) {
	vr, err := checkedMatrix(r)
	if err != nil {
		return nil, err
	}
	v := &mat.VecDense{}
	if _, err := v.UnmarshalBinaryFrom(vr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedModelData, err)
	}
	return v, nil
}

// checkedMatrix reads a gonum matrix header from r and rejects sizes above
// maxBasisElements. The returned reader yields the header again followed by
// the rest of r.
func checkedMatrix(r io.Reader) (io.Reader, error) {
	var hdr [gonumHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: matrix header", ErrTruncatedModelData)
	}
	rows := int64(binary.LittleEndian.Uint64(hdr[8:16]))
	cols := int64(binary.LittleEndian.Uint64(hdr[16:24]))
	if rows < 0 || cols < 0 || (rows > 0 && cols > maxBasisElements/rows) {
		return nil, fmt.Errorf("%w: %dx%d matrix", ErrOversizedModelData, rows, cols)
	}
	return io.MultiReader(bytes.NewReader(hdr[:]), r), nil
}

func readFaces(r io.Reader) ([][3]int32, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading face count", ErrTruncatedModelData)
	}
	if count > maxModelFaces {
		return nil, fmt.Errorf("%w: %d faces", ErrOversizedModelData, count)
	}

	faces := make([][3]int32, count)
	if err := binary.Read(r, binary.LittleEndian, faces); err != nil {
		return nil, fmt.Errorf("%w: reading %d faces", ErrTruncatedModelData, count)
	}
	return faces, nil
}

// WriteModel writes data as a basis model container. It does not validate
// dimensions; ParseModel does.
func WriteModel(w io.Writer, data *morph.ModelData) error {
	bw := bufio.NewWriter(w)

	var flags byte
	if data.HasExpression() {
		flags |= modelFlagExpression
	}
	bw.WriteString(modelMagic)
	bw.Write([]byte{ModelVersionMajor, ModelVersionMinor, flags})

	if err := writeBasis(bw, "shape", data.ShapeMU, data.ShapePC, data.ShapeEV); err != nil {
		return err
	}
	if err := writeBasis(bw, "texture", data.TexMU, data.TexPC, data.TexEV); err != nil {
		return err
	}
	if flags&modelFlagExpression != 0 {
		if err := writeBasis(bw, "expression", data.ExpMU, data.ExpPC, data.ExpEV); err != nil {
			return err
		}
	}

	if err := binary.Write(bw, binary.LittleEndian, uint32(len(data.Faces))); err != nil {
		return fmt.Errorf("writing face count: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, data.Faces); err != nil {
		return fmt.Errorf("writing faces: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing model: %w", err)
	}
	return nil
}

// WriteModelFile writes data to path as a basis model container.
func WriteModelFile(path string, data *morph.ModelData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating model file: %w", err)
	}
	if err := WriteModel(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeBasis(w io.Writer, name string, mu *mat.VecDense, pc *mat.Dense, ev *mat.VecDense) error {
	if mu == nil || pc == nil || ev == nil {
		return fmt.Errorf("writing %s basis: missing component", name)
	}
	if _, err := mu.MarshalBinaryTo(w); err != nil {
		return fmt.Errorf("writing %s mean: %w", name, err)
	}
	if _, err := pc.MarshalBinaryTo(w); err != nil {
		return fmt.Errorf("writing %s basis: %w", name, err)
	}
	if _, err := ev.MarshalBinaryTo(w); err != nil {
		return fmt.Errorf("writing %s deviations: %w", name, err)
	}
	return nil
}
