package recon

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/morphface/internal/logger"
	"github.com/Faultbox/morphface/pkg/formats"
	"github.com/Faultbox/morphface/pkg/morph"
)

// MeshJob describes one mesh reconstruction.
type MeshJob struct {
	ParamsPath     string // Shape and texture coefficients
	ExpressionPath string // Optional expression coefficients
	PosePath       string // Optional [rx ry rz tx ty tz]
	OutPath        string // Defaults to the params file name with a .ply extension
	Textureless    bool
}

// Mesh reconstructs a mesh from the files named in job and writes it as PLY.
// It returns the path written.
func (r *Runner) Mesh(job MeshJob) (string, error) {
	log := logger.Job(r.log, "mesh")

	m, err := r.Model()
	if err != nil {
		return "", err
	}

	log.Debug("reading parameters", zap.String("params", job.ParamsPath))
	params, err := formats.ParseVectorFile(job.ParamsPath)
	if err != nil {
		return "", fmt.Errorf("reading parameters: %w", err)
	}

	var opts morph.SynthesisOptions
	if job.ExpressionPath != "" {
		if opts.Expression, err = formats.ParseVectorFile(job.ExpressionPath); err != nil {
			return "", fmt.Errorf("reading expression: %w", err)
		}
	}
	if job.PosePath != "" {
		if opts.Pose, err = formats.ParseVectorFile(job.PosePath); err != nil {
			return "", fmt.Errorf("reading pose: %w", err)
		}
	}

	mesh, err := m.Synthesize(params, opts)
	if err != nil {
		return "", fmt.Errorf("synthesizing %s: %w", job.ParamsPath, err)
	}

	out := job.OutPath
	if out == "" {
		out = replaceExt(job.ParamsPath, ".ply")
	}
	out, err = r.outputPath(out)
	if err != nil {
		return "", err
	}

	textureless := job.Textureless || r.cfg.Output.Textureless
	if textureless {
		err = formats.WritePLYTexturelessFile(out, mesh.Vertices, mesh.Faces)
	} else {
		err = formats.WriteMeshFile(out, mesh)
	}
	if err != nil {
		return "", err
	}

	log.Info("mesh written",
		zap.String("path", out),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("faces", len(mesh.Faces)),
		zap.Bool("expression", opts.Expression != nil),
		zap.Bool("pose", opts.Pose != nil),
		zap.Bool("textureless", textureless))
	return out, nil
}

// Mean writes the model's mean shape as a textureless PLY and returns the path
// written.
func (r *Runner) Mean(outPath string) (string, error) {
	log := logger.Job(r.log, "mean")

	m, err := r.Model()
	if err != nil {
		return "", err
	}

	out, err := r.outputPath(outPath)
	if err != nil {
		return "", err
	}

	vertices := m.MeanShape()
	if err := formats.WritePLYTexturelessFile(out, vertices, m.Faces()); err != nil {
		return "", err
	}

	log.Info("mean shape written", zap.String("path", out), zap.Int("vertices", len(vertices)))
	return out, nil
}
