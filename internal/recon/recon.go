// Package recon drives reconstruction jobs: parameter files to PLY meshes and
// source images to regressor crops.
package recon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/morphface/internal/assets"
	"github.com/Faultbox/morphface/internal/config"
	"github.com/Faultbox/morphface/internal/logger"
	"github.com/Faultbox/morphface/pkg/morph"
)

// Runner executes jobs against the configured basis model.
type Runner struct {
	cfg   *config.Config
	store *assets.Store
	log   *zap.Logger
}

// New creates a runner. The model is loaded through store on first use.
func New(cfg *config.Config, store *assets.Store) *Runner {
	return &Runner{
		cfg:   cfg,
		store: store,
		log:   logger.Named("recon"),
	}
}

// Model returns the configured basis model.
func (r *Runner) Model() (*morph.Model, error) {
	return r.store.Load(r.cfg.Model.Path)
}

// ModelInfo summarizes a basis model.
type ModelInfo struct {
	Path          string
	Vertices      int
	Faces         int
	HasExpression bool
}

// String formats the summary for terminal output.
func (i ModelInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Model:      %s\n", i.Path)
	fmt.Fprintf(&sb, "Vertices:   %d\n", i.Vertices)
	fmt.Fprintf(&sb, "Faces:      %d\n", i.Faces)
	fmt.Fprintf(&sb, "Expression: %v\n", i.HasExpression)
	return sb.String()
}

// Info loads the model and reports its dimensions.
func (r *Runner) Info() (ModelInfo, error) {
	m, err := r.Model()
	if err != nil {
		return ModelInfo{}, err
	}
	return ModelInfo{
		Path:          r.cfg.Model.Path,
		Vertices:      m.NumVertices(),
		Faces:         m.NumFaces(),
		HasExpression: m.HasExpression(),
	}, nil
}

// outputPath resolves name against the output directory and makes sure its
// parent exists.
func (r *Runner) outputPath(name string) (string, error) {
	path := name
	if !filepath.IsAbs(path) && r.cfg.Output.Dir != "" {
		path = filepath.Join(r.cfg.Output.Dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return path, nil
}

// replaceExt swaps the extension of path's base name.
func replaceExt(path, ext string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}
