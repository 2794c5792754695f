package recon

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/morphface/internal/logger"
	"github.com/Faultbox/morphface/pkg/crop"
	"github.com/Faultbox/morphface/pkg/formats"
)

// CropJob describes one face crop. Exactly one of Box and LandmarksPath must
// be set.
type CropJob struct {
	ImagePath     string
	Box           *crop.Box // Face detector box, expanded with the detector profile
	LandmarksPath string    // x y per line, expanded with the landmark profile
	Profile       string    // Named rescale profile overriding the configured one
	OverlayPath   string    // Optional copy of the image with the box drawn on it
	OutPath       string
	Size          int // Resize the crop to Size x Size; 0 keeps the window size
}

// ParseBox parses "left,top,right,bottom".
func ParseBox(s string) (crop.Box, error) {
	v, err := formats.ParseVector(strings.NewReader(s))
	if err != nil {
		return crop.Box{}, fmt.Errorf("parsing box %q: %w", s, err)
	}
	if len(v) != 4 {
		return crop.Box{}, fmt.Errorf("box %q has %d values, need 4", s, len(v))
	}
	return crop.FromCorners(v[0], v[1], v[2], v[3]), nil
}

// Crop cuts the face region described by job out of its image and writes the
// crop, and the overlay when requested. It returns the crop path written.
func (r *Runner) Crop(job CropJob) (string, error) {
	log := logger.Job(r.log, "crop")

	box, profile, err := r.cropRegion(job)
	if err != nil {
		return "", err
	}

	src, err := crop.LoadRGBA(job.ImagePath)
	if err != nil {
		return "", err
	}

	opts := crop.Options{Profile: profile, OverlayThickness: r.cfg.Crop.OverlayThickness}
	var overlay *image.RGBA
	if job.OverlayPath != "" {
		overlay = crop.ToRGBA(src)
		opts.Overlay = overlay
	}

	out, err := crop.CropWith(src, box, opts)
	if err != nil {
		return "", fmt.Errorf("cropping %s: %w", job.ImagePath, err)
	}
	window := out.Bounds().Size()

	if job.Size > 0 {
		if out, err = crop.Resize(out, job.Size); err != nil {
			return "", err
		}
	}

	outPath, err := r.outputPath(job.OutPath)
	if err != nil {
		return "", err
	}
	if err := crop.SaveImage(outPath, out); err != nil {
		return "", err
	}

	if overlay != nil {
		overlayPath, err := r.outputPath(job.OverlayPath)
		if err != nil {
			return "", err
		}
		if err := crop.SaveImage(overlayPath, overlay); err != nil {
			return "", err
		}
		log.Debug("overlay written", zap.String("path", overlayPath))
	}

	log.Info("crop written",
		zap.String("path", outPath),
		zap.String("image", job.ImagePath),
		zap.Float64s("box", []float64{box.Left, box.Top, box.Right, box.Bottom}),
		zap.Stringer("profile", profile),
		zap.Int("window_width", window.X),
		zap.Int("window_height", window.Y),
		zap.Int("size", job.Size))
	return outPath, nil
}

// cropRegion resolves the box and rescale profile for job.
func (r *Runner) cropRegion(job CropJob) (crop.Box, crop.Profile, error) {
	box, profile, err := r.cropBox(job)
	if err != nil || job.Profile == "" {
		return box, profile, err
	}
	named, err := crop.ProfileByName(job.Profile)
	if err != nil {
		return crop.Box{}, crop.Profile{}, err
	}
	return box, named, nil
}

func (r *Runner) cropBox(job CropJob) (crop.Box, crop.Profile, error) {
	switch {
	case job.Box != nil && job.LandmarksPath != "":
		return crop.Box{}, crop.Profile{}, errors.New("crop needs either a box or landmarks, not both")
	case job.Box != nil:
		return *job.Box, crop.Profile(r.cfg.Crop.DetectorProfile), nil
	case job.LandmarksPath != "":
		points, err := formats.ParsePointsFile(job.LandmarksPath)
		if err != nil {
			return crop.Box{}, crop.Profile{}, fmt.Errorf("reading landmarks: %w", err)
		}
		box, err := crop.FromLandmarks(points)
		if err != nil {
			return crop.Box{}, crop.Profile{}, err
		}
		return box, crop.Profile(r.cfg.Crop.LandmarkProfile), nil
	default:
		return crop.Box{}, crop.Profile{}, errors.New("crop needs a box or landmarks")
	}
}
