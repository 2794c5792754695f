// facerecon reconstructs face meshes from morphable-model parameters and
// prepares face crops for the parameter regressor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/morphface/internal/assets"
	"github.com/Faultbox/morphface/internal/config"
	"github.com/Faultbox/morphface/internal/logger"
	"github.com/Faultbox/morphface/internal/recon"
	"github.com/Faultbox/morphface/pkg/formats"
)

// errUsage marks a command invoked with bad arguments; its usage has already
// been printed.
var errUsage = errors.New("usage")

func main() {
	flag.Usage = printUsage

	// Parse global flags first
	config.ParseFlags()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	store := assets.NewStore()
	defer store.Close()
	r := recon.New(cfg, store)

	command, cmdArgs := args[0], args[1:]

	switch command {
	case "info":
		err = cmdInfo(r)
	case "mean":
		err = cmdMean(r, cmdArgs)
	case "mesh":
		err = cmdMesh(r, cmdArgs)
	case "watch":
		err = cmdWatch(r, cmdArgs)
	case "crop":
		err = cmdCrop(r, cfg, cmdArgs)
	case "ply":
		err = cmdPLY(cmdArgs)
	case "config":
		err = cmdConfig(cfg, cmdArgs)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		err = errUsage
	}

	if err != nil {
		if !errors.Is(err, errUsage) {
			logger.Error("command failed", zap.String("command", command), zap.Error(err))
		}
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `facerecon - morphable-model face reconstruction

Usage:
  facerecon [global options] <command> [options]

Global options:
  -config <file>    Config file (default ./facerecon.yaml, then user config dir)
  -model <file>     Basis model container
  -out <dir>        Output directory for relative paths
  -debug            Enable debug logging
  -log-file <file>  Also log to a rotating file

Commands:
  info                                   Show basis model information
  mean <out.ply>                         Write the mean shape
  mesh [options] <params.txt> [out.ply]  Reconstruct a mesh from parameters
  watch [options] <dir>                  Reconstruct parameter files as they appear
  crop [options] <image> <out.png>       Cut a face crop for the regressor
  ply <file.ply>                         Show PLY mesh information
  config [-user | path]                  Write the effective config as YAML

Examples:
  facerecon -model bfm.bin info
  facerecon mesh -expr expr.txt -pose pose.txt params.txt face.ply
  facerecon -out meshes watch -pattern "*.params" ./inbox
  facerecon crop -box 120,80,260,240 -overlay boxed.png photo.jpg crop.png
  facerecon crop -landmarks lm.txt -size 0 photo.jpg crop.png
  facerecon crop -box 120,80,260,240 -profile unit photo.jpg crop.png
  facerecon -model /data/bfm.bin config -user`)
}

func cmdInfo(r *recon.Runner) error {
	info, err := r.Info()
	if err != nil {
		return err
	}
	fmt.Print(info)
	return nil
}

func cmdMean(r *recon.Runner, args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: facerecon mean <out.ply>")
		return errUsage
	}
	out, err := r.Mean(args[0])
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func cmdMesh(r *recon.Runner, args []string) error {
	fs := flag.NewFlagSet("mesh", flag.ExitOnError)
	expr := fs.String("expr", "", "Expression coefficients file")
	pose := fs.String("pose", "", "Pose file [rx ry rz tx ty tz]")
	textureless := fs.Bool("textureless", false, "Write geometry only")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: facerecon mesh [-expr f] [-pose f] [-textureless] <params.txt> [out.ply]")
		return errUsage
	}

	out, err := r.Mesh(recon.MeshJob{
		ParamsPath:     fs.Arg(0),
		ExpressionPath: *expr,
		PosePath:       *pose,
		OutPath:        fs.Arg(1),
		Textureless:    *textureless,
	})
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func cmdWatch(r *recon.Runner, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	pattern := fs.String("pattern", "*.txt", "Parameter file name pattern")
	expr := fs.String("expr", "", "Expression coefficients file applied to every mesh")
	pose := fs.String("pose", "", "Pose file applied to every mesh")
	textureless := fs.Bool("textureless", false, "Write geometry only")
	settle := fs.Duration("settle", recon.DefaultSettle, "Wait for writes to stop before reading a file")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: facerecon watch [-pattern p] [-expr f] [-pose f] [-textureless] <dir>")
		return errUsage
	}

	// Fail fast on a bad model rather than on the first file.
	if _, err := r.Model(); err != nil {
		return err
	}

	w, err := r.NewWatcher(fs.Arg(0), *pattern)
	if err != nil {
		return err
	}
	w.Settle = *settle

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return w.Run(ctx, recon.MeshJob{
		ExpressionPath: *expr,
		PosePath:       *pose,
		Textureless:    *textureless,
	}, func(_, out string, err error) {
		if err == nil {
			fmt.Println(out)
		}
	})
}

func cmdCrop(r *recon.Runner, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("crop", flag.ExitOnError)
	boxFlag := fs.String("box", "", "Face detector box left,top,right,bottom")
	landmarks := fs.String("landmarks", "", "Landmark file, x y per point")
	overlay := fs.String("overlay", "", "Write the image with the box drawn on it")
	profile := fs.String("profile", "", "Rescale profile: detector, landmark or unit (default depends on the region source)")
	size := fs.Int("size", cfg.Crop.InputSize, "Resize the crop to size x size (0 keeps the window size)")
	fs.Parse(args)

	if fs.NArg() < 2 || (*boxFlag == "") == (*landmarks == "") {
		fmt.Fprintln(os.Stderr, "Usage: facerecon crop [-box l,t,r,b | -landmarks f] [-profile name] [-overlay out] [-size n] <image> <out.png>")
		return errUsage
	}

	job := recon.CropJob{
		ImagePath:     fs.Arg(0),
		LandmarksPath: *landmarks,
		Profile:       *profile,
		OverlayPath:   *overlay,
		OutPath:       fs.Arg(1),
		Size:          *size,
	}
	if *boxFlag != "" {
		box, err := recon.ParseBox(*boxFlag)
		if err != nil {
			return err
		}
		job.Box = &box
	}

	out, err := r.Crop(job)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func cmdPLY(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: facerecon ply <file.ply>")
		return errUsage
	}

	ply, err := formats.ParsePLYFile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("File:     %s\n", args[0])
	fmt.Printf("Vertices: %d\n", len(ply.Vertices))
	fmt.Printf("Faces:    %d\n", len(ply.Faces))
	fmt.Printf("Colors:   %v\n", ply.HasColors())
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	user := fs.Bool("user", false, "Save to the user config directory")
	fs.Parse(args)

	switch {
	case *user:
		path, err := cfg.Save()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case fs.NArg() > 0:
		if err := cfg.SaveTo(fs.Arg(0)); err != nil {
			return err
		}
		fmt.Println(fs.Arg(0))
		return nil
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
