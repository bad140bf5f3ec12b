package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"
	"github.com/vearutop/heifgainmap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "decode":
		err = runDecode(ctx, os.Args[2:])
	case "stats":
		err = runStats(ctx, os.Args[2:])
	case "profiles":
		err = runProfiles(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Convert HDR photos with a gain map (iPhone 12 or later) to regular HDR images.")
	fmt.Fprintln(os.Stderr, "Usage: gainmapdecode <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  decode   -in base.png -gainmap hdrgainmap.png -out out.y4m [-profile y4m] [-profiles p.toml]")
	fmt.Fprintln(os.Stderr, "           [-ref-white 100] [-gain-base 8] [-depth 12] [-range limited] [-compression zip] [-check-finite] [-v] [-cpuprofile dir]")
	fmt.Fprintln(os.Stderr, "  stats    -in base.png -gainmap hdrgainmap.png [-profile exr]")
	fmt.Fprintln(os.Stderr, "  profiles [-profiles p.toml]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "The base image and the gain map are extracted from HEIC beforehand, e.g.")
	fmt.Fprintln(os.Stderr, "  heif-convert IMG_0000.heic IMG_0000.png")
	fmt.Fprintln(os.Stderr, "which also writes IMG_0000-urn:com:apple:photo:2020:aux:hdrgainmap.png.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "A y4m output can be turned into AVIF with")
	fmt.Fprintln(os.Stderr, "  avifenc --cicp 9/16/9 --min 1 --max 12 IMG_0000.y4m IMG_0000.avif")
}

type commonFlags struct {
	in, gainmap  string
	profileName  string
	profilesPath string
	refWhite     float64
	gainBase     float64
	depth        int
	signalRange  string
	checkFinite  bool
	verbose      bool
}

func (c *commonFlags) register(fs *flag.FlagSet, defaultProfile string) {
	fs.StringVar(&c.in, "in", "", "base image (PNG, TIFF, JPEG or OpenEXR), Display P3")
	fs.StringVar(&c.gainmap, "gainmap", "", "HDR gain map image")
	fs.StringVar(&c.profileName, "profile", defaultProfile, "output profile name, see the profiles command")
	fs.StringVar(&c.profilesPath, "profiles", "", "TOML file with additional output profiles")
	fs.Float64Var(&c.refWhite, "ref-white", 0, "override reference white in cd/m² for PQ outputs")
	fs.Float64Var(&c.gainBase, "gain-base", 0, "override gain map exponent base")
	fs.IntVar(&c.depth, "depth", 0, "override output bit depth (8, 10, 12 or 16)")
	fs.StringVar(&c.signalRange, "range", "", "override signal range: full or limited")
	fs.BoolVar(&c.checkFinite, "check-finite", false, "reject inputs with NaN or Inf samples")
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")
}

func (c *commonFlags) profile() (heifgainmap.OutputProfile, error) {
	set, err := loadProfiles(c.profilesPath)
	if err != nil {
		return heifgainmap.OutputProfile{}, err
	}
	p, err := heifgainmap.ProfileByName(set, c.profileName)
	if err != nil {
		return p, err
	}
	if c.refWhite > 0 {
		p.ReferenceWhite = float32(c.refWhite)
		if p.Transfer == heifgainmap.TransferPQ {
			p.StatsScale = p.ReferenceWhite
		}
	}
	if c.gainBase > 0 {
		p.GainMap.Base = float32(c.gainBase)
	}
	if c.depth > 0 {
		p.BitDepth = c.depth
	}
	if c.signalRange != "" {
		if p.Range, err = heifgainmap.ParseRange(c.signalRange); err != nil {
			return p, err
		}
	}
	return p, p.Validate()
}

func loadProfiles(path string) (map[string]heifgainmap.OutputProfile, error) {
	if path == "" {
		return heifgainmap.Profiles(), nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return heifgainmap.LoadProfiles(f)
}

func (c *commonFlags) run(ctx context.Context, p heifgainmap.OutputProfile) (*heifgainmap.Result, error) {
	if c.verbose {
		log.SetLevel(log.DebugLevel)
	}
	log.Infof("Read image: %s", c.in)
	log.Infof("Read gainmap: %s", c.gainmap)
	base, gain, err := heifgainmap.ReadFiles(c.in, c.gainmap)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"base": base.String(), "gainmap": gain.String(), "profile": p.Name}).Debug("inputs decoded")

	log.Info("Converting...")
	e := heifgainmap.NewEngine(heifgainmap.DefaultConstants())
	e.CheckFinite = c.checkFinite
	e.OnStage = func(stage string, elapsed time.Duration) {
		log.WithField("elapsed", elapsed).Debugf("stage %s done", stage)
	}
	res, err := e.Run(ctx, base, gain, p)
	if err != nil {
		return nil, err
	}

	kind := "scene referenced"
	if p.StatsScale != 1 {
		kind = fmt.Sprintf("%.0f cd/m² reference white", p.StatsScale)
	}
	log.Infof("MaxFALL: %.2f (%s, estimate)", res.Stats.MaxFALL, kind)
	log.Infof("MaxCLL:  %.2f (%s, estimate)", res.Stats.MaxCLL, kind)
	return res, nil
}

func runDecode(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	var c commonFlags
	c.register(fs, heifgainmap.ProfileY4M)
	outPath := fs.String("out", "", "output file")
	compression := fs.String("compression", "", "OpenEXR compression: none, zips or zip")
	cpuProfile := fs.String("cpuprofile", "", "write CPU profile to this directory")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if c.in == "" || c.gainmap == "" || *outPath == "" {
		return errors.New("missing required arguments")
	}
	if *cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuProfile), profile.Quiet).Stop()
	}

	p, err := c.profile()
	if err != nil {
		return err
	}
	if *compression != "" {
		if p.Compression, err = heifgainmap.ParseEXRCompression(*compression); err != nil {
			return err
		}
	}

	res, err := c.run(ctx, p)
	if err != nil {
		return err
	}
	log.Infof("Write image: %s", *outPath)
	return heifgainmap.WriteFile(*outPath, res)
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	var c commonFlags
	c.register(fs, heifgainmap.ProfileEXR)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if c.in == "" || c.gainmap == "" {
		return errors.New("missing required arguments")
	}
	p, err := c.profile()
	if err != nil {
		return err
	}
	res, err := c.run(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "MaxCLL=%.2f MaxFALL=%.2f\n", res.Stats.MaxCLL, res.Stats.MaxFALL)
	return nil
}

func runProfiles(args []string) error {
	fs := flag.NewFlagSet("profiles", flag.ContinueOnError)
	profilesPath := fs.String("profiles", "", "TOML file with additional output profiles")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	set, err := loadProfiles(*profilesPath)
	if err != nil {
		return err
	}
	for _, name := range heifgainmap.ProfileNames(set) {
		p := set[name]
		depth := "float"
		if p.BitDepth > 0 {
			depth = fmt.Sprintf("%d-bit %s", p.BitDepth, p.Range)
		}
		fmt.Fprintf(os.Stdout, "%-10s %-4s %-11s %-6s %-16s ref=%g base=%g\n",
			name, p.Encoding, p.Gamut, p.Transfer, depth, p.ReferenceWhite, p.GainMap.Base)
	}
	return nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
