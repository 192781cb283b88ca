// haloorient samples ice-crystal orientations over a wavelength sweep and
// checks the sky/crystal frame transforms.
package main

import (
	"errors"
	"flag"
	"fmt"
	gomath "math"
	"os"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Faultbox/icehalo/internal/config"
	"github.com/Faultbox/icehalo/internal/logger"
	"github.com/Faultbox/icehalo/internal/sim"
	"github.com/Faultbox/icehalo/pkg/math"
	"github.com/Faultbox/icehalo/pkg/orientation"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "sample", "run":
		err = cmdSample(args)
	case "roundtrip", "rt":
		err = cmdRoundTrip(args)
	case "init":
		err = cmdInit(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`haloorient - ice-crystal orientation sampler

Usage:
  haloorient <command> [options]

Commands:
  sample [options]       Run the wavelength sweep and summarize orientations
  roundtrip [options]    Check sky -> crystal -> sky transforms on sampled frames
  init <path>            Write the default config to path

Options (sample, roundtrip):`)
	config.PrintDefaults()
	fmt.Println(`
Examples:
  haloorient sample -rays 20000 -seed 42
  haloorient roundtrip -config halo.yaml
  haloorient init ./halo.yaml`)
}

// setup parses flags, loads config and starts logging.
func setup(args []string) (*config.Config, error) {
	if err := config.ParseFlags(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

// crystalStats collects sampled angles of one population in degrees.
type crystalStats struct {
	lat, roll []float64
	maxErr    float64
}

func cmdSample(args []string) error {
	cfg, err := setup(args)
	if err != nil {
		return err
	}

	params, err := sim.FromConfig(cfg)
	if err != nil {
		return err
	}
	runner, err := sim.NewRunner(params, logger.Named("sim"))
	if err != nil {
		return err
	}

	logger.Info("starting sweep",
		zap.Int("wavelengths", len(params.Wavelengths)),
		zap.Int("rays_per_wavelength", params.RaysPerWavelength),
		zap.Int("workers", runner.Workers()),
		zap.Uint64("seed", params.Seed))

	stats := map[string]*crystalStats{}
	var dists []float64
	summary, err := runner.Run(sim.PassThrough{}, func(b sim.Batch) error {
		cs, ok := stats[b.Crystal]
		if !ok {
			cs = &crystalStats{}
			stats[b.Crystal] = cs
		}
		dists = dists[:0]
		for i, a := range b.Angles {
			cs.lat = append(cs.lat, degrees(a.Lat))
			cs.roll = append(cs.roll, degrees(a.Roll))
			dists = append(dists, float64(b.ExitDirs[i].Distance(params.SunRay)))
		}
		if len(dists) > 0 {
			cs.maxErr = gomath.Max(cs.maxErr, floats.Max(dists))
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Wavelengths: %d\n", summary.Wavelengths)
	fmt.Printf("Rays:        %d\n", summary.Rays)
	fmt.Printf("Elapsed:     %v\n", summary.Elapsed)
	fmt.Println()
	fmt.Printf("  %-12s %10s %10s %10s %10s %10s %12s\n",
		"crystal", "samples", "lat mean", "lat std", "roll mean", "roll std", "max err")

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cs := stats[name]
		latMean, latStd := stat.MeanStdDev(cs.lat, nil)
		rollMean, rollStd := stat.MeanStdDev(cs.roll, nil)
		fmt.Printf("  %-12s %10d %10.3f %10.3f %10.3f %10.3f %12.3g\n",
			name, len(cs.lat), latMean, latStd, rollMean, rollStd, cs.maxErr)
	}
	return nil
}

func cmdRoundTrip(args []string) error {
	cfg, err := setup(args)
	if err != nil {
		return err
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = orientation.ClockSeed()
	}
	log := logger.Named("roundtrip")

	samplers, err := crystalSamplers(cfg.Crystals, seed, log)
	if err != nil {
		return err
	}

	frames := cfg.Simulation.RaysPerWavelength / roundTripVectors
	if frames < 1 {
		frames = 1
	}
	rng := rand.New(rand.NewSource(seed))

	fmt.Printf("  %-12s %10s %12s\n", "crystal", "frames", "max err")
	for i, c := range cfg.Crystals {
		maxErr, err := roundTripError(samplers[i], rng, frames)
		if err != nil {
			return fmt.Errorf("crystal %s: %w", c.Name, err)
		}
		log.Debug("crystal checked", zap.String("crystal", c.Name), zap.Int("frames", frames))
		fmt.Printf("  %-12s %10d %12.3g\n", c.Name, frames, maxErr)
	}
	return nil
}

// roundTripVectors is the number of vectors pushed through each sampled frame.
const roundTripVectors = 64

// crystalSamplers builds one sampler per crystal, seeded from WorkerSeeds.
func crystalSamplers(crystals []config.CrystalConfig, seed uint64, log *zap.Logger) ([]*orientation.Sampler, error) {
	seeds := orientation.WorkerSeeds(seed, len(crystals))
	samplers := make([]*orientation.Sampler, len(crystals))
	for i, c := range crystals {
		axis, roll := c.Distributions()
		s, err := orientation.NewSampler(axis, roll,
			orientation.WithSeed(seeds[i]),
			orientation.WithLogger(log.With(zap.String("crystal", c.Name))))
		if err != nil {
			return nil, fmt.Errorf("crystal %s: %w", c.Name, err)
		}
		samplers[i] = s
	}
	return samplers, nil
}

// roundTripError sends random vectors through frames sampled orientations
// and back, returning the largest per-component deviation.
func roundTripError(s *orientation.Sampler, rng *rand.Rand, frames int) (float64, error) {
	buf := make([]float32, 3*roundTripVectors)
	orig := make([]float32, len(buf))
	scratch := make([]float32, len(buf))
	diffs := make([]float64, len(buf))

	maxErr := 0.0
	for f := 0; f < frames; f++ {
		for j := range orig {
			orig[j] = float32(rng.NormFloat64())
		}
		copy(buf, orig)

		a := s.Next()
		if err := math.ToLocalFlat(a.Lon, a.Lat, a.Roll, buf, scratch); err != nil {
			return 0, err
		}
		if err := math.ToGlobalFlat(a.Lon, a.Lat, a.Roll, buf, scratch); err != nil {
			return 0, err
		}

		for j := range buf {
			diffs[j] = gomath.Abs(float64(buf[j] - orig[j]))
		}
		maxErr = gomath.Max(maxErr, floats.Max(diffs))
	}
	return maxErr, nil
}

func cmdInit(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: haloorient init <path>")
	}
	if err := config.Default().SaveTo(args[0]); err != nil {
		return err
	}
	fmt.Printf("Wrote default config to %s\n", args[0])
	return nil
}

func degrees(rad float32) float64 {
	return float64(rad) * 180 / gomath.Pi
}
