// Package sim drives orientation sampling over a wavelength sweep.
//
// For every wavelength the configured rays are split across crystal
// populations by weight and then across workers. Each worker owns one
// Sampler per population, rotates the sun ray into every sampled crystal
// frame, hands the local rays to a Tracer and maps the traced exit
// directions back into the sky frame before passing them to a Sink.
package sim

import (
	"errors"
	"fmt"
	gomath "math"
	"runtime"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/icehalo/internal/config"
	"github.com/Faultbox/icehalo/pkg/math"
	"github.com/Faultbox/icehalo/pkg/orientation"
)

// DefaultBatchSize bounds the rays a worker holds between sink calls.
const DefaultBatchSize = 4096

var (
	ErrNoWavelengths = errors.New("no wavelengths to simulate")
	ErrNoPopulations = errors.New("no crystal populations")
	ErrInvalidWeight = errors.New("population weight must be positive and finite")
	ErrNegativeRays  = errors.New("ray count must not be negative")
)

// Tracer propagates rays through one crystal in its local frame.
// exit has the same length as local and receives the outgoing directions.
// Run calls Trace from every worker goroutine at once, so implementations
// must be safe for concurrent use; local and exit are never shared between
// concurrent calls.
type Tracer interface {
	Trace(wavelength float32, local, exit []math.Vec3) error
}

// PassThrough is a Tracer that lets every ray leave unchanged.
type PassThrough struct{}

// Trace copies local into exit.
func (PassThrough) Trace(_ float32, local, exit []math.Vec3) error {
	copy(exit, local)
	return nil
}

// Batch is one chunk of traced rays for a single population.
// Slices are reused by the worker after the sink returns.
type Batch struct {
	Wavelength float32
	Crystal    string
	Worker     int
	Angles     []orientation.Angles
	LocalDirs  []math.Vec3 // sun ray in each crystal frame
	ExitDirs   []math.Vec3 // traced directions in the sky frame
}

// Sink consumes batches. Calls are serialized.
type Sink func(Batch) error

// Population is one group of identically distributed crystals.
type Population struct {
	Name       string
	Weight     float32
	Axis, Roll orientation.Distribution
}

// Params describes a simulation run. Angles are in radians.
type Params struct {
	SunRay            math.Vec3
	RaysPerWavelength int
	Workers           int // <= 0 means one per CPU
	Seed              uint64
	BatchSize         int // <= 0 means DefaultBatchSize
	Wavelengths       []float32
	Populations       []Population
}

// FromConfig converts a validated config to run parameters.
// A zero seed is replaced by ClockSeed.
func FromConfig(cfg *config.Config) (Params, error) {
	if err := cfg.Validate(); err != nil {
		return Params{}, err
	}

	p := Params{
		SunRay:            SunRay(cfg.Sun.Azimuth, cfg.Sun.Altitude),
		RaysPerWavelength: cfg.Simulation.RaysPerWavelength,
		Workers:           cfg.Simulation.Workers,
		Seed:              cfg.Simulation.Seed,
		Wavelengths:       cfg.Simulation.Wavelengths.Wavelengths(),
	}
	if p.Seed == 0 {
		p.Seed = orientation.ClockSeed()
	}
	for _, c := range cfg.Crystals {
		axis, roll := c.Distributions()
		p.Populations = append(p.Populations, Population{
			Name:   c.Name,
			Weight: c.Weight,
			Axis:   axis,
			Roll:   roll,
		})
	}
	return p, nil
}

// Summary reports what a run produced.
type Summary struct {
	Wavelengths int
	Rays        int
	Elapsed     time.Duration
}

// Runner executes Params. It is not safe for concurrent Run calls.
type Runner struct {
	params  Params
	log     *zap.Logger
	workers int
	batch   int

	// samplers[worker][population], reused across the sweep
	samplers [][]*orientation.Sampler
	// counts[population][worker]
	counts [][]int
}

// NewRunner validates p and creates the per-worker samplers.
func NewRunner(p Params, log *zap.Logger) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(p.Wavelengths) == 0 {
		return nil, ErrNoWavelengths
	}
	if len(p.Populations) == 0 {
		return nil, ErrNoPopulations
	}
	if p.RaysPerWavelength < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeRays, p.RaysPerWavelength)
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	batch := p.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	weights := make([]float32, len(p.Populations))
	for i, pop := range p.Populations {
		if w := float64(pop.Weight); w <= 0 || gomath.IsInf(w, 0) || gomath.IsNaN(w) {
			return nil, fmt.Errorf("population %q: %w: %v", pop.Name, ErrInvalidWeight, pop.Weight)
		}
		weights[i] = pop.Weight
	}

	r := &Runner{
		params:   p,
		log:      log,
		workers:  workers,
		batch:    batch,
		samplers: make([][]*orientation.Sampler, workers),
		counts:   make([][]int, len(p.Populations)),
	}

	for i, n := range SplitWeighted(p.RaysPerWavelength, weights) {
		r.counts[i] = SplitEven(n, workers)
	}

	seeds := orientation.WorkerSeeds(p.Seed, workers*len(p.Populations))
	for w := 0; w < workers; w++ {
		r.samplers[w] = make([]*orientation.Sampler, len(p.Populations))
		for i, pop := range p.Populations {
			s, err := orientation.NewSampler(pop.Axis, pop.Roll,
				orientation.WithSeed(seeds[w*len(p.Populations)+i]),
				orientation.WithLogger(log.With(zap.String("crystal", pop.Name), zap.Int("worker", w))),
			)
			if err != nil {
				return nil, fmt.Errorf("population %q: %w", pop.Name, err)
			}
			r.samplers[w][i] = s
		}
	}

	log.Debug("runner created",
		zap.Int("workers", workers),
		zap.Int("populations", len(p.Populations)),
		zap.Int("rays_per_wavelength", p.RaysPerWavelength),
		zap.Uint64("seed", p.Seed))

	return r, nil
}

// Workers returns the number of worker goroutines.
func (r *Runner) Workers() int { return r.workers }

// Counts returns the rays each worker draws per wavelength, indexed by
// population then worker.
func (r *Runner) Counts() [][]int { return r.counts }

// Run sweeps every wavelength. The sweep stops at the first wavelength on
// which any worker failed; all worker errors of that wavelength are returned.
func (r *Runner) Run(tracer Tracer, sink Sink) (Summary, error) {
	var (
		sum   Summary
		mu    sync.Mutex
		start = time.Now()
	)
	serialized := func(b Batch) error {
		mu.Lock()
		defer mu.Unlock()
		return sink(b)
	}

	for _, wl := range r.params.Wavelengths {
		wlStart := time.Now()

		var (
			wg     sync.WaitGroup
			errMu  sync.Mutex
			runErr error
		)
		wg.Add(r.workers)
		for w := 0; w < r.workers; w++ {
			go func(wid int) {
				defer wg.Done()
				if err := r.work(wid, wl, tracer, serialized); err != nil {
					errMu.Lock()
					runErr = multierr.Append(runErr, fmt.Errorf("worker %d: %w", wid, err))
					errMu.Unlock()
				}
			}(w)
		}
		wg.Wait()

		if runErr != nil {
			sum.Elapsed = time.Since(start)
			return sum, fmt.Errorf("wavelength %v: %w", wl, runErr)
		}

		sum.Wavelengths++
		sum.Rays += r.params.RaysPerWavelength
		r.log.Info("wavelength done",
			zap.Float32("wavelength", wl),
			zap.Duration("elapsed", time.Since(wlStart)))
	}

	sum.Elapsed = time.Since(start)
	return sum, nil
}

// work runs one worker's share of a wavelength for every population.
func (r *Runner) work(wid int, wl float32, tracer Tracer, sink Sink) error {
	size := r.batch
	angles := make([]orientation.Angles, size)
	local := make([]math.Vec3, size)
	exit := make([]math.Vec3, size)

	for i, pop := range r.params.Populations {
		s := r.samplers[wid][i]
		for left := r.counts[i][wid]; left > 0; {
			n := min(left, size)
			left -= n

			if err := s.SampleInto(r.params.SunRay, local[:n], angles[:n]); err != nil {
				return err
			}
			if err := tracer.Trace(wl, local[:n], exit[:n]); err != nil {
				return fmt.Errorf("trace %s: %w", pop.Name, err)
			}
			for j := 0; j < n; j++ {
				exit[j] = angles[j].ToGlobal(exit[j])
			}

			if err := sink(Batch{
				Wavelength: wl,
				Crystal:    pop.Name,
				Worker:     wid,
				Angles:     angles[:n],
				LocalDirs:  local[:n],
				ExitDirs:   exit[:n],
			}); err != nil {
				return fmt.Errorf("sink %s: %w", pop.Name, err)
			}
		}
	}
	return nil
}

// SplitEven divides n into parts counts; the first n%parts get one extra.
func SplitEven(n, parts int) []int {
	counts := make([]int, parts)
	if parts <= 0 {
		return counts
	}
	base, rem := n/parts, n%parts
	for i := range counts {
		counts[i] = base
		if i < rem {
			counts[i]++
		}
	}
	return counts
}

// SplitWeighted divides n proportionally to weights using largest
// remainders, so the parts always sum to n. Weights must be non-negative;
// a zero or non-finite total yields all zeros.
func SplitWeighted(n int, weights []float32) []int {
	counts := make([]int, len(weights))
	var total float64
	for _, w := range weights {
		total += float64(w)
	}
	if n <= 0 || !(total > 0) || gomath.IsInf(total, 0) {
		return counts
	}

	rems := make([]float64, len(weights))
	assigned := 0
	for i, w := range weights {
		exact := float64(n) * float64(w) / total
		counts[i] = int(exact)
		rems[i] = exact - float64(counts[i])
		assigned += counts[i]
	}
	for k := 0; assigned < n && k < len(weights); k++ {
		best := 0
		for i := range rems {
			if rems[i] > rems[best] {
				best = i
			}
		}
		counts[best]++
		rems[best] = -1
		assigned++
	}
	return counts
}
