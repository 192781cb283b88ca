package orientation

import (
	"errors"
	"fmt"
	gomath "math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Faultbox/icehalo/pkg/math"
)

var (
	ErrLengthMismatch = errors.New("ray direction and angle buffers differ in length")
)

// seedStride spreads worker indices over the seed space (64-bit golden ratio).
const seedStride = 0x9e3779b97f4a7c15

type rander interface {
	Rand() float64
}

// Options holds sampler construction settings.
type Options struct {
	Seed   uint64
	Source rand.Source
	Logger *zap.Logger

	seeded bool
}

// Option configures a Sampler.
type Option func(*Options)

// WithSeed seeds the sampler's random source.
func WithSeed(seed uint64) Option {
	return func(o *Options) {
		o.Seed = seed
		o.seeded = true
	}
}

// WithSource makes the sampler draw from src. The source must not be shared
// with another goroutine.
func WithSource(src rand.Source) Option {
	return func(o *Options) { o.Source = src }
}

// WithLogger sets the logger used for construction diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// ClockSeed returns a seed read from the high-resolution clock.
func ClockSeed() uint64 {
	return uint64(time.Now().UnixNano())
}

// WorkerSeeds derives n distinct seeds from master, one per worker.
func WorkerSeeds(master uint64, n int) []uint64 {
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = master ^ (uint64(i+1) * seedStride)
	}
	return seeds
}

// Sampler draws crystal orientations. A Sampler owns its random source and
// must not be used from more than one goroutine at a time; give each worker
// its own Sampler.
type Sampler struct {
	axis, roll Distribution

	// standard normal draws for the uniform-on-sphere axis
	unitNormal distuv.Normal
	lon        distuv.Uniform
	lat        distuv.Normal
	rollDist   rander
}

// NewSampler validates both distributions and builds a sampler.
// Without WithSeed or WithSource the source is seeded from ClockSeed.
func NewSampler(axis, roll Distribution, opts ...Option) (*Sampler, error) {
	if err := axis.Validate(); err != nil {
		return nil, fmt.Errorf("axis distribution: %w", err)
	}
	if err := roll.Validate(); err != nil {
		return nil, fmt.Errorf("roll distribution: %w", err)
	}

	o := Options{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Source == nil {
		if !o.seeded {
			o.Seed = ClockSeed()
			o.seeded = true
		}
		o.Source = rand.NewSource(o.Seed)
	}

	src := o.Source
	s := &Sampler{
		axis:       axis,
		roll:       roll,
		unitNormal: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		lon:        distuv.Uniform{Min: 0, Max: 2 * gomath.Pi, Src: src},
		lat:        distuv.Normal{Mu: float64(axis.Mean), Sigma: float64(axis.Spread), Src: src},
	}

	mean, spread := float64(roll.Mean), float64(roll.Spread)
	switch roll.Kind {
	case Gaussian:
		s.rollDist = distuv.Normal{Mu: mean, Sigma: spread, Src: src}
	case Uniform:
		s.rollDist = distuv.Uniform{Min: mean - spread/2, Max: mean + spread/2, Src: src}
	}

	fields := []zap.Field{
		zap.Stringer("axis", axis.Kind),
		zap.Float32("axis_mean", axis.Mean),
		zap.Float32("axis_spread", axis.Spread),
		zap.Stringer("roll", roll.Kind),
		zap.Float32("roll_mean", roll.Mean),
		zap.Float32("roll_spread", roll.Spread),
	}
	if o.seeded {
		fields = append(fields, zap.Uint64("seed", o.Seed))
	}
	o.Logger.Debug("orientation sampler created", fields...)

	return s, nil
}

// Axis returns the axis tilt distribution.
func (s *Sampler) Axis() Distribution { return s.axis }

// Roll returns the roll distribution.
func (s *Sampler) Roll() Distribution { return s.roll }

// Next draws one orientation.
func (s *Sampler) Next() Angles {
	var a Angles
	switch s.axis.Kind {
	case Uniform:
		a.Lon, a.Lat = s.sphereAxis()
	case Gaussian:
		a.Lon = float32(s.lon.Rand())
		a.Lat = float32(foldLatitude(s.lat.Rand()))
	}
	a.Roll = float32(s.rollDist.Rand())
	return a
}

// sphereAxis draws an axis uniformly over the sphere by normalizing three
// standard normal deviates.
func (s *Sampler) sphereAxis() (lon, lat float32) {
	for {
		x, y, z := s.unitNormal.Rand(), s.unitNormal.Rand(), s.unitNormal.Rand()
		n := gomath.Sqrt(x*x + y*y + z*z)
		if n == 0 {
			continue
		}
		sinLat := gomath.Max(-1, gomath.Min(1, z/n))
		return float32(gomath.Atan2(y, x)), float32(gomath.Asin(sinLat))
	}
}

// foldLatitude reflects a latitude that overshoots a pole back into
// [-pi/2, pi/2].
func foldLatitude(lat float64) float64 {
	if lat > gomath.Pi/2 {
		lat = gomath.Pi - lat
	}
	if lat < -gomath.Pi/2 {
		lat = -gomath.Pi - lat
	}
	return lat
}

// Sample draws num orientations and returns, for each, the sun direction
// expressed in that crystal's frame together with the angles drawn.
func (s *Sampler) Sample(sunDir math.Vec3, num int) ([]math.Vec3, []Angles) {
	if num < 0 {
		num = 0
	}
	rayDirs := make([]math.Vec3, num)
	angles := make([]Angles, num)
	s.fill(sunDir, rayDirs, angles)
	return rayDirs, angles
}

// SampleInto is Sample writing into caller-owned buffers of equal length.
func (s *Sampler) SampleInto(sunDir math.Vec3, rayDirs []math.Vec3, angles []Angles) error {
	if len(rayDirs) != len(angles) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(rayDirs), len(angles))
	}
	s.fill(sunDir, rayDirs, angles)
	return nil
}

// fill draws len(angles) orientations; rayDirs must be at least as long.
func (s *Sampler) fill(sunDir math.Vec3, rayDirs []math.Vec3, angles []Angles) {
	for i := range angles {
		a := s.Next()
		angles[i] = a
		rayDirs[i] = sunDir
		math.ToLocal(a.Lon, a.Lat, a.Roll, rayDirs[i:i+1])
	}
}
