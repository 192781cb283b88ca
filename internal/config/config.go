// Package config handles simulation configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/Faultbox/icehalo/pkg/orientation"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

// Config holds all simulation settings.
type Config struct {
	Sun        SunConfig        `yaml:"sun"`
	Simulation SimulationConfig `yaml:"simulation"`
	Crystals   []CrystalConfig  `yaml:"crystals"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SunConfig holds the sun position in degrees.
type SunConfig struct {
	Altitude float32 `yaml:"altitude"` // Elevation above the horizon
	Azimuth  float32 `yaml:"azimuth"`  // Counter-clockwise from +X
}

// SimulationConfig holds run sizing and the wavelength sweep.
type SimulationConfig struct {
	RaysPerWavelength int         `yaml:"rays_per_wavelength"`
	Workers           int         `yaml:"workers"` // 0 = one per CPU
	Seed              uint64      `yaml:"seed"`    // 0 = seed from clock
	Wavelengths       SweepConfig `yaml:"wavelengths"`
}

// SweepConfig describes wavelengths start, start+step, ... below stop (nm).
type SweepConfig struct {
	Start float32 `yaml:"start"`
	Stop  float32 `yaml:"stop"`
	Step  float32 `yaml:"step"`
}

// CrystalConfig describes one crystal population.
type CrystalConfig struct {
	Name   string             `yaml:"name"`
	Weight float32            `yaml:"weight"` // Relative share of rays
	Axis   DistributionConfig `yaml:"axis"`
	Roll   DistributionConfig `yaml:"roll"`
}

// DistributionConfig is an orientation distribution in degrees.
// Std is the standard deviation for gauss and the full width for uniform.
type DistributionConfig struct {
	Dist orientation.Kind `yaml:"dist"`
	Mean float32          `yaml:"mean"`
	Std  float32          `yaml:"std"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Sun: SunConfig{
			Altitude: 20,
			Azimuth:  0,
		},
		Simulation: SimulationConfig{
			RaysPerWavelength: 100000,
			Workers:           0,
			Seed:              0,
			Wavelengths: SweepConfig{
				Start: 440,
				Stop:  655,
				Step:  30,
			},
		},
		Crystals: []CrystalConfig{
			{
				Name:   "column",
				Weight: 1,
				Axis:   DistributionConfig{Dist: orientation.Gaussian, Mean: 0, Std: 0.5},
				Roll:   DistributionConfig{Dist: orientation.Uniform, Mean: 0, Std: 360},
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Radians converts the distribution to radians.
func (d DistributionConfig) Radians() orientation.Distribution {
	return orientation.Distribution{
		Kind:   d.Dist,
		Mean:   radians(d.Mean),
		Spread: radians(d.Std),
	}
}

// Distributions returns the axis and roll distributions in radians.
func (c CrystalConfig) Distributions() (axis, roll orientation.Distribution) {
	return c.Axis.Radians(), c.Roll.Radians()
}

// Wavelengths expands the sweep into the list of wavelengths to simulate.
// Each entry is start + i*step, so rounding never stalls the sweep.
func (s SweepConfig) Wavelengths() []float32 {
	if !finite(s.Start, s.Stop, s.Step) || s.Step <= 0 || s.Stop <= s.Start {
		return nil
	}
	start, stop, step := float64(s.Start), float64(s.Stop), float64(s.Step)
	n := int(math.Ceil((stop - start) / step))

	wls := make([]float32, 0, n)
	for i := 0; i < n; i++ {
		wl := start + float64(i)*step
		if wl >= stop {
			break
		}
		wls = append(wls, float32(wl))
	}
	return wls
}

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	if !finite(c.Sun.Altitude, c.Sun.Azimuth) {
		return fmt.Errorf("%w: sun position must be finite", ErrInvalidConfig)
	}
	if c.Sun.Altitude < -90 || c.Sun.Altitude > 90 {
		return fmt.Errorf("%w: sun altitude %v outside [-90, 90]", ErrInvalidConfig, c.Sun.Altitude)
	}

	sim := c.Simulation
	if sim.RaysPerWavelength <= 0 {
		return fmt.Errorf("%w: rays_per_wavelength must be positive", ErrInvalidConfig)
	}
	if sim.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	sweep := sim.Wavelengths
	if !finite(sweep.Start, sweep.Stop, sweep.Step) {
		return fmt.Errorf("%w: wavelength sweep must be finite", ErrInvalidConfig)
	}
	if sweep.Step <= 0 {
		return fmt.Errorf("%w: wavelength step must be positive", ErrInvalidConfig)
	}
	if sweep.Start+sweep.Step == sweep.Start {
		return fmt.Errorf("%w: wavelength step %v too small for start %v",
			ErrInvalidConfig, sweep.Step, sweep.Start)
	}
	if sweep.Stop <= sweep.Start {
		return fmt.Errorf("%w: wavelength stop %v not above start %v",
			ErrInvalidConfig, sweep.Stop, sweep.Start)
	}

	if len(c.Crystals) == 0 {
		return fmt.Errorf("%w: no crystals configured", ErrInvalidConfig)
	}
	for i, cr := range c.Crystals {
		if !finite(cr.Weight) || cr.Weight <= 0 {
			return fmt.Errorf("%w: crystal %d (%s): weight must be positive and finite", ErrInvalidConfig, i, cr.Name)
		}
		axis, roll := cr.Distributions()
		if err := axis.Validate(); err != nil {
			return fmt.Errorf("%w: crystal %d (%s) axis: %w", ErrInvalidConfig, i, cr.Name, err)
		}
		if err := roll.Validate(); err != nil {
			return fmt.Errorf("%w: crystal %d (%s) roll: %w", ErrInvalidConfig, i, cr.Name, err)
		}
	}
	return nil
}

func finite(vs ...float32) bool {
	for _, v := range vs {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func radians(deg float32) float32 {
	return float32(float64(deg) * math.Pi / 180)
}
