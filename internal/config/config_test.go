package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Faultbox/icehalo/pkg/orientation"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Sun.Altitude != 20 {
		t.Errorf("expected sun altitude 20, got %v", cfg.Sun.Altitude)
	}

	sim := cfg.Simulation
	if sim.RaysPerWavelength != 100000 {
		t.Errorf("expected 100000 rays, got %d", sim.RaysPerWavelength)
	}
	if sim.Workers != 0 || sim.Seed != 0 {
		t.Errorf("expected automatic workers and seed, got %d, %d", sim.Workers, sim.Seed)
	}

	if len(cfg.Crystals) != 1 {
		t.Fatalf("expected 1 default crystal, got %d", len(cfg.Crystals))
	}
	if cfg.Crystals[0].Axis.Dist != orientation.Gaussian {
		t.Errorf("expected gauss axis, got %v", cfg.Crystals[0].Axis.Dist)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestWavelengths(t *testing.T) {
	got := Default().Simulation.Wavelengths.Wavelengths()
	want := []float32{440, 470, 500, 530, 560, 590, 620, 650}
	if len(got) != len(want) {
		t.Fatalf("expected %d wavelengths, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("wavelength %d: got %v, want %v", i, got[i], want[i])
		}
	}

	for _, sweep := range []SweepConfig{
		{Start: 400, Stop: 500, Step: 0},
		{Start: 500, Stop: 400, Step: 10},
		{Start: 400, Stop: float32(math.Inf(1)), Step: 10},
		{Start: float32(math.NaN()), Stop: 500, Step: 10},
	} {
		if wls := sweep.Wavelengths(); wls != nil {
			t.Errorf("%+v should give no wavelengths, got %v", sweep, wls)
		}
	}
}

func TestWavelengthsByIndex(t *testing.T) {
	// 0.1 is inexact in float32; accumulating it would drift
	wls := SweepConfig{Start: 0, Stop: 1, Step: 0.1}.Wavelengths()
	if len(wls) != 10 {
		t.Fatalf("expected 10 wavelengths, got %d: %v", len(wls), wls)
	}
	if math.Abs(float64(wls[9])-0.9) > 1e-6 {
		t.Errorf("last wavelength = %v, want 0.9", wls[9])
	}

	// A step that cannot advance start in float32 still terminates
	wls = SweepConfig{Start: 440, Stop: 440.001, Step: 1e-5}.Wavelengths()
	if len(wls) == 0 || len(wls) > 101 {
		t.Errorf("unexpected sweep length %d", len(wls))
	}
}

func TestDistributionsInRadians(t *testing.T) {
	c := CrystalConfig{
		Axis: DistributionConfig{Dist: orientation.Gaussian, Mean: 90, Std: 1},
		Roll: DistributionConfig{Dist: orientation.Uniform, Mean: 0, Std: 360},
	}
	axis, roll := c.Distributions()

	if math.Abs(float64(axis.Mean)-math.Pi/2) > 1e-6 {
		t.Errorf("axis mean = %v, want pi/2", axis.Mean)
	}
	if math.Abs(float64(axis.Spread)-math.Pi/180) > 1e-6 {
		t.Errorf("axis spread = %v, want pi/180", axis.Spread)
	}
	if math.Abs(float64(roll.Spread)-2*math.Pi) > 1e-6 {
		t.Errorf("roll spread = %v, want 2pi", roll.Spread)
	}
	if axis.Kind != orientation.Gaussian || roll.Kind != orientation.Uniform {
		t.Errorf("kinds not preserved: %v, %v", axis.Kind, roll.Kind)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"sun altitude", func(c *Config) { c.Sun.Altitude = 95 }},
		{"zero rays", func(c *Config) { c.Simulation.RaysPerWavelength = 0 }},
		{"negative workers", func(c *Config) { c.Simulation.Workers = -2 }},
		{"zero step", func(c *Config) { c.Simulation.Wavelengths.Step = 0 }},
		{"empty sweep", func(c *Config) { c.Simulation.Wavelengths.Stop = 440 }},
		{"no crystals", func(c *Config) { c.Crystals = nil }},
		{"zero weight", func(c *Config) { c.Crystals[0].Weight = 0 }},
		{"unset axis", func(c *Config) { c.Crystals[0].Axis.Dist = orientation.KindUnset }},
		{"negative roll spread", func(c *Config) { c.Crystals[0].Roll.Std = -1 }},
		{"NaN altitude", func(c *Config) { c.Sun.Altitude = float32(math.NaN()) }},
		{"infinite azimuth", func(c *Config) { c.Sun.Azimuth = float32(math.Inf(1)) }},
		{"NaN start", func(c *Config) { c.Simulation.Wavelengths.Start = float32(math.NaN()) }},
		{"infinite stop", func(c *Config) { c.Simulation.Wavelengths.Stop = float32(math.Inf(1)) }},
		{"step below float32 resolution", func(c *Config) { c.Simulation.Wavelengths.Step = 1e-5 }},
		{"infinite weight", func(c *Config) { c.Crystals[0].Weight = float32(math.Inf(1)) }},
		{"NaN weight", func(c *Config) { c.Crystals[0].Weight = float32(math.NaN()) }},
		{"NaN axis mean", func(c *Config) { c.Crystals[0].Axis.Mean = float32(math.NaN()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	cfg := Default()
	cfg.Crystals[0].Axis.Dist = orientation.KindUnset
	if err := cfg.Validate(); !errors.Is(err, orientation.ErrUnknownDistribution) {
		t.Errorf("expected wrapped ErrUnknownDistribution, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "halo.yaml")

	yamlContent := `
sun:
  altitude: 35.5
  azimuth: 10

simulation:
  rays_per_wavelength: 5000
  workers: 4
  seed: 1234
  wavelengths:
    start: 500
    stop: 600
    step: 50

crystals:
  - name: plate
    weight: 2
    axis:
      dist: gauss
      mean: 90
      std: 0.3
    roll:
      dist: uniform
      mean: 0
      std: 360
  - name: random
    weight: 1
    axis:
      dist: uniform
    roll:
      dist: uniform
      std: 360

logging:
  level: "debug"
  log_file: "halo.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Sun.Altitude != 35.5 || cfg.Sun.Azimuth != 10 {
		t.Errorf("unexpected sun %+v", cfg.Sun)
	}
	if cfg.Simulation.RaysPerWavelength != 5000 {
		t.Errorf("expected 5000 rays, got %d", cfg.Simulation.RaysPerWavelength)
	}
	if cfg.Simulation.Workers != 4 || cfg.Simulation.Seed != 1234 {
		t.Errorf("unexpected workers/seed %d/%d", cfg.Simulation.Workers, cfg.Simulation.Seed)
	}
	if wls := cfg.Simulation.Wavelengths.Wavelengths(); len(wls) != 2 || wls[1] != 550 {
		t.Errorf("unexpected wavelengths %v", wls)
	}

	if len(cfg.Crystals) != 2 {
		t.Fatalf("expected 2 crystals, got %d", len(cfg.Crystals))
	}
	plate := cfg.Crystals[0]
	if plate.Name != "plate" || plate.Weight != 2 || plate.Axis.Dist != orientation.Gaussian || plate.Axis.Mean != 90 {
		t.Errorf("unexpected plate crystal %+v", plate)
	}
	if cfg.Crystals[1].Axis.Dist != orientation.Uniform {
		t.Errorf("expected uniform axis for second crystal, got %v", cfg.Crystals[1].Axis.Dist)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "halo.log" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "simulation:\n  rays_per_wavelength: not a number\n  invalid syntax here\n"},
		{"distribution", "crystals:\n  - name: x\n    weight: 1\n    axis:\n      dist: lorentz\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			cfg := Default()
			if err := loadFromFile(cfg, configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/halo.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	if got, want := ConfigDir(), filepath.Join(xdg, "icehalo"); got != want {
		t.Errorf("ConfigDir() = %s, want %s", got, want)
	}
}

func TestFindConfigFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	workDir := t.TempDir()
	os.Chdir(workDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	userPath := filepath.Join(xdg, "icehalo", "halo.yaml")
	if err := Default().SaveTo(userPath); err != nil {
		t.Fatalf("failed to create user config: %v", err)
	}
	if path := findConfigFile(); path != userPath {
		t.Errorf("expected %s, got %s", userPath, path)
	}

	// The working directory wins over the user config directory
	if err := os.WriteFile(filepath.Join(workDir, "halo.yaml"), []byte("sun:\n  altitude: 5\n"), 0644); err != nil {
		t.Fatalf("failed to create local config: %v", err)
	}
	if path := findConfigFile(); path != "halo.yaml" {
		t.Errorf("expected local halo.yaml, got %s", path)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "rays flag",
			setup: func() { *flagRays = 250 },
			verify: func(cfg *Config) {
				if cfg.Simulation.RaysPerWavelength != 250 {
					t.Errorf("expected 250 rays, got %d", cfg.Simulation.RaysPerWavelength)
				}
			},
			teardown: func() { *flagRays = 0 },
		},
		{
			name:  "workers flag",
			setup: func() { *flagWorkers = 3 },
			verify: func(cfg *Config) {
				if cfg.Simulation.Workers != 3 {
					t.Errorf("expected 3 workers, got %d", cfg.Simulation.Workers)
				}
			},
			teardown: func() { *flagWorkers = -1 },
		},
		{
			name:  "seed flag",
			setup: func() { *flagSeed = 77 },
			verify: func(cfg *Config) {
				if cfg.Simulation.Seed != 77 {
					t.Errorf("expected seed 77, got %d", cfg.Simulation.Seed)
				}
			},
			teardown: func() { *flagSeed = 0 },
		},
		{
			name:  "sun altitude flag",
			setup: func() { *flagAltitude = 0 },
			verify: func(cfg *Config) {
				if cfg.Sun.Altitude != 0 {
					t.Errorf("expected altitude 0, got %v", cfg.Sun.Altitude)
				}
			},
			teardown: func() { *flagAltitude = -1000 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(cfg)
		})
	}
}

func TestParseFlags(t *testing.T) {
	defer func() {
		*flagRays = 0
		*flagSeed = 0
	}()

	if err := ParseFlags([]string{"-rays", "42", "-seed", "9", "extra"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if *flagRays != 42 || *flagSeed != 9 {
		t.Errorf("flags not parsed: rays %d, seed %d", *flagRays, *flagSeed)
	}
	if args := Args(); len(args) != 1 || args[0] != "extra" {
		t.Errorf("Args() = %v, want [extra]", args)
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "halo.yaml")

	yamlContent := `
simulation:
  rays_per_wavelength: 1600
  workers: 2
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagRays = 1920
	defer func() {
		*flagConfig = ""
		*flagRays = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Rays from the flag, workers from the file
	if cfg.Simulation.RaysPerWavelength != 1920 {
		t.Errorf("expected 1920 rays from flag, got %d", cfg.Simulation.RaysPerWavelength)
	}
	if cfg.Simulation.Workers != 2 {
		t.Errorf("expected 2 workers from file, got %d", cfg.Simulation.Workers)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "halo.yaml")
	if err := os.WriteFile(configPath, []byte("simulation:\n  workers: -4\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "halo.yaml")

	cfg := Default()
	cfg.Crystals = append(cfg.Crystals, CrystalConfig{
		Name:   "plate",
		Weight: 0.5,
		Axis:   DistributionConfig{Dist: orientation.Gaussian, Mean: 90, Std: 1},
		Roll:   DistributionConfig{Dist: orientation.Gaussian, Mean: 0, Std: 5},
	})
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if len(loaded.Crystals) != 2 || loaded.Crystals[1].Roll.Dist != orientation.Gaussian {
		t.Errorf("crystals not preserved: %+v", loaded.Crystals)
	}
}
