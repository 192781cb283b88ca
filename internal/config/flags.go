package config

import "flag"

var flags = flag.NewFlagSet("haloorient", flag.ContinueOnError)

var (
	flagConfig   = flags.String("config", "", "Path to config file")
	flagDebug    = flags.Bool("debug", false, "Enable debug logging")
	flagRays     = flags.Int("rays", 0, "Rays per wavelength")
	flagWorkers  = flags.Int("workers", -1, "Worker goroutines (0 = one per CPU)")
	flagSeed     = flags.Uint64("seed", 0, "Master random seed (0 = from clock)")
	flagAltitude = flags.Float64("sun-altitude", -1000, "Sun altitude in degrees")
	flagLogFile  = flags.String("log-file", "", "Write logs to this file as well")
)

// ParseFlags parses command-line arguments that follow the subcommand.
func ParseFlags(args []string) error {
	return flags.Parse(args)
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flags.Args()
}

// PrintDefaults prints the flag usage.
func PrintDefaults() {
	flags.PrintDefaults()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagRays > 0 {
		cfg.Simulation.RaysPerWavelength = *flagRays
	}
	if *flagWorkers >= 0 {
		cfg.Simulation.Workers = *flagWorkers
	}
	if *flagSeed != 0 {
		cfg.Simulation.Seed = *flagSeed
	}
	if *flagAltitude > -1000 {
		cfg.Sun.Altitude = float32(*flagAltitude)
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
