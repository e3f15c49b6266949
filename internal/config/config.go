// Package config loads runtime-tunable settings for the garbage collector
// from the process environment.
package config

import (
	"io"

	"github.com/caarlos0/env/v6"
	"github.com/mna/ember/lang/value"
)

// GC holds the environment-configurable knobs for the heap's collector.
// Defaults match spec: a 1 MiB initial threshold and a doubling growth
// factor, with stress mode and verbose GC logging off.
type GC struct {
	InitialHeap  int  `env:"EMBER_GC_INITIAL_HEAP" envDefault:"1048576"`
	GrowthFactor int  `env:"EMBER_GC_GROWTH_FACTOR" envDefault:"2"`
	Stress       bool `env:"EMBER_GC_STRESS" envDefault:"false"`
	LogGC        bool `env:"EMBER_GC_LOG" envDefault:"false"`
}

// LoadGC parses GC from the environment, applying defaults for any variable
// that isn't set.
func LoadGC() (GC, error) {
	var cfg GC
	if err := env.Parse(&cfg); err != nil {
		return GC{}, err
	}
	return cfg, nil
}

// HeapOptions translates the parsed configuration into value.HeapOption
// values ready to pass to value.NewHeap. logWriter receives GC trace lines
// when LogGC is enabled; it may be nil when LogGC is false.
func (c GC) HeapOptions(logWriter io.Writer) []value.HeapOption {
	opts := []value.HeapOption{
		value.WithInitialHeap(c.InitialHeap),
		value.WithGrowthFactor(c.GrowthFactor),
		value.WithStress(c.Stress),
	}
	if c.LogGC && logWriter != nil {
		opts = append(opts, value.WithGCLogging(logWriter))
	}
	return opts
}
