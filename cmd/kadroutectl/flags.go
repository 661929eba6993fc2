package main

import (
	"flag"
	"fmt"
	"strconv"
)

// flagSet wraps flag.FlagSet and replaces its Uint64Var with a version
// backed by the local uint64Value type.
type flagSet struct {
	*flag.FlagSet
}

// newCustomFlagSet creates a flagSet with ContinueOnError behavior, so
// callers decide how to react to a parse failure instead of the
// process exiting from inside flag.Parse.
func newCustomFlagSet(name string) *flagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &flagSet{FlagSet: fs}
}

// Uint64Var defines a uint64 flag.
func (fs *flagSet) Uint64Var(p *uint64, name string, value uint64, usage string) {
	fs.FlagSet.Var(&uint64Value{p: p}, name, usage)
	*p = value
}

// uint64Value implements flag.Value for uint64 flags.
type uint64Value struct {
	p *uint64
}

func (v *uint64Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatUint(*v.p, 10)
}

func (v *uint64Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid uint64 value %q", s)
	}
	*v.p = n
	return nil
}

// newFlagSet creates a flag.FlagSet that binds all CLI flags to cfg.
func newFlagSet(cfg *Config) *flagSet {
	fs := newCustomFlagSet("kadroutectl")
	fs.StringVar(&cfg.SeedFile, "seed", cfg.SeedFile, "path to a JSON seed file of observations")
	fs.StringVar(&cfg.LocalId, "localid", cfg.LocalId, "local id, as a bitstring of -idlen bits or an arbitrary seed string")
	fs.IntVar(&cfg.IdLength, "idlen", cfg.IdLength, "bit length of every id in the table")
	fs.IntVar(&cfg.K, "k", cfg.K, "live-set (k-bucket) capacity")
	fs.IntVar(&cfg.C, "c", cfg.C, "replacement-cache capacity")
	fs.IntVar(&cfg.N, "n", cfg.N, "near-set capacity")
	fs.Uint64Var(&cfg.BaseTime, "basetime", cfg.BaseTime, "logical clock value for the first time-less observation")
	fs.IntVar(&cfg.Verbosity, "verbosity", cfg.Verbosity, "log level 0-3 (0=debug, 3=error)")
	return fs
}
