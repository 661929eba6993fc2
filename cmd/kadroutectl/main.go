// Command kadroutectl replays a JSON seed file of (id, link, time)
// observations through a routing table and prints the resulting table
// contents and a closest-nodes lookup. It exists to run the walkthrough
// scenarios from outside a test binary.
//
// Usage:
//
//	kadroutectl -seed observations.json [flags]
//
// Flags:
//
//	-seed        Path to a JSON seed file (required)
//	-localid     Local id: a bitstring of -idlen bits, or a seed string
//	-idlen       Bit length of every id in the table (default: 160)
//	-k           Live-set (k-bucket) capacity (default: 20)
//	-c           Replacement-cache capacity (default: 20)
//	-n           Near-set capacity (default: 20)
//	-basetime    Logical clock value for the first time-less observation
//	-verbosity   Log level 0-3 (default: 1)
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustan1/kademlia/pkg/log"
	"github.com/dustan1/kademlia/pkg/routing"
	"github.com/dustan1/kademlia/pkg/transport"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in
// isolation.
func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := log.New(verbosityToLevel(cfg.Verbosity))

	localId, err := parseBitstring(cfg.LocalId, cfg.IdLength)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kadroutectl: resolving local id: %v\n", err)
		return 1
	}

	observations, err := loadSeed(cfg.SeedFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	router := routing.NewRouter(localId, cfg.K, cfg.C, cfg.N)
	notifier := transport.NewNotifier(router, transport.NewLogSink(logger))

	nextTime := int64(cfg.BaseTime)
	for i, o := range observations {
		if err := replay(notifier, o, &nextTime); err != nil {
			fmt.Fprintf(os.Stderr, "kadroutectl: observation %d: %v\n", i, err)
			return 1
		}
	}

	printDump(router, localId)
	return 0
}

// replay resolves and applies a single seed-file observation. nextTime
// supplies the logical timestamp for a "touch" whose Time field is
// zero, and is advanced past it.
func replay(n *transport.Notifier, o observation, nextTime *int64) error {
	id, err := resolveId(o, n.Router().LocalId().Length())
	if err != nil {
		return err
	}
	link := o.Link
	if link == "" {
		link = o.Id
	}
	node, err := routing.NewNode(id, link)
	if err != nil {
		return err
	}

	switch o.Op {
	case "", "touch":
		t := o.Time
		if t == 0 {
			t = *nextTime
			*nextTime++
		}
		_, err = n.Touch(t, node)
	case "stale":
		_, err = n.Stale(node)
	case "lock":
		_, err = n.Lock(node)
	case "unlock":
		_, err = n.Unlock(node)
	default:
		return fmt.Errorf("unknown op %q", o.Op)
	}
	return err
}

// printDump writes the table's current contents and a closest-nodes
// lookup around the local id to stdout.
func printDump(router *routing.Router, localId routing.Id) {
	fmt.Printf("table: depth=%d buckets=%d size=%d near=%d\n",
		router.Depth(), router.BucketCount(), router.Size(), router.NearSetLen())

	fmt.Println("peers:")
	for _, a := range router.Dump() {
		fmt.Printf("  %s  link=%s  time=%d\n", a.Node.Id, a.Node.Link, a.Time)
	}

	nodes, err := router.Find(localId, router.NearSetLen())
	if err != nil {
		fmt.Fprintf(os.Stderr, "kadroutectl: find: %v\n", err)
		return
	}
	fmt.Println("closest to local id:")
	for _, n := range nodes {
		fmt.Printf("  %s  link=%s\n", n.Id, n.Link)
	}
}

func verbosityToLevel(v int) slog.Level {
	switch v {
	case 0:
		return slog.LevelDebug
	case 1:
		return slog.LevelInfo
	case 2:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// parseFlags parses CLI arguments into a Config. Returns the config,
// whether the caller should exit immediately, and the exit code.
func parseFlags(args []string) (Config, bool, int) {
	cfg := DefaultConfig()
	fs := newFlagSet(&cfg)

	if err := fs.Parse(args); err != nil {
		return cfg, true, 2
	}
	return cfg, false, 0
}
