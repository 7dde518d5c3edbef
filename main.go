// Command smudgepin infers smartphone PINs from smudge detections on a
// calibrated keypad.
//
// Usage:
//
//	smudgepin [-config path] <command> [flags]
//
// Commands: rectify, calibrate, guess, refs, build-stats, algorithms, version.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"smudge-pin/internal/config"
	"smudge-pin/pkg/log"
)

type command struct {
	name  string
	usage string
	run   func(cfg *config.Config, args []string) error
}

var commands = []command{
	{"rectify", "straighten a phone photo for the smudge detector", runRectify},
	{"calibrate", "infer and store the keypad of a calibration photo", runCalibrate},
	{"guess", "rank candidate PINs for detected smudges", runGuess},
	{"refs", "list, show or delete calibration references", runRefs},
	{"build-stats", "build PIN statistics from a corpus", runBuildStats},
	{"algorithms", "list ordering algorithms", runAlgorithms},
	{"version", "print build information", runVersion},
}

func main() {
	configPath := flag.String("config", "", "Path to YAML config (default "+config.DefaultPath+" if present)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log.NewLogger(cfg.LogOptions())

	name, args := flag.Arg(0), flag.Args()[1:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(cfg, args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				os.Exit(2)
			}
			log.Error(log.Fields{"command": name, "error": err.Error()}, "command failed")
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: smudgepin [-config path] <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(os.Stderr, "\nRun 'smudgepin <command> -h' for command flags.\n")
}

// printJSON writes v to stdout, indented.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
