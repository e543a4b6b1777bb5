// Command popupplace runs the popup placement engine against a static map
// described in a JSON scenario file.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/beetlebugorg/mappopup/internal/config"
	"github.com/beetlebugorg/mappopup/internal/log"
	"github.com/beetlebugorg/mappopup/internal/metrics"
	"github.com/beetlebugorg/mappopup/pkg/placement"
)

const usage = `popupplace - map popup placement

Usage:
  popupplace <command> [options]

Commands:
  place      Place popups for every interaction in a scenario
  validate   Check a scenario file against the schema
  config     Print or write the effective configuration

Examples:
  popupplace place testdata/tokyo.json
  popupplace place -format json -metrics testdata/tokyo.json
  popupplace validate testdata/tokyo.json
  popupplace config -o mappopup.yaml

Use "popupplace <command> -h" for more information about a command.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "place":
		err = cmdPlace(rest, stdin, stdout, stderr)
	case "validate":
		err = cmdValidate(rest, stdin, stdout, stderr)
	case "config":
		err = cmdConfig(rest, stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(stderr, usage)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// commonFlags are shared by the commands that need configuration.
type commonFlags struct {
	configPath string
	envFiles   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "mappopup.yaml", "YAML configuration file (missing file means defaults)")
	fs.StringVar(&c.envFiles, "env", ".env", "comma-separated .env files to load before reading the environment")
}

func (c *commonFlags) load() (config.Config, error) {
	var files []string
	for _, f := range strings.Split(c.envFiles, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	if err := config.LoadEnvFiles(files...); err != nil {
		return config.Config{}, err
	}
	return config.Load(c.configPath)
}

func openScenario(fs *flag.FlagSet, stdin io.Reader) (*Scenario, error) {
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected one scenario file (or - for stdin), got %d arguments", fs.NArg())
	}
	name := fs.Arg(0)
	if name == "-" {
		return LoadScenario(stdin)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadScenario(f)
}

func cmdPlace(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("place", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	repeat := fs.Int("repeat", 1, "place each interaction this many times (exercises the viewport cache)")
	workers := fs.Int("workers", 1, "number of concurrent placement workers")
	format := fs.String("format", "text", "output format: text or json")
	showMetrics := fs.Bool("metrics", false, "print Prometheus metrics after placing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *repeat < 1 {
		return fmt.Errorf("-repeat must be at least 1, got %d", *repeat)
	}
	if *workers < 1 {
		return fmt.Errorf("-workers must be at least 1, got %d", *workers)
	}
	if *format != "text" && *format != "json" {
		return fmt.Errorf("-format must be text or json, got %q", *format)
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	logOpts := cfg.LogOptions()
	logOpts.Output = stderr
	log.Init(logOpts)
	logger := log.WithOperation(log.WithComponent("popupplace"), "place")

	sc, err := openScenario(fs, stdin)
	if err != nil {
		return err
	}

	placer := placement.NewPlacer(cfg.ToOptions()).WithLogger(logger)
	reg := prometheus.NewRegistry()
	if _, err := metrics.Instrument(reg, placer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	outcomes, err := runScenario(sc, placer, *repeat, *workers)
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcomes); err != nil {
			return err
		}
	default:
		if err := writeOutcomes(stdout, outcomes); err != nil {
			return err
		}
	}

	if *showMetrics {
		fmt.Fprintln(stdout)
		return metrics.WriteText(stdout, reg)
	}
	return nil
}

func cmdValidate(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	sc, err := openScenario(fs, stdin)
	if err != nil {
		return err
	}
	if _, err := sc.View(); err != nil {
		return err
	}
	for _, in := range sc.Interactions {
		if _, err := in.Interaction(); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "ok: %d interactions, %d controls\n", len(sc.Interactions), len(sc.Map.Controls))
	return nil
}

func cmdConfig(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	out := fs.String("o", "", "write the configuration to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.load()
	if err != nil {
		return err
	}
	if *out != "" {
		return config.Save(*out, cfg)
	}
	return config.Write(stdout, cfg)
}

func writeOutcomes(w io.Writer, outcomes []Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tREASON\tANCHOR\tPOSITION\tPIXEL\tMOVED\tDEGRADED\tCOLLISIONS")
	for _, o := range outcomes {
		pixel := "-"
		if o.Pixel != nil {
			pixel = o.Pixel.String()
		}
		collisions := "-"
		if len(o.Collisions) > 0 {
			collisions = fmt.Sprintf("%s (%.0fpx²)", strings.Join(o.Collisions, ","), o.OverlapArea)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.6f,%.6f\t%s\t%t\t%t\t%s\n",
			o.Region, o.Reason, o.Anchor, o.Lat, o.Lon, pixel, o.Moved, o.Degraded, collisions)
	}
	return tw.Flush()
}
