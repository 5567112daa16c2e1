package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/swdunlop/overlap-go"
	"github.com/swdunlop/overlap-go/configuration"
	"github.com/swdunlop/overlap-go/internal/args"
	"github.com/swdunlop/overlap-go/internal/slog"
	"github.com/swdunlop/overlap-go/nats/worker"
	"github.com/swdunlop/zugzug-go"
	"github.com/swdunlop/zugzug-go/zug/parser"
	"gopkg.in/yaml.v3"
)

var tasks = zugzug.Tasks{
	{Name: "overlap", Use: "prints the overlap between two strings", Fn: printOverlap, Parse: parser.New(
		parser.String(&cfgLeft, "left", "l", "text whose end is compared"),
		parser.String(&cfgRight, "right", "r", "text whose start is compared"),
		parser.Bool(&cfgStart, "start", "s", false, "compare the start of left with the end of right instead"),
		parser.String(&cfgFinder, "finder", "f", "overlap finder to use, scan or kmp"),
	)},
	{Name: "client", Use: "prints overlaps of quoted string pairs in interactive mode", Fn: runClient},
	{Name: "worker", Use: "runs a NATS worker that finds overlaps and joins streams", Fn: runWorker},
	{Name: "config", Use: "prints the effective configuration as YAML", Fn: printConfig},
}

var (
	cfgLeft   string
	cfgRight  string
	cfgStart  bool
	cfgFinder string
)

func init() {
	slog.Init(os.Stderr)
}

func main() {
	var err error
	cf, err = loadConfiguration()
	if err == nil {
		err = slog.InitLevel(os.Stderr, logLevel())
	}
	if err != nil {
		println(`!!`, err.Error())
		os.Exit(1)
	}
	zugzug.Main(tasks)
}

func printOverlap(ctx context.Context) error {
	find, err := newFinder()
	if err != nil {
		return err
	}
	return writeOverlap(os.Stdout, find, cfgLeft, cfgRight, cfgStart)
}

func writeOverlap(w io.Writer, find overlap.Finder, left, right string, start bool) error {
	var result string
	if start {
		result = left[:len(right)-find(right, left)]
	} else {
		result = left[find(left, right):]
	}
	_, err := fmt.Fprintf(w, "%q\n", result)
	return err
}

func runClient(ctx context.Context) error {
	find, err := newFinder()
	if err != nil {
		return err
	}
	rl, err := readline.New(`> `)
	if err != nil {
		return err
	}
	defer rl.Close()
	stdout := rl.Stdout()

	for {
		line, err := rl.Readline()
		switch err {
		case nil:
		case io.EOF, readline.ErrInterrupt:
			return nil
		default:
			return err
		}
		fields, err := args.Parse(line)
		if err != nil {
			fmt.Fprintln(stdout, `!!`, err.Error())
			continue
		}
		switch len(fields) {
		case 0:
			continue
		case 2:
		default:
			fmt.Fprintln(stdout, `!! expected two strings, like: "abc" "bcd"`)
			continue
		}
		left, right := fields[0], fields[1]
		fmt.Fprint(stdout, `end:   `)
		if err := writeOverlap(stdout, find, left, right, false); err != nil {
			return err
		}
		fmt.Fprint(stdout, `start: `)
		if err := writeOverlap(stdout, find, left, right, true); err != nil {
			return err
		}
	}
}

func runWorker(ctx context.Context) error {
	return worker.Run(ctx, cf)
}

func printConfig(ctx context.Context) error {
	data, err := yaml.Marshal(configuration.MapOf(cf))
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func newFinder() (overlap.Finder, error) {
	var name string
	err := configuration.Get(&name, withFlags(cf), `overlap_finder`)
	if err != nil {
		return nil, err
	}
	return overlap.Lookup(name)
}

// withFlags layers the flags that were given over cf.
func withFlags(cf configuration.Interface) configuration.Interface {
	for _, flag := range []struct {
		name  string
		value string
	}{
		{`overlap_finder`, cfgFinder},
		{`join_window`, cfgWindow},
		{`join_min_overlap`, cfgMinOverlap},
		{`join_stop`, cfgStop},
	} {
		if flag.value != `` {
			cf = configuration.With(cf, flag.name, flag.value)
		}
	}
	if cfgNFC {
		cf = configuration.With(cf, `join_nfc`, true)
	}
	return cf
}

func logLevel() string {
	var level string
	_ = configuration.Get(&level, cf, `log_level`)
	return level
}

// loadConfiguration layers the OVERLAP_ environment over the YAML file named by OVERLAP_CONFIG, if any, over the
// defaults.
func loadConfiguration() (configuration.Overlay, error) {
	cf := configuration.Overlay{configuration.Environment(`OVERLAP_`)}
	if path := os.Getenv(`OVERLAP_CONFIG`); path != `` {
		file, err := configuration.File(path)
		if err != nil {
			return nil, err
		}
		cf = append(cf, file)
	}
	return append(cf, defaults), nil
}

var cf configuration.Overlay

var defaults = configuration.Map{
	`overlap_finder`: {`scan`},
	`log_level`:      {`info`},
}
