package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/swdunlop/overlap-go"
	"github.com/swdunlop/overlap-go/configuration"
	"github.com/swdunlop/overlap-go/internal"
	"github.com/swdunlop/overlap-go/internal/slog"
	"github.com/swdunlop/overlap-go/join"
	"github.com/swdunlop/overlap-go/nats"
	msg "github.com/swdunlop/overlap-go/nats/protocol"
	"github.com/swdunlop/zugzug-go"
	"github.com/swdunlop/zugzug-go/zug/parser"
	"golang.org/x/text/unicode/norm"
)

// This file contains the tasks that join streams, locally or through a worker.

func init() {
	tasks = append(tasks, zugzug.Tasks{
		{Name: `join`, Fn: runJoin, Use: `joins overlapping lines from stdin into one stream on stdout`, Parse: parser.New(
			parser.String(&cfgWindow, `window`, `w`, `bytes of output retained to recognize repeated text`),
			parser.String(&cfgMinOverlap, `min`, `m`, `shortest repeat that will be dropped, in bytes`),
			parser.String(&cfgStop, `stop`, `x`, `text that ends the stream`),
			parser.Bool(&cfgNFC, `nfc`, ``, false, `normalize chunks to NFC before comparing them`),
			parser.Bool(&cfgRemote, `remote`, ``, false, `join using a NATS worker instead of locally`),
			parser.String(&cfgFinder, `finder`, `f`, `overlap finder to use, scan or kmp`),
		)},
		{Name: `request`, Fn: requestOverlap, Use: `asks a NATS worker for the overlap between two strings`, Parse: parser.New(
			parser.String(&cfgLeft, `left`, `l`, `text whose end is compared`),
			parser.String(&cfgRight, `right`, `r`, `text whose start is compared`),
			parser.Bool(&cfgStart, `start`, `s`, false, `compare the start of left with the end of right instead`),
		)},
	}...)
}

var (
	cfgWindow     string
	cfgMinOverlap string
	cfgStop       string
	cfgNFC        bool
	cfgRemote     bool
)

// joinOptions is read from the configuration, with flags layered over it.
type joinOptions struct {
	Window     int    `cfg:"join_window"`
	MinOverlap int    `cfg:"join_min_overlap"`
	Stop       string `cfg:"join_stop"`
	NFC        bool   `cfg:"join_nfc"`
	Finder     string `cfg:"overlap_finder"`
}

func loadJoinOptions(cf configuration.Interface) (joinOptions, error) {
	opts := joinOptions{Window: join.DefaultWindow, MinOverlap: 1}
	err := configuration.Unmarshal(&opts, withFlags(cf))
	return opts, err
}

// a chunkWriter returns the part of a chunk that should be written.
type chunkWriter func(ctx context.Context, chunk string) (string, error)

func runJoin(ctx context.Context) error {
	return joinLines(ctx, cf, os.Stdout, os.Stdin)
}

// joinLines joins the lines of r onto w, either locally or, with -remote, through a worker session that is given the
// same join options.
func joinLines(ctx context.Context, cf configuration.Interface, w io.Writer, r io.Reader) error {
	opts, err := loadJoinOptions(cf)
	if err != nil {
		return err
	}
	var write chunkWriter
	if cfgRemote {
		ct, err := nats.New(nil, cf)
		if err != nil {
			return err
		}
		defer ct.Release()
		session := ct.NewSession()
		ctx = slog.With(ctx, `session`, session)
		defer func() {
			if _, err := ct.Reset(context.Background(), session); err != nil {
				slog.From(ctx).Warn(`failed to reset session`, `err`, err)
			}
		}()
		first := &msg.JoinOptions{Window: opts.Window, MinOverlap: opts.MinOverlap, NFC: opts.NFC, Finder: opts.Finder}
		write = func(ctx context.Context, chunk string) (string, error) {
			req := &msg.JoinRequest{Session: session, Chunk: chunk, Options: first}
			first = nil
			return ct.JoinWith(ctx, req)
		}
	} else {
		find, err := overlap.Lookup(opts.Finder)
		if err != nil {
			return err
		}
		options := []join.Option{join.Window(opts.Window), join.MinOverlap(opts.MinOverlap), join.Finder(find)}
		if opts.NFC {
			options = append(options, join.Normalize(norm.NFC))
		}
		j := join.New(options...)
		write = func(_ context.Context, chunk string) (string, error) {
			return j.Write(chunk), nil
		}
	}
	return joinStream(ctx, w, r, write, opts.Stop)
}

// joinStream writes the joined lines of r to w, ending early if stop is seen.
func joinStream(ctx context.Context, w io.Writer, r io.Reader, write chunkWriter, stop string) error {
	filter := internal.NewStopFilter(stop)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	chunks := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunks++
		fresh, err := write(ctx, scanner.Text())
		if err != nil {
			return err
		}
		out, stopped := filter.Filter(fresh)
		if _, err := io.WriteString(w, out); err != nil {
			return err
		}
		if stopped {
			slog.From(ctx).Debug(`stop found`, `chunks`, chunks)
			_, err = io.WriteString(w, "\n")
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(w, filter.String()+"\n")
	slog.From(ctx).Debug(`stream ended`, `chunks`, chunks)
	return err
}

func requestOverlap(ctx context.Context) error {
	ct, err := nats.New(nil, cf)
	if err != nil {
		return err
	}
	defer ct.Release()
	var result string
	if cfgStart {
		result, err = ct.Start(ctx, cfgLeft, cfgRight)
	} else {
		result, err = ct.Overlap(ctx, cfgLeft, cfgRight)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Printf("%q\n", result)
	return err
}
