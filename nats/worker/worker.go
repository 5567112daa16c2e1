// Package worker implements a NATS-based worker that finds overlaps and joins streams on behalf of clients.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/pbnjay/memory"
	"github.com/swdunlop/overlap-go"
	"github.com/swdunlop/overlap-go/configuration"
	"github.com/swdunlop/overlap-go/internal/slog"
	"github.com/swdunlop/overlap-go/join"
	"github.com/swdunlop/overlap-go/nats/internal"
	msg "github.com/swdunlop/overlap-go/nats/protocol"
	"golang.org/x/text/unicode/norm"
)

// Run will run a NATS-based worker with the provided configuration until ctx is cancelled.
func Run(ctx context.Context, cf configuration.Interface, options ...Option) error {
	slog.From(ctx).Debug(`starting worker`)
	var w worker
	w.options = Options{
		WorkerSubject: "overlap.worker.default",
		Window:        join.DefaultWindow,
		MinOverlap:    1,
	}
	w.dial = internal.Defaults("overlap-worker")
	err := configuration.Unmarshal(&w.options, cf)
	if err != nil {
		return err
	}
	err = configuration.Unmarshal(&w.dial, cf)
	if err != nil {
		return err
	}
	for _, opt := range options {
		opt(&w)
		if w.err != nil {
			return w.err
		}
	}
	if w.options.MaxSessions <= 0 {
		w.options.MaxSessions = DefaultMaxSessions(w.options.Window)
	}
	w.find, err = overlap.Lookup(w.options.Finder)
	if err != nil {
		return err
	}
	if effective, err := configuration.Marshal(&w.options); err == nil {
		slog.From(ctx).Debug(`worker options`, `options`, effective)
	}
	w.sessions, err = newSessions(w.options.MaxSessions)
	if err != nil {
		return err
	}

	if w.conn == nil {
		w.conn, err = w.dial.Dial()
		if err != nil {
			return err
		}
		defer w.conn.Close()
	}

	ch := make(chan *nats.Msg, 64)
	slog.From(ctx).Debug(`subscribing to worker subject`, `subject`, w.options.WorkerSubject)
	sub, err := w.conn.ChanQueueSubscribe(w.options.WorkerSubject, "overlap-worker", ch)
	if err != nil {
		return err
	}
	err = w.conn.Flush()
	if err == nil {
		if w.ready != nil {
			w.ready()
		}
		w.run(ctx, ch)
	}
	if err := sub.Unsubscribe(); err != nil {
		slog.Warn(`failed to unsubscribe from worker subject`, `subject`, w.options.WorkerSubject, `err`, err.Error())
	}
	w.drain(ctx, ch)
	return err
}

// DefaultMaxSessions returns the number of sessions a worker will retain if MaxSessions is not configured, allowing
// sessions with full windows to use about one percent of the host's memory.
func DefaultMaxSessions(window int) int {
	if window <= 0 {
		window = join.DefaultWindow
	}
	total := memory.TotalMemory()
	if total == 0 {
		return 1024 // unknown platform.
	}
	n := total / 100 / uint64(window)
	switch {
	case n < 16:
		return 16
	case n > 1<<20:
		return 1 << 20
	}
	return int(n)
}

// Options describes the configuration options for a NATS-based worker.  Connection settings are read separately, see
// the nats_url, nats_client_name, nats_nk and nats_ca items.
type Options struct {
	// WorkerSubject is the NATS subject to subscribe to, defaults to overlap.worker.default.
	WorkerSubject string `cfg:"worker_subject"`

	// Finder names the overlap finder used for requests that do not name one, defaults to the scan finder.
	Finder string `cfg:"overlap_finder"`

	// Window is the number of bytes retained for each join session, defaults to join.DefaultWindow.
	Window int `cfg:"join_window"`

	// MinOverlap is the shortest overlap recognized by join sessions, defaults to 1.
	MinOverlap int `cfg:"join_min_overlap"`

	// NFC normalizes the chunks of every join session to Unicode NFC.  Clients may also ask for it per session.
	NFC bool `cfg:"join_nfc"`

	// MaxSessions limits the number of join sessions; the least recently used session is forgotten when a new one
	// would exceed it.  Defaults to DefaultMaxSessions.
	MaxSessions int `cfg:"max_sessions"`
}

type worker struct {
	options  Options
	dial     internal.Options
	hooks    []func(ctx context.Context, req *msg.Request) error
	conn     *nats.Conn
	find     overlap.Finder
	sessions *sessions
	ready    func()
	err      error // used by options to indicate a fatal error.
}

func (w *worker) run(ctx context.Context, ch chan *nats.Msg) {
	for {
		select {
		case <-ctx.Done():
			return
		case nm := <-ch:
			if ctx.Err() != nil {
				w.refuse(ctx, nm)
				continue
			}
			w.process(ctx, nm)
		}
	}
}

// drain refuses the requests that were delivered but not handled before the worker stopped.
func (w *worker) drain(ctx context.Context, ch chan *nats.Msg) {
	for {
		select {
		case nm := <-ch:
			w.refuse(ctx, nm)
		default:
			return
		}
	}
}

func (w *worker) refuse(ctx context.Context, nm *nats.Msg) {
	var req msg.Request
	_ = json.Unmarshal(nm.Data, &req)
	w.reject(ctx, nm.Reply, req.Job, msg.ErrShuttingDown, `worker is shutting down`)
}

// process handles one request; requests are handled in order, so sessions need no locking.
func (w *worker) process(ctx context.Context, nm *nats.Msg) {
	var req msg.Request
	err := json.Unmarshal(nm.Data, &req)
	switch {
	case err != nil:
		w.reject(ctx, nm.Reply, ``, msg.ErrIllegibleRequest, err.Error())
		return
	case req.Job == "":
		w.reject(ctx, nm.Reply, ``, msg.ErrInvalidRequest, "job id is required")
		return
	}
	ctx = slog.With(ctx, `job`, req.Job)

	for _, hook := range w.hooks {
		err := hook(ctx, &req)
		var e msg.Error
		switch {
		case err == nil:
			continue
		case errors.As(err, &e):
			w.reject(ctx, nm.Reply, req.Job, e.Code, e.Err)
		default:
			w.reject(ctx, nm.Reply, req.Job, msg.ErrHookFailed, err.Error())
		}
		return
	}

	switch {
	case req.Overlap != nil:
		w.overlap(ctx, nm.Reply, req.Job, req.Overlap)
	case req.Join != nil:
		w.join(ctx, nm.Reply, req.Job, req.Join)
	case req.Reset != nil:
		w.reset(ctx, nm.Reply, req.Job, req.Reset)
	default:
		w.reject(ctx, nm.Reply, req.Job, msg.ErrUnsupportedCommand, "command not supported")
	}
}

func (w *worker) overlap(ctx context.Context, reply, job string, req *msg.OverlapRequest) {
	find := w.find
	if req.Finder != `` {
		var err error
		find, err = overlap.Lookup(req.Finder)
		if err != nil {
			w.reject(ctx, reply, job, msg.ErrUnknownFinder, err.Error())
			return
		}
	}
	var rsp msg.OverlapResponse
	switch req.Direction {
	case ``, msg.DirectionEnd:
		rsp.Offset = find(req.Left, req.Right)
		rsp.Overlap = req.Left[rsp.Offset:]
	case msg.DirectionStart:
		n := len(req.Right) - find(req.Right, req.Left)
		rsp.Overlap = req.Left[:n]
	default:
		w.reject(ctx, reply, job, msg.ErrInvalidRequest, fmt.Sprintf(`unknown direction %q`, req.Direction))
		return
	}
	slog.From(ctx).Debug(`found overlap`, `direction`, req.Direction, `size`, len(rsp.Overlap))
	_ = w.respond(ctx, reply, &msg.Response{Job: job, Overlap: &rsp})
}

func (w *worker) join(ctx context.Context, reply, job string, req *msg.JoinRequest) {
	if req.Session == `` {
		w.reject(ctx, reply, job, msg.ErrInvalidRequest, `session id is required`)
		return
	}
	j, evicted, err := w.sessions.get(req.Session, func() (*join.Joiner, error) {
		return w.newJoiner(req.Options)
	})
	var e msg.Error
	switch {
	case err == nil:
	case errors.As(err, &e):
		w.reject(ctx, reply, job, e.Code, e.Err)
		return
	default:
		w.reject(ctx, reply, job, msg.ErrInvalidRequest, err.Error())
		return
	}
	if evicted != `` {
		slog.From(ctx).Info(`forgot least recently used session`, `session`, evicted)
	}
	fresh := j.Write(req.Chunk)
	slog.From(ctx).Debug(`joined chunk`, `session`, req.Session, `chunk`, len(req.Chunk), `fresh`, len(fresh))
	_ = w.respond(ctx, reply, &msg.Response{Job: job, Join: &msg.JoinResponse{Fresh: fresh}})
}

// newJoiner creates the joiner for a new session, applying the options the client asked for.  A requested window
// larger than the worker's is lowered to it.
func (w *worker) newJoiner(opts *msg.JoinOptions) (*join.Joiner, error) {
	window, minOverlap, nfc, find := w.options.Window, w.options.MinOverlap, w.options.NFC, w.find
	if opts != nil {
		if opts.Window > 0 && (window <= 0 || opts.Window < window) {
			window = opts.Window
		}
		if opts.MinOverlap > 0 {
			minOverlap = opts.MinOverlap
		}
		nfc = nfc || opts.NFC
		if opts.Finder != `` {
			var err error
			find, err = overlap.Lookup(opts.Finder)
			if err != nil {
				return nil, msg.Error{Code: msg.ErrUnknownFinder, Err: err.Error()}
			}
		}
	}
	options := []join.Option{join.Window(window), join.MinOverlap(minOverlap), join.Finder(find)}
	if nfc {
		options = append(options, join.Normalize(norm.NFC))
	}
	return join.New(options...), nil
}

func (w *worker) reset(ctx context.Context, reply, job string, req *msg.ResetRequest) {
	existed := w.sessions.remove(req.Session)
	_ = w.respond(ctx, reply, &msg.Response{Job: job, Reset: &msg.ResetResponse{Existed: existed}})
}

func (w *worker) reject(ctx context.Context, reply, job string, code int, message string) {
	slog.From(ctx).Warn(`rejecting request`, `code`, code, `error`, message)
	_ = w.respond(ctx, reply, &msg.Response{
		Job: job,
		Error: &msg.Error{
			Code: code,
			Err:  message,
		},
	})
}

func (w *worker) respond(ctx context.Context, subject string, resp *msg.Response) error {
	if subject == `` {
		return nil // published without a reply subject, nobody is listening.
	}
	data, err := json.Marshal(resp)
	if err != nil {
		panic(err)
	}
	err = w.conn.Publish(subject, data)
	if err != nil {
		slog.From(ctx).Error(`failed to publish response`, `subject`, subject, `err`, err)
	}
	return err
}

// An Option is a function that alters a worker's behavior.
type Option func(*worker)

// A Hook is a function that is called before a request is handled, allowing it to alter or refuse the request.
// Returning a msg.Error rejects the request with its code; any other error is reported as msg.ErrHookFailed.
func Hook(hook func(ctx context.Context, req *msg.Request) error) Option {
	return func(w *worker) { w.hooks = append(w.hooks, hook) }
}

// Conn sets the NATS connection to use for getting requests and publishing responses.  This is an alternative to
// letting the worker manage its own connection.
func Conn(conn *nats.Conn) Option {
	return func(w *worker) {
		if w.conn != nil {
			w.err = errors.New("only one NATS connection is used by a worker")
		}
		w.conn = conn
	}
}

// Ready sets a function that is called once the worker is subscribed and requests will be received.
func Ready(fn func()) Option {
	return func(w *worker) { w.ready = fn }
}
