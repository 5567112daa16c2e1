// Package nats provides a client for the overlap worker, which finds overlaps and joins streams on behalf of many
// clients.  This is useful when producers of a stream are spread across machines, but the stream must be joined in
// one place.
package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nuid"
	"github.com/swdunlop/overlap-go/configuration"
	"github.com/swdunlop/overlap-go/internal/slog"
	"github.com/swdunlop/overlap-go/nats/internal"
	msg "github.com/swdunlop/overlap-go/nats/protocol"
)

// New creates a new NATS client using the provided NATS connection and configuration.  If conn is nil, a connection
// is made using the nats_url, nats_client_name, nats_nk and nats_ca items, and closed by Release.  The configuration
// should specify `worker_subject` to identify the worker that will be used to perform requests, otherwise
// overlap.worker.default will be used.
func New(conn *nats.Conn, cf configuration.Interface) (*Client, error) {
	ct := new(Client)
	ct.options = ClientOptions{
		WorkerSubject: "overlap.worker.default",
	}
	err := configuration.Unmarshal(&ct.options, cf)
	if err != nil {
		return nil, err
	}
	ct.conn = conn
	if ct.conn == nil {
		dial := internal.Defaults("overlap-client")
		err = configuration.Unmarshal(&dial, cf)
		if err != nil {
			return nil, err
		}
		ct.conn, err = dial.Dial(nats.ErrorHandler(ct.handleNatsError))
		if err != nil {
			return nil, err
		}
		ct.release = ct.conn.Close
	}
	return ct, nil
}

// A Client sends requests to an overlap worker.  A Client is safe for concurrent use.
type Client struct {
	options ClientOptions
	conn    *nats.Conn
	release func() // used if New opened the connection
}

func (ct *Client) handleNatsError(conn *nats.Conn, sub *nats.Subscription, err error) {
	if sub == nil {
		slog.Error(`nats error`, `error`, err)
		return
	}
	slog.Error(`nats error`, `error`, err, `subject`, sub.Subject)
}

// Overlap returns the largest suffix of left that is also a prefix of right, as found by the worker.
func (ct *Client) Overlap(ctx context.Context, left, right string) (string, error) {
	rsp, err := ct.Find(ctx, &msg.OverlapRequest{Left: left, Right: right})
	if err != nil {
		return ``, err
	}
	return rsp.Overlap, nil
}

// Start returns the largest prefix of self that is also a suffix of other, as found by the worker.
func (ct *Client) Start(ctx context.Context, self, other string) (string, error) {
	rsp, err := ct.Find(ctx, &msg.OverlapRequest{Left: self, Right: other, Direction: msg.DirectionStart})
	if err != nil {
		return ``, err
	}
	return rsp.Overlap, nil
}

// Find sends an overlap request to the worker.
func (ct *Client) Find(ctx context.Context, req *msg.OverlapRequest) (*msg.OverlapResponse, error) {
	ret, err := ct.request(ctx, &msg.Request{Overlap: req})
	if err != nil {
		return nil, err
	}
	if ret.Overlap == nil {
		return nil, fmt.Errorf(`worker did not return an overlap`)
	}
	return ret.Overlap, nil
}

// NewSession returns a new, unique session id for use with Join.
func (ct *Client) NewSession() string { return nuid.Next() }

// Join sends a chunk of the session's stream to the worker and returns the part of it that did not repeat the
// stream.
func (ct *Client) Join(ctx context.Context, session, chunk string) (string, error) {
	return ct.JoinWith(ctx, &msg.JoinRequest{Session: session, Chunk: chunk})
}

// JoinWith sends a join request to the worker; its Options configure the session if the request creates it.
func (ct *Client) JoinWith(ctx context.Context, req *msg.JoinRequest) (string, error) {
	ret, err := ct.request(ctx, &msg.Request{Join: req})
	if err != nil {
		return ``, err
	}
	if ret.Join == nil {
		return ``, fmt.Errorf(`worker did not return a join`)
	}
	return ret.Join.Fresh, nil
}

// Reset asks the worker to forget a session, returning true if the worker knew it.
func (ct *Client) Reset(ctx context.Context, session string) (bool, error) {
	ret, err := ct.request(ctx, &msg.Request{Reset: &msg.ResetRequest{Session: session}})
	if err != nil {
		return false, err
	}
	if ret.Reset == nil {
		return false, fmt.Errorf(`worker did not return a reset`)
	}
	return ret.Reset.Existed, nil
}

func (ct *Client) request(ctx context.Context, req *msg.Request) (*msg.Response, error) {
	req.Job = nuid.Next()
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	slog.From(ctx).Debug(`sending request`, `subject`, ct.options.WorkerSubject, `job`, req.Job)
	nm, err := ct.conn.RequestWithContext(ctx, ct.options.WorkerSubject, data)
	if err != nil {
		return nil, err
	}
	var ret msg.Response
	err = json.Unmarshal(nm.Data, &ret)
	if err != nil {
		return nil, err
	}
	if ret.Error != nil {
		return nil, *ret.Error
	}
	if ret.Job != req.Job {
		return nil, fmt.Errorf(`worker answered job %q, expected %q`, ret.Job, req.Job)
	}
	return &ret, nil
}

// Release closes the NATS connection if New opened it.  (This happens when New is called with a nil connection.)
func (ct *Client) Release() {
	if ct.release != nil {
		ct.release()
	}
	ct.conn = nil
}

// ClientOptions describes the options used to create a NATS client.  This is unmarshalled from the configuration
// provided to New.
type ClientOptions struct {
	// WorkerSubject identifies the NATS subject where requests should be sent.  This defaults to
	// `overlap.worker.default`, which matches the worker's default WorkerSubject.
	WorkerSubject string `cfg:"worker_subject"`
}
