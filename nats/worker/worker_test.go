package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/swdunlop/overlap-go"
	msg "github.com/swdunlop/overlap-go/nats/protocol"
)

func TestShuttingDown(t *testing.T) {
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	srv := natsserver.RunServer(&opts)
	defer srv.Shutdown()
	conn, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	inbox := nats.NewInbox()
	replies, err := conn.SubscribeSync(inbox)
	if err != nil {
		t.Fatal(err)
	}

	ch := make(chan *nats.Msg, 2)
	for _, job := range []string{`j1`, `j2`} {
		data, _ := json.Marshal(&msg.Request{Job: job, Overlap: &msg.OverlapRequest{Left: `abc`, Right: `bcd`}})
		ch <- &nats.Msg{Subject: `overlap.worker.default`, Reply: inbox, Data: data}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &worker{conn: conn, find: overlap.Index}
	w.run(ctx, ch)
	w.drain(ctx, ch)

	for _, job := range []string{`j1`, `j2`} {
		nm, err := replies.NextMsg(5 * time.Second)
		if err != nil {
			t.Fatal(err)
		}
		var rsp msg.Response
		if err := json.Unmarshal(nm.Data, &rsp); err != nil {
			t.Fatal(err)
		}
		if rsp.Job != job || rsp.Error == nil || rsp.Error.Code != msg.ErrShuttingDown {
			t.Errorf(`expected %v to be refused with ErrShuttingDown, got %s`, job, nm.Data)
		}
	}
}

func TestNewJoiner(t *testing.T) {
	w := &worker{options: Options{Window: 64, MinOverlap: 1}, find: overlap.Index}

	j, err := w.newJoiner(&msg.JoinOptions{Window: 16, MinOverlap: 3, NFC: true, Finder: `kmp`})
	if err != nil {
		t.Fatal(err)
	}
	j.Write("caf\u00e9 au lait")
	if got := j.Write("cafe\u0301 au lait!"); got != "!" {
		t.Errorf(`expected a normalized chunk to overlap, got %q`, got)
	}
	j.Write(`0123456789abcdef0123`)
	if got := j.Tail(); len(got) > 16 {
		t.Errorf(`expected the requested window, got %q`, got)
	}

	j, err = w.newJoiner(nil)
	if err != nil {
		t.Fatal(err)
	}
	j.Write(`abc`)
	if got := j.Write(`cde`); got != `de` {
		t.Errorf(`expected the worker's minimum overlap, got %q`, got)
	}

	small := &worker{options: Options{Window: 8, MinOverlap: 1}, find: overlap.Index}
	j, err = small.newJoiner(&msg.JoinOptions{Window: 64})
	if err != nil {
		t.Fatal(err)
	}
	j.Write(`0123456789abcdef`)
	if got := j.Tail(); len(got) > 8 {
		t.Errorf(`expected the window to stay at the worker's limit, got %q`, got)
	}

	_, err = w.newJoiner(&msg.JoinOptions{Finder: `bogus`})
	var e msg.Error
	if !errors.As(err, &e) || e.Code != msg.ErrUnknownFinder {
		t.Errorf(`expected ErrUnknownFinder, got %v`, err)
	}
}
