package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/config"
)

// Host is the one primitive a web view has to offer: evaluate a script in
// the page. Implementations must be safe to call from any goroutine.
type Host interface {
	Eval(js string)
}

type HostFunc func(js string)

func (f HostFunc) Eval(js string) { f(js) }

type Options struct {
	// Config returns the snapshot handed to each call.
	Config func() *config.Config
	// Anchor is held weakly.
	Anchor *bridge.UIAnchor
	Logger *slog.Logger
}

type page struct {
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

type call struct {
	id  string
	gen uint64
}

// Adapter connects a Host to a Dispatcher. Each inbound message is
// dispatched on its own goroutine; responses go back in completion order,
// not request order.
type Adapter struct {
	dispatcher *bridge.Dispatcher
	host       Host
	config     func() *config.Config
	anchor     weak.Pointer[bridge.UIAnchor]
	logger     *slog.Logger

	root     context.Context
	stop     context.CancelFunc
	page     atomic.Pointer[page]
	seq      atomic.Uint64
	inflight *xsync.Map[uint64, call]
	ids      *xsync.Map[string, int]

	// mu orders wg.Add in Receive against wg.Wait in Close.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewAdapter(dispatcher *bridge.Dispatcher, host Host, opts Options) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		dispatcher: dispatcher,
		host:       host,
		config:     opts.Config,
		logger:     logger,
		inflight:   xsync.NewMap[uint64, call](),
		ids:        xsync.NewMap[string, int](),
	}
	if opts.Anchor != nil {
		a.anchor = weak.Make(opts.Anchor)
	}
	a.root, a.stop = context.WithCancel(context.Background())
	a.PageWillLoad()
	return a
}

// Receive accepts a message as posted by the page: a JSON string, raw bytes,
// or an already decoded object graph from the host's JS bridge.
func (a *Adapter) Receive(raw any) {
	data, err := toJSON(raw)
	if err != nil {
		a.deliver(bridge.Failure(bridge.ParseErrorID, bridge.InvalidPayload("%v", err)))
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		a.logger.Debug("bridge message after close dropped")
		return
	}

	p := a.page.Load()
	seq := a.seq.Add(1)
	id := bridge.ParseErrorID
	if msg, err := bridge.ParseMessage(data); err == nil {
		id = msg.ID
		a.track(seq, call{id: id, gen: p.gen})
	}

	a.wg.Go(func() {
		defer a.untrack(seq)

		resp := a.dispatcher.Dispatch(p.ctx, data, a.callContext())
		if cur := a.page.Load(); p.ctx.Err() != nil || cur.gen != p.gen {
			a.logger.Debug("bridge response dropped, page gone", "id", resp.ID, "gen", p.gen)
			return
		}
		a.deliver(resp)
	})
}

// Emit pushes an event to the page. It satisfies bridge.EventSink.
func (a *Adapter) Emit(ev bridge.Event) error {
	js, err := FormatEvent(ev)
	if err != nil {
		return err
	}
	a.host.Eval(js)
	return nil
}

// PageWillLoad starts a new page generation. Calls made by the previous page
// are cancelled and their responses dropped, since the callbacks waiting for
// them are gone.
func (a *Adapter) PageWillLoad() {
	ctx, cancel := context.WithCancel(a.root)
	next := &page{ctx: ctx, cancel: cancel}
	for {
		old := a.page.Load()
		if old != nil {
			next.gen = old.gen + 1
		}
		if a.page.CompareAndSwap(old, next) {
			if old != nil {
				old.cancel()
			}
			return
		}
	}
}

// InFlight is the number of calls still running.
func (a *Adapter) InFlight() int {
	return a.inflight.Size()
}

// Wait blocks until every dispatched call has finished.
func (a *Adapter) Wait() {
	a.wg.Wait()
}

// Close cancels every running call and waits for them to return. Messages
// received afterwards are dropped.
func (a *Adapter) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	a.stop()
	a.wg.Wait()
}

func (a *Adapter) callContext() *bridge.CallContext {
	var cfg *config.Config
	if a.config != nil {
		cfg = a.config()
	}
	return bridge.NewCallContext(cfg, a, a.anchor.Value())
}

func (a *Adapter) deliver(resp bridge.Response) {
	js, err := FormatResponse(resp)
	if err != nil {
		a.logger.Error("bridge response encode failed", "id", resp.ID, "err", err)
		js, _ = FormatResponse(bridge.Failure(resp.ID, bridge.ModuleError(err)))
	}
	a.host.Eval(js)
}

func (a *Adapter) track(seq uint64, c call) {
	a.inflight.Store(seq, c)
	n, _ := a.ids.Compute(c.id, func(n int, _ bool) (int, xsync.ComputeOp) {
		return n + 1, xsync.UpdateOp
	})
	if n > 1 {
		a.logger.Warn("bridge call id reused while in flight", "id", c.id, "count", n)
	}
}

func (a *Adapter) untrack(seq uint64) {
	c, ok := a.inflight.LoadAndDelete(seq)
	if !ok {
		return
	}
	a.ids.Compute(c.id, func(n int, loaded bool) (int, xsync.ComputeOp) {
		if !loaded || n <= 1 {
			return 0, xsync.DeleteOp
		}
		return n - 1, xsync.UpdateOp
	})
}

func toJSON(raw any) ([]byte, error) {
	switch v := raw.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	case nil:
		return []byte("null"), nil
	}
	return json.Marshal(raw)
}
