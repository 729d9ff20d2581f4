package jshost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/config"
	"github.com/arko-chat/pwashell/internal/transport"
)

var ErrClosed = errors.New("jshost: runtime closed")

type Options struct {
	Dispatcher *bridge.Dispatcher
	Config     func() *config.Config
	Logger     *slog.Logger
}

// Runtime is a headless page: a goja VM with the bridge shim installed,
// driven by a single event-loop goroutine. goja is not safe for concurrent
// use, so every touch of the VM goes through the loop.
type Runtime struct {
	vm      *goja.Runtime
	adapter *transport.Adapter
	anchor  *bridge.UIAnchor
	logger  *slog.Logger

	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	title string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = bridge.NewDispatcher(nil, logger)
	}

	r := &Runtime{
		vm:     goja.New(),
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	r.anchor = &bridge.UIAnchor{UI: r}
	r.adapter = transport.NewAdapter(dispatcher, r, transport.Options{
		Config: opts.Config,
		Anchor: r.anchor,
		Logger: logger,
	})

	if err := r.setupGlobals(); err != nil {
		r.adapter.Close()
		return nil, err
	}
	if _, err := r.vm.RunString(transport.InitScript()); err != nil {
		r.adapter.Close()
		return nil, fmt.Errorf("install bridge shim: %w", err)
	}

	r.ctx, r.cancel = context.WithCancel(context.Background())
	go r.loop()
	return r, nil
}

func (r *Runtime) setupGlobals() error {
	vm := r.vm
	if err := vm.Set("window", vm.GlobalObject()); err != nil {
		return err
	}
	vm.Set("require", goja.Undefined())
	vm.Set("process", goja.Undefined())

	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(level, r.consoleFunc(level)); err != nil {
			return err
		}
	}
	vm.Set("console", console)

	vm.Set("__pwashellPost", func(call goja.FunctionCall) goja.Value {
		r.adapter.Receive(call.Argument(0).String())
		return goja.Undefined()
	})

	vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("setTimeout: callback is not a function"))
		}
		delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
		time.AfterFunc(delay, func() {
			r.enqueue(func() {
				if _, err := fn(goja.Undefined()); err != nil {
					r.logger.Warn("js timer failed", "err", err)
				}
			})
		})
		return goja.Undefined()
	})
	return nil
}

func (r *Runtime) consoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")
		switch level {
		case "warn":
			r.logger.Warn("js console", "msg", msg)
		case "error":
			r.logger.Error("js console", "msg", msg)
		case "debug":
			r.logger.Debug("js console", "msg", msg)
		default:
			r.logger.Info("js console", "msg", msg)
		}
		return goja.Undefined()
	}
}

func (r *Runtime) loop() {
	defer close(r.done)
	for {
		r.mu.Lock()
		jobs := r.queue
		r.queue = nil
		r.mu.Unlock()

		for _, job := range jobs {
			job()
		}
		if len(jobs) > 0 {
			continue
		}

		select {
		case <-r.ctx.Done():
			return
		case <-r.wake:
		}
	}
}

func (r *Runtime) enqueue(job func()) {
	r.mu.Lock()
	r.queue = append(r.queue, job)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Eval runs js on the loop without waiting. It makes Runtime a
// transport.Host.
func (r *Runtime) Eval(js string) {
	r.enqueue(func() {
		if _, err := r.vm.RunString(js); err != nil {
			r.logger.Warn("js eval failed", "err", err)
		}
	})
}

// Do runs fn on the loop and waits for it.
func (r *Runtime) Do(ctx context.Context, fn func(vm *goja.Runtime) error) error {
	errc := make(chan error, 1)
	r.enqueue(func() { errc <- fn(r.vm) })

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return ErrClosed
	}
}

// Run evaluates src and exports its completion value.
func (r *Runtime) Run(ctx context.Context, src string) (any, error) {
	var out any
	err := r.Do(ctx, func(vm *goja.Runtime) error {
		v, err := vm.RunString(src)
		if err != nil {
			return err
		}
		out = v.Export()
		return nil
	})
	return out, err
}

type settled struct {
	value any
	err   error
}

// Await evaluates src and, when it yields a promise, waits for it to settle.
// A rejection comes back as an error carrying the rejection message.
func (r *Runtime) Await(ctx context.Context, src string) (any, error) {
	return r.await(ctx, func(vm *goja.Runtime) (goja.Value, error) {
		return vm.RunString(src)
	})
}

// Call is pwashell.call from Go: it goes through the shim, the adapter and
// the dispatcher exactly as a page call would.
func (r *Runtime) Call(ctx context.Context, module, action string, payload any) (any, error) {
	return r.await(ctx, func(vm *goja.Runtime) (goja.Value, error) {
		sdk := vm.Get("pwashell")
		if sdk == nil || goja.IsUndefined(sdk) {
			return nil, errors.New("jshost: bridge shim not installed")
		}
		obj := sdk.ToObject(vm)
		call, ok := goja.AssertFunction(obj.Get("call"))
		if !ok {
			return nil, errors.New("jshost: pwashell.call is not a function")
		}
		return call(obj, vm.ToValue(module), vm.ToValue(action), vm.ToValue(payload))
	})
}

func (r *Runtime) await(ctx context.Context, start func(vm *goja.Runtime) (goja.Value, error)) (any, error) {
	result := make(chan settled, 1)

	err := r.Do(ctx, func(vm *goja.Runtime) error {
		v, err := start(vm)
		if err != nil {
			return err
		}
		p, ok := v.Export().(*goja.Promise)
		if !ok {
			result <- settled{value: v.Export()}
			return nil
		}
		switch p.State() {
		case goja.PromiseStateFulfilled:
			result <- settled{value: p.Result().Export()}
			return nil
		case goja.PromiseStateRejected:
			result <- settled{err: rejection(p.Result())}
			return nil
		}

		obj := v.ToObject(vm)
		then, ok := goja.AssertFunction(obj.Get("then"))
		if !ok {
			return errors.New("jshost: promise without then")
		}
		onFulfilled := vm.ToValue(func(call goja.FunctionCall) goja.Value {
			result <- settled{value: call.Argument(0).Export()}
			return goja.Undefined()
		})
		onRejected := vm.ToValue(func(call goja.FunctionCall) goja.Value {
			result <- settled{err: rejection(call.Argument(0))}
			return goja.Undefined()
		})
		_, err = then(obj, onFulfilled, onRejected)
		return err
	})
	if err != nil {
		return nil, err
	}

	select {
	case s := <-result:
		return s.value, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		return nil, ErrClosed
	}
}

func rejection(reason goja.Value) error {
	if obj, ok := reason.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return errors.New(msg.String())
		}
	}
	return errors.New(reason.String())
}

// Emit sends a native event into the page.
func (r *Runtime) Emit(ev bridge.Event) error {
	return r.adapter.Emit(ev)
}

// Reload simulates a page navigation: pending calls from the old page are
// abandoned and the shim is reinstalled on a clean bridge object.
func (r *Runtime) Reload(ctx context.Context) error {
	r.adapter.PageWillLoad()
	return r.Do(ctx, func(vm *goja.Runtime) error {
		vm.Set("__pwashell", goja.Undefined())
		_, err := vm.RunString(transport.InitScript())
		return err
	})
}

func (r *Runtime) SetTitle(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.title = title
}

func (r *Runtime) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

// Close stops the loop and cancels every running bridge call.
func (r *Runtime) Close() {
	r.adapter.Close()
	r.cancel()
	<-r.done
}
