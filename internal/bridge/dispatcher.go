package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"
)

// Dispatcher turns inbound messages into responses. It never returns an
// error and never lets a module panic escape: every path ends in exactly one
// Response.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch parses raw and routes it. Input that is not a JSON object answers
// with ParseErrorID. Input that is an object but not a valid message echoes
// its "id" field when that is a non-empty string.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte, call *CallContext) Response {
	msg, err := ParseMessage(raw)
	if err != nil {
		id := recoverID(raw)
		d.logger.Warn("bridge parse failed", "id", id, "err", err)
		return Failure(id, InvalidPayload("%v", err))
	}
	return d.DispatchMessage(ctx, msg, call)
}

func recoverID(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return ParseErrorID
	}
	id := gjson.GetBytes(raw, "id")
	if id.Type != gjson.String || id.Str == "" {
		return ParseErrorID
	}
	return id.Str
}

func (d *Dispatcher) DispatchMessage(ctx context.Context, msg Message, call *CallContext) Response {
	start := time.Now()

	// Captured once; a concurrent re-registration does not affect this call.
	module, ok := d.registry.Module(msg.Module)
	if !ok {
		return d.fail(msg, UnknownModule(msg.Module), start)
	}
	if !Supports(module, msg.Action) {
		return d.fail(msg, UnknownAction(msg.Action), start)
	}

	data, err := d.invoke(ctx, module, msg, call)
	if err != nil {
		var bridgeErr *Error
		if !errors.As(err, &bridgeErr) {
			err = ModuleError(err)
		} else {
			err = bridgeErr
		}
		return d.fail(msg, err, start)
	}
	if _, err := data.MarshalJSON(); err != nil {
		return d.fail(msg, ModuleError(fmt.Errorf("result not encodable: %w", err)), start)
	}

	d.logger.Debug("bridge call",
		"id", msg.ID,
		"module", msg.Module,
		"action", msg.Action,
		"took", time.Since(start),
	)
	return Success(msg.ID, data)
}

func (d *Dispatcher) invoke(
	ctx context.Context,
	module Module,
	msg Message,
	call *CallContext,
) (data Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("bridge module panicked",
				"module", msg.Module,
				"action", msg.Action,
				"panic", r,
			)
			data, err = Value{}, ModuleError(fmt.Errorf("panic: %v", r))
		}
	}()
	return module.Handle(ctx, msg.Action, msg.Payload, call)
}

func (d *Dispatcher) fail(msg Message, err error, start time.Time) Response {
	d.logger.Warn("bridge call failed",
		"id", msg.ID,
		"module", msg.Module,
		"action", msg.Action,
		"took", time.Since(start),
		"err", err,
	)
	return Failure(msg.ID, err)
}
