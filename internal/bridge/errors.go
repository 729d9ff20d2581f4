package bridge

import "fmt"

// ErrorKind classifies failures produced by the dispatch layer.
type ErrorKind int

const (
	KindUnknownModule ErrorKind = iota + 1
	KindUnknownAction
	KindInvalidPayload
	KindModuleError
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnknownModule:
		return "unknown_module"
	case KindUnknownAction:
		return "unknown_action"
	case KindInvalidPayload:
		return "invalid_payload"
	case KindModuleError:
		return "module_error"
	}
	return "unknown"
}

// Error is the failure taxonomy of the bridge. Its message is what the web
// content receives in the response's error field.
type Error struct {
	Kind   ErrorKind
	Name   string
	Reason string
	Err    error
}

var (
	ErrUnknownModule  = &Error{Kind: KindUnknownModule}
	ErrUnknownAction  = &Error{Kind: KindUnknownAction}
	ErrInvalidPayload = &Error{Kind: KindInvalidPayload}
	ErrModule         = &Error{Kind: KindModuleError}
)

func UnknownModule(name string) error {
	return &Error{Kind: KindUnknownModule, Name: name}
}

func UnknownAction(name string) error {
	return &Error{Kind: KindUnknownAction, Name: name}
}

func InvalidPayload(format string, args ...any) error {
	return &Error{Kind: KindInvalidPayload, Reason: fmt.Sprintf(format, args...)}
}

func ModuleError(err error) error {
	return &Error{Kind: KindModuleError, Err: err}
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnknownModule:
		return "Unknown module: " + e.Name
	case KindUnknownAction:
		return "Unknown action: " + e.Name
	case KindInvalidPayload:
		return "Invalid payload: " + e.Reason
	case KindModuleError:
		if e.Err == nil {
			return "Module error"
		}
		return "Module error: " + e.Err.Error()
	}
	return "bridge error"
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrUnknownAction)
// works regardless of the action name.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
