package errors

import sterrors "errors"

var (
	ErrConfigRequired     = sterrors.New("sigtap: configuration is required")
	ErrLoggerRequired     = sterrors.New("sigtap: logger is required")
	ErrBackendRequired    = sterrors.New("sigtap: interception backend is required")
	ErrScannerRequired    = sterrors.New("sigtap: graph scanner is required")
	ErrRootsRequired      = sterrors.New("sigtap: root provider is required")
	ErrSubscriberRequired = sterrors.New("sigtap: kind subscriber is required")
	ErrBusTargetRequired  = sterrors.New("sigtap: a target bus type name or accept predicate is required")
	ErrKindRequired       = sterrors.New("sigtap: event kind is required")
	ErrCallbackRequired   = sterrors.New("sigtap: callback is required")
	ErrHookRequired       = sterrors.New("sigtap: at least one hook is required")
	ErrPublisherRequired  = sterrors.New("sigtap: publisher is required")
	ErrTopicRequired      = sterrors.New("sigtap: relay topic is required")

	ErrAlreadyInitialized = sterrors.New("sigtap: engine is already initialized")

	// ErrJoinPointUnresolved marks a join point the backend could not bind.
	// Routine: the engine logs it and continues with reduced coverage.
	ErrJoinPointUnresolved = sterrors.New("sigtap: join point could not be resolved")

	// ErrMarshalIncompatible marks a payload shape that cannot cross the
	// dispatch boundary. Routine: it triggers the low-level fallback path.
	ErrMarshalIncompatible = sterrors.New("sigtap: payload cannot cross the dispatch boundary")

	// ErrNodeInaccessible marks a single graph node whose read failed.
	// The scan continues past it.
	ErrNodeInaccessible = sterrors.New("sigtap: graph node read failed")

	ErrUnknownToggle = sterrors.New("sigtap: unknown toggle")
	ErrUnknownDump   = sterrors.New("sigtap: unknown dump trigger")
)

// ConfigValidationError wraps validation failures so callers can detect the
// category with errors.As while errors.Is still reaches the underlying cause.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "sigtap: invalid configuration: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError wraps err, returning nil when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}

// marshalIncompatibility is implemented by host-side errors that signal a
// payload shape unable to cross the dispatch boundary, without the host
// importing this package.
type marshalIncompatibility interface {
	MarshalIncompatible() bool
}

// IsMarshalIncompatible reports whether err represents a marshal
// incompatibility, either via the sentinel or via the
// MarshalIncompatible() bool interface.
func IsMarshalIncompatible(err error) bool {
	if err == nil {
		return false
	}
	if sterrors.Is(err, ErrMarshalIncompatible) {
		return true
	}
	var mi marshalIncompatibility
	if sterrors.As(err, &mi) {
		return mi.MarshalIncompatible()
	}
	return false
}
