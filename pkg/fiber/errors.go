package fiber

import (
	"errors"
	"fmt"

	ferrors "github.com/vango-dev/reconciler/internal/errors"
)

// Sentinel errors. Every error the runtime returns or panics with wraps one
// of these.
var (
	// ErrHookOrderViolation means a component called a different sequence
	// of hooks than on its previous render.
	ErrHookOrderViolation = errors.New("fiber: hook order violation")

	// ErrInvalidPrimitiveCall means a hook was called with no render in
	// progress, or from a goroutine other than the rendering one.
	ErrInvalidPrimitiveCall = errors.New("fiber: hook called outside of render")

	// ErrEffectExecutionFailure means an effect setup or teardown panicked.
	ErrEffectExecutionFailure = errors.New("fiber: effect execution failed")

	// ErrTooManyRerenders means a component kept updating its own state
	// while rendering.
	ErrTooManyRerenders = errors.New("fiber: too many re-renders")

	// ErrRenderPanic means a render function panicked.
	ErrRenderPanic = errors.New("fiber: render panicked")

	// ErrUpdateStorm means the commit budget was exceeded.
	ErrUpdateStorm = errors.New("fiber: update storm")

	// ErrRootUnmounted is returned by operations on an unmounted root.
	ErrRootUnmounted = errors.New("fiber: root unmounted")

	// ErrReentrantFlush means Flush was called from inside a render, a
	// commit or an effect.
	ErrReentrantFlush = errors.New("fiber: flush called while rendering or committing")
)

// Error is the structured error type carried by runtime errors. Use
// errors.As to inspect code, unit and detail.
type Error = ferrors.Error

func hookOrderViolation(format string, args ...any) *Error {
	return ferrors.New("R101").WithDetailf(format, args...).Wrap(ErrHookOrderViolation)
}

func invalidPrimitiveCall(detail string) *Error {
	return ferrors.New("R102").WithDetail(detail).Wrap(ErrInvalidPrimitiveCall)
}

func tooManyRerenders(unit string, limit int) *Error {
	return ferrors.New("R103").
		WithUnit(unit).
		WithDetailf("render-phase updates did not settle after %d re-renders", limit).
		Wrap(ErrTooManyRerenders)
}

func renderPanic(unit string, rec any) *Error {
	e := ferrors.New("R104").WithUnit(unit).WithDetailf("%v", rec)
	if err, ok := rec.(error); ok {
		return e.Wrap(fmt.Errorf("%w: %w", ErrRenderPanic, err))
	}
	return e.Wrap(ErrRenderPanic)
}

func rootUnmounted() *Error {
	return ferrors.New("R105").Wrap(ErrRootUnmounted)
}

func updateStorm(detail string) *Error {
	return ferrors.New("R106").WithDetail(detail).Wrap(ErrUpdateStorm)
}

func effectFailure(unit, phase, step string, rec any) *Error {
	e := ferrors.New("R107").WithUnit(unit).WithDetailf("%s %s: %v", phase, step, rec)
	if err, ok := rec.(error); ok {
		return e.Wrap(fmt.Errorf("%w: %w", ErrEffectExecutionFailure, err))
	}
	return e.Wrap(ErrEffectExecutionFailure)
}

func reentrantFlush() *Error {
	return ferrors.New("R108").Wrap(ErrReentrantFlush)
}

// misuse reports whether a recovered panic value is a hook misuse error
// raised by this package.
func misuse(rec any) (*Error, bool) {
	e, ok := rec.(*Error)
	if !ok {
		return nil, false
	}
	if errors.Is(e, ErrHookOrderViolation) || errors.Is(e, ErrInvalidPrimitiveCall) {
		return e, true
	}
	return nil, false
}
