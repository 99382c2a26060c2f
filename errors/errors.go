// Package errors provides the structured error taxonomy and logging hooks
// used throughout the handshake message core: DecodeError, InvalidArgument,
// InvalidState, and PolicyRejection, each carrying the fatal alert code the
// state machine should translate it into.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
)

const trim = len("github.com/nullmacro/tls12hs/")

// Severity levels for logging. Lower value = higher severity.
type Severity int32

const (
	SeverityUnknown Severity = 0
	SeverityError   Severity = 1
	SeverityWarning Severity = 2
	SeverityInfo    Severity = 3
	SeverityDebug   Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "Error"
	case SeverityWarning:
		return "Warning"
	case SeverityInfo:
		return "Info"
	case SeverityDebug:
		return "Debug"
	default:
		return "Unknown"
	}
}

// Kind classifies an Error per the taxonomy the handshake message layer
// surfaces to its caller. The state machine maps Kind to a fatal alert via
// Error.Alert.
type Kind int

const (
	// KindNone marks errors with no classification (produced outside this
	// package, or not yet classified).
	KindNone Kind = iota
	// KindDecode covers malformed bytes: truncation, inconsistent length
	// prefixes, duplicate extension codes, trailing bytes, and similar.
	KindDecode
	// KindInvalidArgument covers programmer misuse of the construction API,
	// e.g. adding a duplicate extension outbound.
	KindInvalidArgument
	// KindInvalidState covers an attempt to serialize a message or
	// extension that is not in a state that supports it.
	KindInvalidState
	// KindPolicyRejection covers a policy refusal of a peer-offered value
	// (ciphersuite, group, scheme, version, key).
	KindPolicyRejection
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "DecodeError"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindInvalidState:
		return "InvalidState"
	case KindPolicyRejection:
		return "PolicyRejection"
	default:
		return "Error"
	}
}

// Alert is a TLS alert description code (RFC 5246 §7.2.2).
type Alert uint8

const (
	AlertNone               Alert = 0
	AlertHandshakeFailure   Alert = 40
	AlertDecodeError        Alert = 50
	AlertInsufficientSecty  Alert = 71
	AlertInternalError      Alert = 80
)

func (a Alert) String() string {
	switch a {
	case AlertHandshakeFailure:
		return "handshake_failure"
	case AlertDecodeError:
		return "decode_error"
	case AlertInsufficientSecty:
		return "insufficient_security"
	case AlertInternalError:
		return "internal_error"
	default:
		return "none"
	}
}

// globalLogLevel stores the current log level for cheap early-exit checks.
var globalLogLevel atomic.Int32

// logWriter is the output destination for logs (default: stderr)
var logWriter atomic.Value

// logCallback allows external packages to intercept log messages.
// Stored as func(Severity, string) or nil.
var logCallback atomic.Value

func init() {
	globalLogLevel.Store(int32(SeverityWarning))
	logWriter.Store(io.Writer(os.Stderr))
}

// SetLogCallback registers a callback that receives all log messages.
// Pass nil to disable the callback and revert to stderr logging.
func SetLogCallback(cb func(Severity, string)) {
	if cb == nil {
		logCallback.Store((func(Severity, string))(nil))
	} else {
		logCallback.Store(cb)
	}
}

// SetLogLevel sets the minimum severity level for logging.
func SetLogLevel(s Severity) {
	globalLogLevel.Store(int32(s))
}

// GetLogLevel returns the current log level.
func GetLogLevel() Severity {
	return Severity(globalLogLevel.Load())
}

// SetLogWriter sets the output writer for logs.
func SetLogWriter(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logWriter.Store(w)
}

// ShouldLog returns true if messages at the given severity should be logged.
func ShouldLog(severity Severity) bool {
	return severity <= Severity(globalLogLevel.Load())
}

type hasInnerError interface {
	Unwrap() error
}

type hasSeverity interface {
	Severity() Severity
}

// Error is a structured error with context, chaining, a Kind classification
// and the fatal alert it maps to.
type Error struct {
	prefix   []interface{}
	message  []interface{}
	caller   string
	inner    error
	severity Severity
	kind     Kind
	alert    Alert
}

func (err *Error) Error() string {
	var b strings.Builder
	for _, p := range err.prefix {
		b.WriteByte('[')
		b.WriteString(fmt.Sprint(p))
		b.WriteString("] ")
	}
	if err.kind != KindNone {
		b.WriteString(err.kind.String())
		b.WriteString(": ")
	}
	if len(err.caller) > 0 {
		b.WriteString(err.caller)
		b.WriteString(": ")
	}
	b.WriteString(fmt.Sprint(err.message...))
	if err.inner != nil {
		b.WriteString(" > ")
		b.WriteString(err.inner.Error())
	}
	return b.String()
}

// Unwrap implements hasInnerError.Unwrap()
func (err *Error) Unwrap() error {
	return err.inner
}

// Base sets the inner error.
func (err *Error) Base(e error) *Error {
	err.inner = e
	return err
}

func (err *Error) atSeverity(s Severity) *Error {
	err.severity = s
	return err
}

// Severity returns the error's severity, preferring a more severe inner
// error's severity over this error's own.
func (err *Error) Severity() Severity {
	if err.inner == nil {
		return err.severity
	}
	if s, ok := err.inner.(hasSeverity); ok {
		if as := s.Severity(); as < err.severity {
			return as
		}
	}
	return err.severity
}

func (err *Error) AtDebug() *Error   { return err.atSeverity(SeverityDebug) }
func (err *Error) AtInfo() *Error    { return err.atSeverity(SeverityInfo) }
func (err *Error) AtWarning() *Error { return err.atSeverity(SeverityWarning) }
func (err *Error) AtError() *Error   { return err.atSeverity(SeverityError) }

// Kind returns the error's classification.
func (err *Error) Kind() Kind { return err.kind }

// Alert returns the fatal alert this error should surface as, or AlertNone
// if it was never classified.
func (err *Error) Alert() Alert { return err.alert }

func (err *Error) String() string { return err.Error() }

func newAt(kind Kind, alert Alert, severity Severity, msg ...interface{}) *Error {
	pc, _, _, _ := runtime.Caller(2)
	details := runtime.FuncForPC(pc).Name()
	if len(details) >= trim {
		details = details[trim:]
	}
	return &Error{
		message:  msg,
		severity: severity,
		caller:   details,
		kind:     kind,
		alert:    alert,
	}
}

// New returns a new, unclassified error object. Kept for compatibility with
// plain diagnostic messages that aren't part of the Kind taxonomy.
func New(msg ...interface{}) *Error {
	e := newAt(KindNone, AlertNone, SeverityInfo, msg...)
	return e
}

// DecodeErrorf builds a KindDecode error, alert decode_error. Decode errors
// are expected to happen under adversarial input, so they log at Debug
// rather than Error.
func DecodeErrorf(format string, args ...interface{}) *Error {
	e := newAt(KindDecode, AlertDecodeError, SeverityDebug, fmt.Sprintf(format, args...))
	if ShouldLog(SeverityDebug) {
		logMessage(SeverityDebug, e.Error())
	}
	return e
}

// InvalidArgumentf builds a KindInvalidArgument error: programmer misuse of
// the construction API (e.g. adding a duplicate extension).
func InvalidArgumentf(format string, args ...interface{}) *Error {
	return newAt(KindInvalidArgument, AlertNone, SeverityError, fmt.Sprintf(format, args...))
}

// InvalidStatef builds a KindInvalidState error: an operation was attempted
// on a message or extension that is not in a state that supports it.
func InvalidStatef(format string, args ...interface{}) *Error {
	return newAt(KindInvalidState, AlertInternalError, SeverityError, fmt.Sprintf(format, args...))
}

// PolicyRejectionf builds a KindPolicyRejection error carrying the alert the
// state machine should send (handshake_failure or insufficient_security).
func PolicyRejectionf(alert Alert, format string, args ...interface{}) *Error {
	return newAt(KindPolicyRejection, alert, SeverityInfo, fmt.Sprintf(format, args...))
}

// IsDecodeError reports whether err (or something it wraps) is a KindDecode
// Error.
func IsDecodeError(err error) bool { return kindIs(err, KindDecode) }

// IsInvalidArgument reports whether err is a KindInvalidArgument Error.
func IsInvalidArgument(err error) bool { return kindIs(err, KindInvalidArgument) }

// IsInvalidState reports whether err is a KindInvalidState Error.
func IsInvalidState(err error) bool { return kindIs(err, KindInvalidState) }

// IsPolicyRejection reports whether err is a KindPolicyRejection Error.
func IsPolicyRejection(err error) bool { return kindIs(err, KindPolicyRejection) }

func kindIs(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.kind == kind
	}
	return false
}

// LogDebug logs a debug message.
func LogDebug(ctx context.Context, msg ...interface{}) {
	if !DebugLoggingEnabled || !ShouldLog(SeverityDebug) {
		return
	}
	doLog(ctx, nil, SeverityDebug, msg...)
}

// LogInfo logs an info message.
func LogInfo(ctx context.Context, msg ...interface{}) {
	if !ShouldLog(SeverityInfo) {
		return
	}
	doLog(ctx, nil, SeverityInfo, msg...)
}

// LogWarning logs a warning message.
func LogWarning(ctx context.Context, msg ...interface{}) {
	if !ShouldLog(SeverityWarning) {
		return
	}
	doLog(ctx, nil, SeverityWarning, msg...)
}

// LogError logs an error message.
func LogError(ctx context.Context, msg ...interface{}) {
	if !ShouldLog(SeverityError) {
		return
	}
	doLog(ctx, nil, SeverityError, msg...)
}

func doLog(ctx context.Context, inner error, severity Severity, msg ...interface{}) {
	pc, _, _, _ := runtime.Caller(2)
	details := runtime.FuncForPC(pc).Name()
	if len(details) >= trim {
		details = details[trim:]
	}

	err := &Error{
		message:  msg,
		severity: severity,
		caller:   details,
		inner:    inner,
	}

	if ctx != nil && ctx != context.Background() {
		if id := IDFromContext(ctx); id > 0 {
			err.prefix = append(err.prefix, uint32(id))
		}
	}

	logMessage(severity, err.Error())
}

func logMessage(severity Severity, formatted string) {
	if cb := logCallback.Load(); cb != nil {
		if callback, ok := cb.(func(Severity, string)); ok && callback != nil {
			callback(severity, formatted)
			return
		}
	}
	w := logWriter.Load().(io.Writer)
	fmt.Fprintf(w, "[%s] %s\n", severity.String(), formatted)
}

// SessionKey is the context key type for the connection ID.
type SessionKey int

// ID identifies a handshake instance for log correlation.
type ID uint32

const idSessionKey SessionKey = 0

// ContextWithID returns a context with the connection ID attached.
func ContextWithID(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, idSessionKey, id)
}

// IDFromContext extracts the connection ID from context.
func IDFromContext(ctx context.Context) ID {
	if ctx == nil {
		return 0
	}
	if id, ok := ctx.Value(idSessionKey).(ID); ok {
		return id
	}
	return 0
}

// Cause returns the root cause of err by unwrapping the error chain.
func Cause(err error) error {
	if err == nil {
		return nil
	}
	for {
		var innerErr hasInnerError
		if stderrors.As(err, &innerErr) {
			unwrapped := innerErr.Unwrap()
			if unwrapped == nil {
				break
			}
			err = unwrapped
		} else {
			break
		}
	}
	return err
}
