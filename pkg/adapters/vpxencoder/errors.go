package vpxencoder

import (
	"errors"
	"fmt"

	"github.com/user/vpxenc/pkg/ports"
)

// StatusCode classifies encoder failures.
type StatusCode int

const (
	CodeOK StatusCode = iota
	CodeInitializeTwice
	CodeInitializeNeverCompleted
	CodeUnsupportedProfile
	CodeUnsupportedConfig
	CodeInitializationError
	CodeFailedEncode
	CodeClosed
)

var (
	// ErrInitializeTwice is returned by a second Initialize call.
	ErrInitializeTwice = errors.New("vpxencoder: encoder already initialized")

	// ErrInitializeNeverCompleted is returned when an operation needs a
	// successfully initialized encoder.
	ErrInitializeNeverCompleted = errors.New("vpxencoder: initialization never completed")

	// ErrUnsupportedProfile is returned for profiles the encoder cannot produce.
	ErrUnsupportedProfile = errors.New("vpxencoder: unsupported profile")

	// ErrUnsupportedConfig is returned for invalid or unreachable configurations.
	ErrUnsupportedConfig = errors.New("vpxencoder: unsupported configuration")

	// ErrInitialization is returned when libvpx fails to set up the encoder.
	ErrInitialization = errors.New("vpxencoder: initialization error")

	// ErrFailedEncode is returned when a frame cannot be encoded.
	ErrFailedEncode = errors.New("vpxencoder: encode failed")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("vpxencoder: encoder closed")
)

var codeErrors = map[StatusCode]error{
	CodeInitializeTwice:          ErrInitializeTwice,
	CodeInitializeNeverCompleted: ErrInitializeNeverCompleted,
	CodeUnsupportedProfile:       ErrUnsupportedProfile,
	CodeUnsupportedConfig:        ErrUnsupportedConfig,
	CodeInitializationError:      ErrInitialization,
	CodeFailedEncode:             ErrFailedEncode,
	CodeClosed:                   ErrClosed,
}

func (c StatusCode) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInitializeTwice:
		return "initialize twice"
	case CodeInitializeNeverCompleted:
		return "initialize never completed"
	case CodeUnsupportedProfile:
		return "unsupported profile"
	case CodeUnsupportedConfig:
		return "unsupported config"
	case CodeInitializationError:
		return "initialization error"
	case CodeFailedEncode:
		return "failed encode"
	case CodeClosed:
		return "closed"
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Status is the structured error returned by every Encoder operation.
// It matches the package sentinel for its code with errors.Is.
type Status struct {
	Code    StatusCode
	Message string

	// VpxCode is the native libvpx error code, 0 when none applies.
	VpxCode int

	cause error
}

func newStatus(code StatusCode, format string, args ...interface{}) *Status {
	return &Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

// withCause attaches the underlying error and lifts a native libvpx code
// out of it when present.
func (s *Status) withCause(err error) *Status {
	s.cause = err
	var vpxErr *ports.VpxError
	if errors.As(err, &vpxErr) {
		s.VpxCode = vpxErr.Code
	}
	return s
}

func (s *Status) Error() string {
	msg := fmt.Sprintf("vpxencoder: %s", s.Code)
	if s.Message != "" {
		msg += ": " + s.Message
	}
	if s.VpxCode != 0 {
		msg += fmt.Sprintf(" (vpx error %d)", s.VpxCode)
	}
	return msg
}

// Is reports whether target is the sentinel for this status code.
func (s *Status) Is(target error) bool {
	return codeErrors[s.Code] == target
}

func (s *Status) Unwrap() error {
	return s.cause
}
