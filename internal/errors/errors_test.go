package errors

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(EUsage, "test message")
	assert.Equal(t, "E_USAGE: test message", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(ERoleNotFound, "Role with name %s does not exist.", "WebRole")
	assert.Equal(t, "E_ROLE_NOT_FOUND: Role with name WebRole does not exist.", err.Error())
	assert.Equal(t, "Role with name WebRole does not exist.", Message(err))
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(EIOFailure, "wrapped message", cause)

	assert.Equal(t, "E_IO_FAILURE: wrapped message", err.Error())

	var ce *CodedError
	require.True(t, errors.As(err, &ce))
	assert.Same(t, cause, ce.Cause)
	assert.True(t, errors.Is(err, cause))
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil error", nil, ""},
		{"coded error", New(EUsage, "x"), EUsage},
		{"wrapped coded error", Wrap(EDocumentMalformed, "y", errors.New("z")), EDocumentMalformed},
		{"coded error behind fmt wrap", wrapPlain(New(EAlreadyEnabled, "x")), EAlreadyEnabled},
		{"plain error", errors.New("plain"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "bad args", Message(New(EUsage, "bad args")))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"E_USAGE", New(EUsage, "x"), 2},
		{"E_ROLE_NOT_FOUND", New(ERoleNotFound, "x"), 1},
		{"plain error", errors.New("x"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestPrint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"E_USAGE", New(EUsage, "bad args"), "error_code: E_USAGE\nbad args\n"},
		{"E_ALREADY_ENABLED", New(EAlreadyEnabled, "memcache has already been enabled for WebRole."),
			"error_code: E_ALREADY_ENABLED\nmemcache has already been enabled for WebRole.\n"},
		{"plain error", errors.New("boom"), "boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Print(&buf, tt.err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestNewWithDetails_CopiesMap(t *testing.T) {
	details := map[string]string{"key": "value"}
	err := NewWithDetails(EUsage, "test", details)
	details["key"] = "modified"

	ce, ok := AsCodedError(err)
	require.True(t, ok)
	assert.Equal(t, "value", ce.Details["key"])
}

func TestNewWithDetails_NilDetails(t *testing.T) {
	ce, ok := AsCodedError(NewWithDetails(EUsage, "test", map[string]string{}))
	require.True(t, ok)
	assert.Nil(t, ce.Details)
}

func TestWrapWithDetails(t *testing.T) {
	cause := errors.New("underlying")
	err := WrapWithDetails(EInternal, "internal error", cause, map[string]string{"step": "Load"})

	ce, ok := AsCodedError(err)
	require.True(t, ok)
	assert.Same(t, cause, ce.Cause)
	assert.Equal(t, "Load", ce.Details["step"])
}

func TestAsCodedError(t *testing.T) {
	_, ok := AsCodedError(errors.New("regular error"))
	assert.False(t, ok)

	ce, ok := AsCodedError(nil)
	assert.False(t, ok)
	assert.Nil(t, ce)
}

type plainWrapper struct{ inner error }

func (p plainWrapper) Error() string { return "wrapped: " + p.inner.Error() }
func (p plainWrapper) Unwrap() error { return p.inner }

func wrapPlain(err error) error { return plainWrapper{inner: err} }
