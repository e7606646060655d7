package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

type responseError struct{ code int }

func (e *responseError) Error() string   { return fmt.Sprintf("%d, message=''", e.code) }
func (e *responseError) StatusCode() int { return e.code }

func TestClassify(t *testing.T) {
	refused := &url.Error{
		Op:  "Post",
		URL: "http://127.0.0.1:8080/test_request",
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
	}

	tests := []struct {
		name        string
		err         error
		ctx         Context
		wantCode    int
		wantMessage string
	}{
		{
			name:        "connection refused",
			err:         refused,
			ctx:         Context{IP: "127.0.0.1", Port: 8080, Operation: "test_request"},
			wantCode:    503,
			wantMessage: "Service unavailable at 127.0.0.1:8080/test_request",
		},
		{
			name:        "timeout",
			err:         context.DeadlineExceeded,
			ctx:         Context{Timeout: 5},
			wantCode:    408,
			wantMessage: "Request timeout after 5 seconds",
		},
		{
			name:        "fractional timeout",
			err:         fmt.Errorf("post: %w", context.DeadlineExceeded),
			ctx:         Context{Timeout: 0.05},
			wantCode:    408,
			wantMessage: "Request timeout after 0.05 seconds",
		},
		{
			name:        "response error",
			err:         &responseError{code: 404},
			wantCode:    404,
			wantMessage: "Client response error: 404, message=''",
		},
		{
			name:        "payload",
			err:         fmt.Errorf("%w: unexpected end of JSON input", ErrPayload),
			wantCode:    400,
			wantMessage: "Payload error: malformed response body: unexpected end of JSON input",
		},
		{
			name:        "server disconnected",
			err:         &url.Error{Op: "Post", URL: "http://10.0.0.1:1/X", Err: io.EOF},
			wantCode:    503,
			wantMessage: `Service disconnected: Post "http://10.0.0.1:1/X": EOF`,
		},
		{
			name:        "client",
			err:         fmt.Errorf("%w: session closed", ErrClient),
			wantCode:    500,
			wantMessage: "Client error: request not sent: session closed",
		},
		{
			name:        "unknown",
			err:         errors.New("Unknown error"),
			wantCode:    422,
			wantMessage: "Failed to parse response: Unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, tt.ctx)
			require.Equal(t, tt.wantCode, got.Code)
			require.Equal(t, tt.wantMessage, got.Message)

			// Classification has no side effects.
			require.Equal(t, got, Classify(tt.err, tt.ctx))
		})
	}
}

func TestCategorizeTimeoutBeforeConnection(t *testing.T) {
	dialTimeout := &net.OpError{Op: "dial", Net: "tcp", Err: os.ErrDeadlineExceeded}
	require.Equal(t, Timeout, Categorize(dialTimeout))

	dns := &net.DNSError{Err: "no such host", Name: "axon.invalid"}
	require.Equal(t, Connection, Categorize(dns))

	require.Equal(t, Unknown, Categorize(nil))
}

func TestCustomTable(t *testing.T) {
	entries := map[Category]Entry{Timeout: {Code: 504, Message: "Gateway timeout"}}
	table := NewTable(entries, Entry{Code: 500, Message: "Internal"})

	// The table owns its copy of the entries.
	entries[Timeout] = Entry{Code: 1, Message: "changed"}

	got := table.Classify(context.DeadlineExceeded, Context{Timeout: 3})
	require.Equal(t, Status{Code: 504, Message: "Gateway timeout after 3 seconds"}, got)

	got = table.Classify(&responseError{code: 404}, Context{})
	require.Equal(t, 500, got.Code)

	require.Equal(t, Status{Code: 500, Message: "Internal"}, table.Classify(nil, Context{}))
}
