package warehouse

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"network timeout", timeoutErr{}, ErrUnreachable},
		{"context deadline", context.DeadlineExceeded, ErrUnreachable},
		{"sql rejection", errors.New(`relation "orders" already exists`), ErrExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			// The original cause stays readable in the message.
			assert.Contains(t, got.Error(), tt.err.Error())
		})
	}
}

func TestConnectRejectsBadURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Connect(ctx, "://not-a-url")
	assert.Error(t, err)
}
