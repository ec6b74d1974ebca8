package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "connection refused", err: errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), retryable: true},
		{name: "timeout", err: errors.New("i/o timeout"), retryable: true},
		{name: "reset by peer", err: errors.New("read: connection reset by peer"), retryable: true},
		{name: "constraint violation", err: errors.New("null value in column \"host\""), retryable: false},
		{name: "syntax error", err: errors.New("syntax error at or near \"FORM\""), retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableError(tt.err))
		})
	}
}
