package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	var syntaxErr error = json.Unmarshal([]byte("{"), &struct{}{})

	tests := []struct {
		name string
		err  error
		kind ErrorKind
		code int
	}{
		{"cancelled", context.Canceled, KindCancelled, 0},
		{"wrapped cancel", fmt.Errorf("fetch movies: %w", context.Canceled), KindCancelled, 0},
		{"cancel inside url error", &url.Error{Op: "Get", URL: "http://x", Err: context.Canceled}, KindCancelled, 0},
		{"offline", fmt.Errorf("%w: dial tcp", ErrServerOffline), KindNetworkUnreachable, 0},
		{"deadline", context.DeadlineExceeded, KindNetworkUnreachable, 0},
		{"op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, KindNetworkUnreachable, 0},
		{"status", &StatusError{Code: 500}, KindBadStatus, 500},
		{"wrapped status", fmt.Errorf("movies: %w", &StatusError{Code: 401}), KindBadStatus, 401},
		{"decode", &DecodeError{Err: errors.New("bad json")}, KindDecodingFailed, 0},
		{"raw json", syntaxErr, KindDecodingFailed, 0},
		{"unknown", errors.New("boom"), KindUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.code, got.Code)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
	assert.False(t, IsCancelled(nil))
}

func TestClassifyIsIdempotent(t *testing.T) {
	first := Classify(&StatusError{Code: 503})
	second := Classify(fmt.Errorf("again: %w", first))
	assert.Same(t, first, second)
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(context.Canceled))
	assert.False(t, IsCancelled(&StatusError{Code: 500}))
}

func TestErrorMessages(t *testing.T) {
	unauthorized := Classify(&StatusError{Code: 401})
	assert.Equal(t, "instance returned status 401", unauthorized.Error())
	assert.Equal(t, "Check the instance API key.", unauthorized.RecoverySuggestion())

	server := Classify(&StatusError{Code: 500})
	assert.Equal(t, "Invalid Status Code", server.Title())
	assert.Contains(t, server.RecoverySuggestion(), "internal error")

	decode := Classify(&DecodeError{Err: errors.New("unexpected EOF")})
	assert.Equal(t, "invalid server response: unexpected EOF", decode.Error())

	offline := Classify(ErrServerOffline)
	assert.Equal(t, "Instance Not Reachable", offline.Title())
}
