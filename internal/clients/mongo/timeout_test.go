package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBoundedContext(t *testing.T) {
	expired, cancelExpired := context.WithCancel(context.Background())
	cancelExpired()
	soon, cancelSoon := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelSoon()

	tests := []struct {
		name       string
		parent     context.Context
		d          time.Duration
		wantParent bool
	}{
		{"no deadline gets one", context.Background(), time.Second, false},
		{"sooner parent deadline wins", soon, time.Minute, true},
		{"done parent passes through", expired, time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := boundedContext(tt.parent, tt.d)
			defer cancel()

			if tt.wantParent {
				assert.Equal(t, tt.parent, ctx)
				return
			}
			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(tt.d), deadline, 100*time.Millisecond)
		})
	}
}

func TestOpContextUsesOpTimeout(t *testing.T) {
	ctx, cancel := opContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(OpTimeout), deadline, 100*time.Millisecond)
}
