package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValueIsNoOp(t *testing.T) {
	var o *Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		o.RecordOperation(ctx, "rank", "success", time.Millisecond)
		o.RecordJobProcessed(ctx, "rank-candidates", "completed")
		o.RecordJobDuration(ctx, "rank-candidates", time.Millisecond, "completed")
	})
	assert.NoError(t, o.Shutdown(ctx))

	empty := &Observability{}
	assert.NotPanics(t, func() {
		empty.RecordOperation(ctx, "rank", "success", time.Millisecond)
	})
}

func TestNew_RecordsAndShutsDown(t *testing.T) {
	o, err := New("opportunity-engine-test")
	require.NoError(t, err)
	require.NotNil(t, o)

	ctx, span := StartSpan(context.Background(), "test.operation")
	o.RecordOperation(ctx, "feed.generate", Status(nil), 3*time.Millisecond)
	o.RecordJobProcessed(ctx, "generate-feed", "completed")
	span.End()

	assert.NoError(t, o.Shutdown(context.Background()))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "success", Status(nil))
	assert.Equal(t, "error", Status(errors.New("boom")))
}
