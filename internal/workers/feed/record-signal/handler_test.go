// internal/workers/feed/record-signal/handler_test.go
package recordsignal

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/go-redis/redismock/v9"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"opportunity-engine/internal/common/aws"
	"opportunity-engine/internal/common/camunda"
	"opportunity-engine/internal/common/config"
	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/logger"
	"opportunity-engine/internal/engine"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, signal aws.Signal) error {
	args := m.Called(ctx, signal)
	return args.Error(0)
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func createTestService(t *testing.T, rdb redis.Cmdable, publisher aws.SignalPublisher) *Service {
	return NewService(ServiceDependencies{
		Logger:    logger.NewTestLogger(t),
		Redis:     rdb,
		Publisher: publisher,
		Now:       func() time.Time { return testNow },
	}, DefaultConfig())
}

func dwell(v float64) *float64 { return &v }

// ==========================
// Refresh signals
// ==========================

func TestService_RecordRefresh(t *testing.T) {
	mr, rdb := setupRedis(t)
	mr.Set("feed:page:user-1:00000000000000aa", "{}")
	mr.Set("feed:page:user-1:00000000000000bb", "{}")
	mr.Set("feed:page:user-2:00000000000000cc", "{}")

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(s aws.Signal) bool {
		return s.Kind == "feed.refresh" && s.UserID == "user-1" && s.Payload["feedContext"] == engine.FeedExplore
	})).Return(nil).Once()

	svc := createTestService(t, rdb, publisher)
	out, err := svc.Record(context.Background(), &Input{
		SignalType:  SignalRefresh,
		UserID:      "user-1",
		FeedContext: engine.FeedExplore,
	})
	require.NoError(t, err)

	assert.Equal(t, "recorded", out.Status)
	assert.NotEmpty(t, out.SignalID)
	assert.Equal(t, SignalRefresh, out.SignalType)
	assert.Equal(t, engine.FeedExplore, out.FeedContext)
	assert.Equal(t, 2, out.InvalidatedPages)
	assert.True(t, out.Published)
	assert.Equal(t, testNow, out.RecordedAt)

	assert.False(t, mr.Exists("feed:page:user-1:00000000000000aa"))
	assert.True(t, mr.Exists("feed:page:user-2:00000000000000cc"))
	assert.Equal(t, "1", mr.HGet(SignalsKey("user-1"), "refresh"))
	assert.Equal(t, "1", mr.HGet(SignalsKey("user-1"), "refresh:explore"))

	history, err := mr.List(HistoryKey("user-1"))
	require.NoError(t, err)
	require.Len(t, history, 1)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(history[0]), &entry))
	assert.Equal(t, out.SignalID, entry["signalId"])
	assert.Equal(t, "explore", entry["feedContext"])

	publisher.AssertExpectations(t)
}

func TestService_Record_RefreshDefaultsToHome(t *testing.T) {
	mr, rdb := setupRedis(t)
	svc := createTestService(t, rdb, nil)

	out, err := svc.Record(context.Background(), &Input{SignalType: SignalRefresh, UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, engine.FeedHome, out.FeedContext)
	assert.False(t, out.Published)
	assert.Equal(t, 0, out.InvalidatedPages)
	assert.Equal(t, "1", mr.HGet(SignalsKey("user-1"), "refresh:home"))
}

// ==========================
// Engagement signals
// ==========================

func TestService_RecordEngagement(t *testing.T) {
	mr, rdb := setupRedis(t)
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(s aws.Signal) bool {
		return s.Kind == "feed.engagement" && s.Payload["itemId"] == "item-9" && s.Payload["dwellSeconds"] == 12.5
	})).Return(nil).Twice()

	svc := createTestService(t, rdb, publisher)
	input := &Input{
		SignalType:     SignalEngagement,
		UserID:         "user-1",
		ItemID:         "item-9",
		EngagementType: EngagementDwell,
		DwellSeconds:   dwell(12.5),
	}

	for i := 0; i < 2; i++ {
		out, err := svc.Record(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, SignalEngagement, out.SignalType)
		assert.Equal(t, "item-9", out.ItemID)
		assert.Equal(t, EngagementDwell, out.EngagementType)
		assert.True(t, out.Published)
	}

	assert.Equal(t, "2", mr.HGet(SignalsKey("user-1"), "engagement:dwell"))
	assert.Equal(t, "2", mr.HGet(ItemKey("item-9"), "dwell"))
	assert.Equal(t, "25", mr.HGet(ItemKey("item-9"), "dwell_seconds"))

	history, err := mr.List(HistoryKey("user-1"))
	require.NoError(t, err)
	assert.Len(t, history, 2)
	publisher.AssertExpectations(t)
}

func TestService_Record_InvalidInput(t *testing.T) {
	svc := createTestService(t, nil, nil)

	tests := []struct {
		name  string
		input *Input
	}{
		{"nil input", nil},
		{"missing signal type", &Input{UserID: "user-1"}},
		{"unknown signal type", &Input{SignalType: "scroll", UserID: "user-1"}},
		{"missing user", &Input{SignalType: SignalRefresh}},
		{"bad feed context", &Input{SignalType: SignalRefresh, UserID: "user-1", FeedContext: "inbox"}},
		{"engagement without item", &Input{SignalType: SignalEngagement, UserID: "user-1", EngagementType: EngagementLike}},
		{"unknown engagement", &Input{SignalType: SignalEngagement, UserID: "user-1", ItemID: "i", EngagementType: "save"}},
		{"negative dwell", &Input{SignalType: SignalEngagement, UserID: "user-1", ItemID: "i", EngagementType: EngagementDwell, DwellSeconds: dwell(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
		})
	}
}

// ==========================
// Failure handling
// ==========================

func TestService_Record_PublishFailureIsNotFatal(t *testing.T) {
	mr, rdb := setupRedis(t)
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(stderrors.New("sns down"))

	svc := createTestService(t, rdb, publisher)
	out, err := svc.Record(context.Background(), &Input{
		SignalType: SignalEngagement, UserID: "user-1", ItemID: "item-1", EngagementType: EngagementLike,
	})
	require.NoError(t, err)
	assert.False(t, out.Published)
	assert.Equal(t, "1", mr.HGet(ItemKey("item-1"), "like"))
}

func TestService_Record_RedisFailure(t *testing.T) {
	mr, rdb := setupRedis(t)
	svc := createTestService(t, rdb, nil)
	mr.Close()

	_, err := svc.Record(context.Background(), &Input{SignalType: SignalRefresh, UserID: "user-1"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSignalRecordFailed))
}

func TestService_Record_WithoutRedis(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	svc := createTestService(t, nil, publisher)
	out, err := svc.Record(context.Background(), &Input{SignalType: SignalRefresh, UserID: "user-1"})
	require.NoError(t, err)
	assert.True(t, out.Published)
	assert.Equal(t, 0, out.InvalidatedPages)
	publisher.AssertExpectations(t)
}

// ==========================
// History
// ==========================

func TestService_HistoryIsCapped(t *testing.T) {
	_, rdb := setupRedis(t)
	cfg := DefaultConfig()
	cfg.HistoryLimit = 2
	svc := NewService(ServiceDependencies{Logger: logger.NewTestLogger(t), Redis: rdb}, cfg)

	var last string
	for _, ctx := range []engine.FeedContext{engine.FeedHome, engine.FeedExplore, engine.FeedLearning} {
		out, err := svc.RecordRefresh(context.Background(), &RefreshInput{UserID: "user-1", FeedContext: ctx})
		require.NoError(t, err)
		last = out.SignalID
	}

	history, err := svc.History(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	var newest historyEntry
	require.NoError(t, json.Unmarshal(history[0], &newest))
	assert.Equal(t, last, newest.SignalID)
	assert.Equal(t, engine.FeedLearning, newest.FeedContext)
}

func TestService_History_RedisError(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	redisMock.ExpectLRange(HistoryKey("user-1"), 0, 9).SetErr(stderrors.New("connection refused"))

	svc := createTestService(t, rdb, nil)
	_, err := svc.History(context.Background(), "user-1", 10)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheUnavailable))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

// ==========================
// Job decoding
// ==========================

func TestHandler_DecodeVariables(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantCode  errors.ErrorCode
	}{
		{"valid refresh", `{"signalType":"refresh","userId":"u1","feedContext":"social"}`, ""},
		{"valid engagement", `{"signalType":"engagement","userId":"u1","itemId":"i1","engagementType":"share"}`, ""},
		{"missing user", `{"signalType":"refresh"}`, errors.ErrCodeInvalidInput},
		{"bad engagement type", `{"signalType":"engagement","userId":"u1","engagementType":"save"}`, errors.ErrCodeInvalidInput},
		{"malformed", `{"signalType":`, errors.ErrCodeParseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Variables: tt.variables}}
			var input Input
			err := camunda.DecodeVariables(job, GetInputSchema(), &input)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "u1", input.UserID)
				return
			}
			assert.True(t, errors.IsCode(err, tt.wantCode))
		})
	}
}

func TestHandler_Metadata(t *testing.T) {
	svc := createTestService(t, nil, nil)
	h := NewHandler(DefaultConfig(), svc, logger.NewTestLogger(t))

	assert.Equal(t, "record-feed-signal", h.TaskType())
	assert.True(t, h.IsEnabled())
	assert.Equal(t, 10, h.Options().MaxJobsActive)
}

// ==========================
// Config
// ==========================

func TestNewConfig(t *testing.T) {
	app := &config.Config{
		Workers: map[string]config.WorkerConfig{
			TaskType: {Enabled: true, MaxJobsActive: 4, Timeout: 2000},
		},
		Feed: config.FeedConfig{SignalHistory: 50},
	}

	cfg := NewConfig(app)
	assert.Equal(t, 4, cfg.MaxJobsActive)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.NoError(t, cfg.Validate())

	cfg.HistoryLimit = 0
	assert.Error(t, cfg.Validate())
}
