// internal/workers/predictors/safety-score/handler_test.go
package safetyscore

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"opportunity-engine/internal/common/aws"
	"opportunity-engine/internal/common/camunda"
	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/logger"
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

func createTestService(t *testing.T, rdb redis.Cmdable, publisher aws.SignalPublisher) *Service {
	return NewService(ServiceDependencies{
		Logger:    logger.NewTestLogger(t),
		Redis:     rdb,
		Publisher: publisher,
		Now:       func() time.Time { return testNow },
	}, DefaultConfig())
}

func rate(v float64) *float64 { return &v }

// ==========================
// Calculate
// ==========================

func TestService_Calculate(t *testing.T) {
	tests := []struct {
		name            string
		profile         Profile
		wantScore       float64
		wantLevel       RiskLevel
		wantComponents  map[string]float64
		wantFactors     []string
		wantMitigations int
	}{
		{
			name:      "established account with no history",
			profile:   Profile{UserID: "u1", AccountAgeDays: 30},
			wantScore: 57,
			wantLevel: RiskMedium,
			wantComponents: map[string]float64{
				ComponentVerification: 30, ComponentBehavior: 70, ComponentCommunity: 50, ComponentContent: 80,
			},
			wantFactors:     []string{},
			wantMitigations: 2,
		},
		{
			name: "verified veteran",
			profile: Profile{
				UserID: "u2", AccountAgeDays: 365, IsVerified: true, VerificationLevel: 2,
				MessageResponseRate: rate(0.8), TotalInteractions: 10, PositiveInteractions: 9,
				ContentApproved: 12,
			},
			wantScore: 89,
			wantLevel: RiskLow,
			wantComponents: map[string]float64{
				ComponentVerification: 100, ComponentBehavior: 70, ComponentCommunity: 100, ComponentContent: 90,
			},
			wantFactors:     []string{},
			wantMitigations: 0,
		},
		{
			name: "new account with reports and flags",
			profile: Profile{
				UserID: "u3", AccountAgeDays: 3, ReportsReceived: 5, BlocksReceived: 3,
				ContentFlags: 4, TotalInteractions: 10, PositiveInteractions: 2,
			},
			wantScore: 24,
			wantLevel: RiskHigh,
			wantComponents: map[string]float64{
				ComponentVerification: 10, ComponentBehavior: 15, ComponentCommunity: 44, ComponentContent: 30,
			},
			wantFactors:     []string{"new_account", "reports_received", "multiple_blocks", "content_flags"},
			wantMitigations: 3,
		},
	}

	svc := createTestService(t, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := tt.profile
			out, err := svc.Calculate(context.Background(), &profile)
			require.NoError(t, err)

			assert.InDelta(t, tt.wantScore, out.SafetyScore, 0.05)
			assert.Equal(t, tt.wantLevel, out.RiskLevel)
			for name, want := range tt.wantComponents {
				assert.InDelta(t, want, out.Components[name], 0.05, name)
			}

			factors := make([]string, len(out.RiskFactors))
			for i, f := range out.RiskFactors {
				factors[i] = f.Factor
			}
			assert.Equal(t, tt.wantFactors, factors)
			assert.Len(t, out.Mitigations, tt.wantMitigations)
			assert.Equal(t, 0.85, out.Confidence)
			assert.Equal(t, testNow.Add(24*time.Hour), out.ValidUntil)
			assert.Equal(t, AlgorithmVersion, out.AlgorithmVersion)
		})
	}
}

func TestService_Calculate_ReportSeverity(t *testing.T) {
	svc := createTestService(t, nil, nil)

	out, err := svc.Calculate(context.Background(), &Profile{UserID: "u1", AccountAgeDays: 30, ReportsReceived: 2})
	require.NoError(t, err)
	require.Len(t, out.RiskFactors, 1)
	assert.Equal(t, RiskFactor{Factor: "reports_received", Severity: "medium", Count: 2}, out.RiskFactors[0])
	assert.InDelta(t, 50.0, out.Components[ComponentBehavior], 0.01)
}

func TestService_Calculate_CustomSignals(t *testing.T) {
	svc := createTestService(t, nil, nil)

	out, err := svc.Calculate(context.Background(), &Profile{
		UserID:         "u1",
		AccountAgeDays: 30,
		CustomSignals: []SafetySignal{
			{SignalType: SignalVerification, SignalName: "phone", Value: 1, Confidence: rate(0.5)},
			{SignalType: SignalBehavioral, SignalName: "spam_report", Value: -1},
			{SignalType: SignalContent, SignalName: "ignored", Value: 1},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 35.0, out.Components[ComponentVerification], 0.01)
	assert.InDelta(t, 60.0, out.Components[ComponentBehavior], 0.01)
	assert.InDelta(t, 80.0, out.Components[ComponentContent], 0.01)
}

func TestService_Calculate_InvalidInput(t *testing.T) {
	svc := createTestService(t, nil, nil)

	tests := []struct {
		name    string
		profile *Profile
	}{
		{"nil profile", nil},
		{"missing user", &Profile{AccountAgeDays: 1}},
		{"verification level too high", &Profile{UserID: "u", VerificationLevel: 4}},
		{"negative reports", &Profile{UserID: "u", ReportsReceived: -1}},
		{"positive above total", &Profile{UserID: "u", TotalInteractions: 1, PositiveInteractions: 2}},
		{"signal value out of range", &Profile{UserID: "u", CustomSignals: []SafetySignal{
			{SignalType: SignalBehavioral, SignalName: "x", Value: 2},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Calculate(context.Background(), tt.profile)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
		})
	}
}

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{100, RiskLow},
		{70, RiskLow},
		{69.9, RiskMedium},
		{40, RiskMedium},
		{39.9, RiskHigh},
		{20, RiskHigh},
		{19.9, RiskCritical},
		{0, RiskCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevelFor(tt.score), tt.score)
	}
}

// ==========================
// Interactions and moderation
// ==========================

func TestService_EvaluateInteraction(t *testing.T) {
	svc := createTestService(t, nil, nil)

	tests := []struct {
		interaction  string
		wantRisk     float64
		wantLevel    RiskLevel
		wantWarnings int
		wantRecs     int
		wantSafe     bool
		wantVerify   bool
	}{
		{"message", 20, RiskLow, 0, 0, true, false},
		{"meeting", 35, RiskMedium, 1, 2, true, false},
		{"transaction", 40, RiskMedium, 1, 1, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.interaction, func(t *testing.T) {
			out, err := svc.EvaluateInteraction(context.Background(), &InteractionRequest{
				InitiatorID: "a", RecipientID: "b", InteractionType: tt.interaction,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantRisk, out.RiskScore)
			assert.Equal(t, tt.wantLevel, out.RiskLevel)
			assert.Len(t, out.Warnings, tt.wantWarnings)
			assert.Len(t, out.Recommendations, tt.wantRecs)
			assert.Equal(t, tt.wantSafe, out.IsSafe)
			assert.Equal(t, tt.wantVerify, out.RequiresVerification)
		})
	}

	_, err := svc.EvaluateInteraction(context.Background(), &InteractionRequest{InitiatorID: "a"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}

func TestService_ModerateContent(t *testing.T) {
	svc := createTestService(t, nil, nil)

	clean, err := svc.ModerateContent(context.Background(), &ModerationRequest{
		ContentID: "c1", ContentType: "text", AuthorID: "a", ContentText: "Hiring Go engineers in Berlin",
	})
	require.NoError(t, err)
	assert.True(t, clean.IsApproved)
	assert.Equal(t, RiskLow, clean.RiskLevel)
	assert.Empty(t, clean.CategoriesFlagged)
	assert.Equal(t, 0.9, clean.Confidence)

	flagged, err := svc.ModerateContent(context.Background(), &ModerationRequest{
		ContentID: "c2", ContentType: "text", AuthorID: "a", ContentText: "Totally not a SCAM, send money",
	})
	require.NoError(t, err)
	assert.False(t, flagged.IsApproved)
	assert.True(t, flagged.RequiresHumanReview)
	assert.Equal(t, RiskMedium, flagged.RiskLevel)
	assert.Equal(t, []string{"potential_spam"}, flagged.CategoriesFlagged)
	assert.Equal(t, 0.7, flagged.Confidence)

	noText, err := svc.ModerateContent(context.Background(), &ModerationRequest{
		ContentID: "c3", ContentType: "image", AuthorID: "a", ContentURL: "https://cdn.example.com/x.png",
	})
	require.NoError(t, err)
	assert.True(t, noText.IsApproved)
}

// ==========================
// Signals
// ==========================

func TestService_ReportSignal(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(s aws.Signal) bool {
		return s.Kind == "safety.report" && s.UserID == "u1" && s.OccurredAt.Equal(testNow)
	})).Return(nil).Once()

	svc := createTestService(t, rdb, publisher)
	out, err := svc.ReportSignal(context.Background(), &ReportInput{
		UserID:     "u1",
		ReportedBy: "u2",
		Signal:     SafetySignal{SignalType: SignalReport, SignalName: "harassment", Value: -0.8},
	})
	require.NoError(t, err)
	assert.Equal(t, "signal_recorded", out.Status)
	assert.Equal(t, "pending_recalculation", out.Impact)
	assert.True(t, out.Published)

	stored, err := mr.List(SignalsKey("u1"))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stored[0]), &entry))
	assert.Equal(t, out.SignalID, entry["signalId"])
	assert.Equal(t, "u2", entry["reportedBy"])

	publisher.AssertExpectations(t)
}

func TestService_ReportSignal_Failures(t *testing.T) {
	t.Run("publish failure is not fatal", func(t *testing.T) {
		publisher := new(MockPublisher)
		publisher.On("Publish", mock.Anything, mock.Anything).Return(stderrors.New("throttled"))

		svc := createTestService(t, nil, publisher)
		out, err := svc.ReportSignal(context.Background(), &ReportInput{
			UserID: "u1",
			Signal: SafetySignal{SignalType: SignalBehavioral, SignalName: "x", Value: 0.1},
		})
		require.NoError(t, err)
		assert.False(t, out.Published)
	})

	t.Run("redis failure", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()
		mr.Close()

		svc := createTestService(t, rdb, nil)
		_, err = svc.ReportSignal(context.Background(), &ReportInput{
			UserID: "u1",
			Signal: SafetySignal{SignalType: SignalBehavioral, SignalName: "x", Value: 0.1},
		})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeSignalRecordFailed))
	})

	t.Run("invalid signal", func(t *testing.T) {
		svc := createTestService(t, nil, nil)
		_, err := svc.ReportSignal(context.Background(), &ReportInput{
			UserID: "u1",
			Signal: SafetySignal{SignalType: "rumor", SignalName: "x"},
		})
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
	})
}

func TestService_Thresholds(t *testing.T) {
	svc := createTestService(t, nil, nil)
	th := svc.Thresholds()

	assert.Equal(t, ThresholdBand{Min: 70, Max: 100, Level: RiskLow}, th.Thresholds["low_risk"])
	assert.Equal(t, ThresholdBand{Min: 0, Max: 19, Level: RiskCritical}, th.Thresholds["critical_risk"])

	var total float64
	for _, c := range th.ScoreComponents {
		total += c.Weight
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

// ==========================
// Job decoding
// ==========================

func TestHandler_DecodeVariables(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{"valid", `{"userId":"u1","accountAgeDays":12,"isVerified":true}`, false},
		{"missing age", `{"userId":"u1"}`, true},
		{"bad level", `{"userId":"u1","accountAgeDays":1,"verificationLevel":9}`, true},
		{"bad signal", `{"userId":"u1","accountAgeDays":1,"customSignals":[{"signalType":"x","signalName":"n","value":0}]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Variables: tt.variables}}
			var profile Profile
			err := camunda.DecodeVariables(job, GetInputSchema(), &profile)
			if tt.wantErr {
				assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 12, profile.AccountAgeDays)
			assert.True(t, profile.IsVerified)
		})
	}
}

func TestHandler_Execute(t *testing.T) {
	svc := createTestService(t, nil, nil)
	h := NewHandler(DefaultConfig(), svc, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Profile{UserID: "u1", AccountAgeDays: 30})
	require.NoError(t, err)
	assert.Equal(t, "u1", out.UserID)
	assert.Equal(t, "calculate-safety-score", h.TaskType())
}
