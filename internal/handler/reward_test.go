package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/reward"
)

// MockRewardService mocks the reward.Service interface
type MockRewardService struct {
	mock.Mock
}

func (m *MockRewardService) Issue(ctx context.Context, userID, taskID uuid.UUID, payload json.RawMessage) (*reward.IssueResult, error) {
	args := m.Called(ctx, userID, taskID, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reward.IssueResult), args.Error(1)
}

func TestHandleIssueReward(t *testing.T) {
	InitValidator()

	t.Run("issues a reward", func(t *testing.T) {
		mockSvc := &MockRewardService{}
		userID := uuid.New()
		taskID := uuid.New()
		mockSvc.On("Issue", mock.Anything, userID, taskID, mock.Anything).
			Return(&reward.IssueResult{
				EventID:       uuid.New(),
				TransactionID: uuid.New(),
				AmountSUP:     decimal.NewFromInt(25),
				NewBalance:    decimal.NewFromInt(25),
			}, nil)

		body := `{"user_id":"` + userID.String() + `","task_id":"` + taskID.String() + `"}`
		req := httptest.NewRequest("POST", "/rewards", strings.NewReader(body))
		w := httptest.NewRecorder()

		HandleIssueReward(mockSvc).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"amount_sup":"25"`)
		mockSvc.AssertExpectations(t)
	})

	t.Run("surfaces a duplicate as success", func(t *testing.T) {
		mockSvc := &MockRewardService{}
		userID := uuid.New()
		taskID := uuid.New()
		mockSvc.On("Issue", mock.Anything, userID, taskID, mock.Anything).
			Return(&reward.IssueResult{
				EventID:    uuid.New(),
				AmountSUP:  decimal.NewFromInt(25),
				NewBalance: decimal.NewFromInt(25),
				Duplicate:  true,
			}, nil)

		body := `{"user_id":"` + userID.String() + `","task_id":"` + taskID.String() + `"}`
		req := httptest.NewRequest("POST", "/rewards", strings.NewReader(body))
		w := httptest.NewRecorder()

		HandleIssueReward(mockSvc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"duplicate":true`)
	})

	t.Run("denial carries its structured reason", func(t *testing.T) {
		mockSvc := &MockRewardService{}
		mockSvc.On("Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &domain.EligibilityError{Reason: domain.DenialKYCRequired})

		body := `{"user_id":"` + uuid.New().String() + `","task_id":"` + uuid.New().String() + `"}`
		req := httptest.NewRequest("POST", "/rewards", strings.NewReader(body))
		w := httptest.NewRecorder()

		HandleIssueReward(mockSvc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `"reason":"KYC_REQUIRED"`)
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		mockSvc := &MockRewardService{}

		req := httptest.NewRequest("POST", "/rewards", strings.NewReader("{not json"))
		w := httptest.NewRecorder()

		HandleIssueReward(mockSvc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockSvc.AssertNotCalled(t, "Issue")
	})

	t.Run("rejects a missing task id", func(t *testing.T) {
		mockSvc := &MockRewardService{}

		body := `{"user_id":"` + uuid.New().String() + `"}`
		req := httptest.NewRequest("POST", "/rewards", strings.NewReader(body))
		w := httptest.NewRecorder()

		HandleIssueReward(mockSvc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"taskid"`)
		mockSvc.AssertNotCalled(t, "Issue")
	})

	t.Run("unknown task maps to not found", func(t *testing.T) {
		mockSvc := &MockRewardService{}
		mockSvc.On("Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, domain.ErrTaskNotFound)

		body := `{"user_id":"` + uuid.New().String() + `","task_id":"` + uuid.New().String() + `"}`
		req := httptest.NewRequest("POST", "/rewards", strings.NewReader(body))
		w := httptest.NewRecorder()

		HandleIssueReward(mockSvc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), ErrMsgTaskNotFoundError)
	})
}
