package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/civiclabs-ng/supcore/internal/logger"
	"github.com/civiclabs-ng/supcore/internal/reward"
)

// IssueRewardRequest represents the request to issue a reward for a
// completed engagement task
type IssueRewardRequest struct {
	UserID  string          `json:"user_id" validate:"required,uuid"`
	TaskID  string          `json:"task_id" validate:"required,uuid"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HandleIssueReward issues an EARNED credit for a completed task.
// A repeat submission in the same window returns the original result.
func HandleIssueReward(rewardSvc reward.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req IssueRewardRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Issue reward"); err != nil {
			return
		}

		userID, _ := uuid.Parse(req.UserID)
		taskID, _ := uuid.Parse(req.TaskID)

		log := logger.FromContext(r.Context())
		LogRequestFields(log, "userID", userID, "taskID", taskID)

		result, err := rewardSvc.Issue(r.Context(), userID, taskID, req.Payload)
		if err != nil {
			respondServiceError(w, r, ErrMsgIssueRewardFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}
