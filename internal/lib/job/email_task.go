package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// TaskWelcome is sent once per created user.
const TaskWelcome = "email:welcome"

// welcomeRetention keeps a finished welcome task around so that a repeated
// enqueue for the same user is rejected as a duplicate.
const welcomeRetention = 24 * time.Hour

type WelcomeEmailPayload struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
}

// NewWelcomeEmailTask builds the welcome email task of one user. The task id
// is derived from the user id.
func NewWelcomeEmailTask(userID, email, firstName string) (*asynq.Task, error) {
	payload, err := json.Marshal(WelcomeEmailPayload{
		UserID:    userID,
		Email:     email,
		FirstName: firstName,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskWelcome,
		payload,
		asynq.TaskID(welcomeTaskID(userID)),
		asynq.MaxRetry(5),
		asynq.Queue("low"),
		asynq.Timeout(30*time.Second),
		asynq.Retention(welcomeRetention),
	), nil
}

func welcomeTaskID(userID string) string {
	return TaskWelcome + ":" + userID
}
