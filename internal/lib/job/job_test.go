package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

type fakeSender struct {
	calls         int
	to, firstName string
	err           error
}

func (f *fakeSender) SendWelcomeEmail(to, firstName string) error {
	f.calls++
	f.to, f.firstName = to, firstName
	return f.err
}

func newTestService(sender WelcomeSender) *JobService {
	logger := zerolog.Nop()
	return &JobService{emails: sender, logger: &logger}
}

func TestNewWelcomeEmailTask(t *testing.T) {
	task, err := NewWelcomeEmailTask("u-1", "betty@hbnb.io", "Betty")
	if err != nil {
		t.Fatalf("NewWelcomeEmailTask: %v", err)
	}
	if task.Type() != TaskWelcome {
		t.Errorf("Type = %q, want %q", task.Type(), TaskWelcome)
	}

	var p WelcomeEmailPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	want := WelcomeEmailPayload{UserID: "u-1", Email: "betty@hbnb.io", FirstName: "Betty"}
	if p != want {
		t.Errorf("payload = %+v, want %+v", p, want)
	}

	if got := welcomeTaskID("u-1"); got != "email:welcome:u-1" {
		t.Errorf("welcomeTaskID = %q", got)
	}
}

func TestHandleWelcomeEmailTask(t *testing.T) {
	sender := &fakeSender{}
	j := newTestService(sender)

	task, _ := NewWelcomeEmailTask("u-1", "betty@hbnb.io", "Betty")
	if err := j.handleWelcomeEmailTask(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.to != "betty@hbnb.io" || sender.firstName != "Betty" {
		t.Errorf("sent to %q/%q", sender.to, sender.firstName)
	}
}

func TestHandleWelcomeEmailTaskErrors(t *testing.T) {
	sendErr := errors.New("resend down")

	tests := []struct {
		name      string
		payload   []byte
		sender    *fakeSender
		wantErr   error
		wantCalls int
	}{
		{
			name:      "send failure is retried",
			payload:   []byte(`{"user_id":"u-1","email":"betty@hbnb.io"}`),
			sender:    &fakeSender{err: sendErr},
			wantErr:   sendErr,
			wantCalls: 1,
		},
		{
			name:    "malformed payload",
			payload: []byte("{"),
			sender:  &fakeSender{},
			wantErr: asynq.SkipRetry,
		},
		{
			name:    "no address",
			payload: []byte(`{"user_id":"u-1"}`),
			sender:  &fakeSender{},
			wantErr: asynq.SkipRetry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := newTestService(tt.sender)
			err := j.handleWelcomeEmailTask(context.Background(), asynq.NewTask(TaskWelcome, tt.payload))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.sender.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", tt.sender.calls, tt.wantCalls)
			}
		})
	}
}
