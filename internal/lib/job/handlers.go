package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/hbnb-api/internal/config"
	"github.com/deppfellow/hbnb-api/internal/lib/email"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// WelcomeSender delivers welcome emails.
type WelcomeSender interface {
	SendWelcomeEmail(to, firstName string) error
}

// InitHandlers builds the dependencies task handlers need.
func (j *JobService) InitHandlers(cfg *config.Config, logger *zerolog.Logger) {
	j.emails = email.NewClient(cfg, logger)
}

func (j *JobService) handleWelcomeEmailTask(ctx context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal welcome email payload: %w: %w", err, asynq.SkipRetry)
	}
	if p.Email == "" {
		return fmt.Errorf("welcome email for user %s has no address: %w", p.UserID, asynq.SkipRetry)
	}

	logger := j.logger.With().
		Str("task", TaskWelcome).
		Str("user_id", p.UserID).
		Logger()

	if j.emails == nil {
		return fmt.Errorf("email client not initialized")
	}

	if err := j.emails.SendWelcomeEmail(p.Email, p.FirstName); err != nil {
		logger.Error().Err(err).Msg("failed to send welcome email")
		return err
	}

	logger.Info().Msg("welcome email sent")
	return nil
}
