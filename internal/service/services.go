package service

import (
	"context"

	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/deppfellow/hbnb-api/internal/repository"
	"github.com/deppfellow/hbnb-api/internal/server"
	"github.com/rs/zerolog"
)

// Services holds one Resource per kind plus the store-wide IndexService.
type Services struct {
	States  *Resource[*model.State]
	Cities  *Resource[*model.City]
	Users   *Resource[*model.User]
	Places  *Resource[*model.Place]
	Reviews *Resource[*model.Review]
	Index   *IndexService
}

// NewService wires the resources over repos. When s has a job service, a
// welcome email is queued for every user created.
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	users := NewResource(repos, repos.Users)
	if s.Job != nil {
		users.afterCreate = func(ctx context.Context, u *model.User) {
			if err := s.Job.EnqueueWelcomeEmail(ctx, u.ID, u.Email, u.FirstName); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Str("user_id", u.ID).Msg("failed to enqueue welcome email")
			}
		}
	}

	return &Services{
		States:  NewResource(repos, repos.States),
		Cities:  NewResource(repos, repos.Cities),
		Users:   users,
		Places:  NewResource(repos, repos.Places),
		Reviews: NewResource(repos, repos.Reviews),
		Index:   NewIndexService(repos),
	}, nil
}
