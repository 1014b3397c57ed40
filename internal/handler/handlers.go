package handler

import (
	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/deppfellow/hbnb-api/internal/server"
	"github.com/deppfellow/hbnb-api/internal/service"
)

// Handlers groups every HTTP handler so the router takes a single dependency.
type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Index   *IndexHandler

	States  *ResourceHandler[*model.State]
	Cities  *ResourceHandler[*model.City]
	Users   *ResourceHandler[*model.User]
	Places  *ResourceHandler[*model.Place]
	Reviews *ResourceHandler[*model.Review]
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Index:   NewIndexHandler(s, services.Index),
		States:  NewResourceHandler(s, services.States),
		Cities:  NewResourceHandler(s, services.Cities),
		Users:   NewResourceHandler(s, services.Users),
		Places:  NewResourceHandler(s, services.Places),
		Reviews: NewResourceHandler(s, services.Reviews),
	}
}
