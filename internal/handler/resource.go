package handler

import (
	"net/http"

	"github.com/deppfellow/hbnb-api/internal/middleware"
	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/deppfellow/hbnb-api/internal/server"
	"github.com/deppfellow/hbnb-api/internal/service"
	"github.com/labstack/echo/v4"
)

// ResourceHandler exposes a service.Resource over HTTP.
type ResourceHandler[T model.Entity] struct {
	Handler
	resource *service.Resource[T]
}

func NewResourceHandler[T model.Entity](s *server.Server, resource *service.Resource[T]) *ResourceHandler[T] {
	return &ResourceHandler[T]{
		Handler:  NewHandler(s),
		resource: resource,
	}
}

func (h *ResourceHandler[T]) tag(c echo.Context) {
	c.Set(middleware.KindKey, string(h.resource.Kind()))
}

// List handles GET /<kinds>.
func (h *ResourceHandler[T]) List() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, _ *ListRequest) ([]model.Dict, error) {
		h.tag(c)
		return h.resource.List(c.Request().Context())
	}, http.StatusOK, newListRequest)
}

// ListChildren handles GET /<parents>/:id/<kinds>.
func (h *ResourceHandler[T]) ListChildren() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *ResourceRequest) ([]model.Dict, error) {
		h.tag(c)
		return h.resource.ListChildren(c.Request().Context(), req.ID)
	}, http.StatusOK, newResourceRequest)
}

// Get handles GET /<kinds>/:id.
func (h *ResourceHandler[T]) Get() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *ResourceRequest) (model.Dict, error) {
		h.tag(c)
		return h.resource.Get(c.Request().Context(), req.ID)
	}, http.StatusOK, newResourceRequest)
}

// Create handles POST /<kinds> and POST /<parents>/:id/<kinds>; the path id
// is the parent, empty for top-level kinds.
func (h *ResourceHandler[T]) Create() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *PayloadRequest) (model.Dict, error) {
		h.tag(c)
		return h.resource.Create(c.Request().Context(), req.ID, req.Body)
	}, http.StatusCreated, newPayloadRequest)
}

// Update handles PUT /<kinds>/:id.
func (h *ResourceHandler[T]) Update() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *PayloadRequest) (model.Dict, error) {
		h.tag(c)
		return h.resource.Update(c.Request().Context(), req.ID, req.Body)
	}, http.StatusOK, newPayloadRequest)
}

// Delete handles DELETE /<kinds>/:id and answers {}.
func (h *ResourceHandler[T]) Delete() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, req *ResourceRequest) (model.Dict, error) {
		h.tag(c)
		return h.resource.Delete(c.Request().Context(), req.ID)
	}, http.StatusOK, newResourceRequest)
}
