package handler

import (
	"net/http"

	"github.com/deppfellow/hbnb-api/internal/server"
	"github.com/deppfellow/hbnb-api/internal/service"
	"github.com/labstack/echo/v4"
)

type IndexHandler struct {
	Handler
	index *service.IndexService
}

func NewIndexHandler(s *server.Server, index *service.IndexService) *IndexHandler {
	return &IndexHandler{
		Handler: NewHandler(s),
		index:   index,
	}
}

// Status answers {"status":"OK"} without touching any dependency.
func (h *IndexHandler) Status() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, _ *ListRequest) (map[string]string, error) {
		return map[string]string{"status": "OK"}, nil
	}, http.StatusOK, newListRequest)
}

// Stats answers the number of entities of every kind.
func (h *IndexHandler) Stats() echo.HandlerFunc {
	return Handle(h.Handler, func(c echo.Context, _ *ListRequest) (map[string]int, error) {
		return h.index.Stats(c.Request().Context())
	}, http.StatusOK, newListRequest)
}

// Export sends every entity as a JSON download.
func (h *IndexHandler) Export() echo.HandlerFunc {
	return HandleFile(h.Handler, func(c echo.Context, _ *ListRequest) ([]byte, error) {
		return h.index.Export(c.Request().Context())
	}, http.StatusOK, newListRequest, "hbnb-export.json", echo.MIMEApplicationJSON)
}
