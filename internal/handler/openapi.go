package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/deppfellow/hbnb-api/internal/server"
	"github.com/labstack/echo/v4"
)

const (
	openAPIPagePath = "static/openapi.html"
	openAPISpecURL  = "/static/openapi.json"
)

// OpenAPIHandler serves the API reference page, which loads the OpenAPI
// document from the /static route.
type OpenAPIHandler struct {
	Handler
	pagePath string
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler:  NewHandler(s),
		pagePath: openAPIPagePath,
	}
}

type openAPIPage struct {
	Title   string
	SpecURL string
}

// ServeOpenAPIUI renders the page on every request so edits show up without
// a restart.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	tmpl, err := template.ParseFiles(h.pagePath)
	if err != nil {
		return fmt.Errorf("failed to parse OpenAPI page: %w", err)
	}

	title := "HBnB API Reference"
	if obs := h.server.Config.Observability; obs != nil && obs.Environment != "production" {
		title += " (" + obs.Environment + ")"
	}

	var page bytes.Buffer
	if err := tmpl.Execute(&page, openAPIPage{Title: title, SpecURL: openAPISpecURL}); err != nil {
		return fmt.Errorf("failed to render OpenAPI page: %w", err)
	}

	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.HTMLBlob(http.StatusOK, page.Bytes())
}
