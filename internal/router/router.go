// Package router builds the echo instance: the middleware stack, the system
// routes and the /api/v1 resource routes.
package router

import (
	"github.com/deppfellow/hbnb-api/internal/handler"
	"github.com/deppfellow/hbnb-api/internal/middleware"
	"github.com/deppfellow/hbnb-api/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter returns the echo instance serving h behind the middleware stack.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Pre(middlewares.Global.RemoveTrailingSlash())

	router.Use(
		middlewares.Global.Recover(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.Global.BodyLimit(),
		middlewares.RateLimit.Limit(),
	)

	registerSystemRoutes(router, h)

	v1 := router.Group("/api/v1")
	registerIndexRoutes(v1, h)
	registerResourceRoutes(v1, h)

	return router
}

func registerIndexRoutes(g *echo.Group, h *handler.Handlers) {
	g.GET("/status", h.Index.Status())
	g.GET("/stats", h.Index.Stats())
	g.GET("/export", h.Index.Export())
}

func registerResourceRoutes(g *echo.Group, h *handler.Handlers) {
	states := g.Group("/states")
	states.GET("", h.States.List())
	states.POST("", h.States.Create())
	states.GET("/:id", h.States.Get())
	states.PUT("/:id", h.States.Update())
	states.DELETE("/:id", h.States.Delete())
	states.GET("/:id/cities", h.Cities.ListChildren())
	states.POST("/:id/cities", h.Cities.Create())

	cities := g.Group("/cities")
	cities.GET("/:id", h.Cities.Get())
	cities.PUT("/:id", h.Cities.Update())
	cities.DELETE("/:id", h.Cities.Delete())
	cities.GET("/:id/places", h.Places.ListChildren())
	cities.POST("/:id/places", h.Places.Create())

	users := g.Group("/users")
	users.GET("", h.Users.List())
	users.POST("", h.Users.Create())
	users.GET("/:id", h.Users.Get())
	users.PUT("/:id", h.Users.Update())
	users.DELETE("/:id", h.Users.Delete())

	places := g.Group("/places")
	places.GET("/:id", h.Places.Get())
	places.PUT("/:id", h.Places.Update())
	places.DELETE("/:id", h.Places.Delete())
	places.GET("/:id/reviews", h.Reviews.ListChildren())
	places.POST("/:id/reviews", h.Reviews.Create())

	reviews := g.Group("/reviews")
	reviews.GET("/:id", h.Reviews.Get())
	reviews.PUT("/:id", h.Reviews.Update())
	reviews.DELETE("/:id", h.Reviews.Delete())
}
