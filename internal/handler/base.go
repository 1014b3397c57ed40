package handler

import (
	"reflect"
	"time"

	"github.com/deppfellow/hbnb-api/internal/middleware"
	"github.com/deppfellow/hbnb-api/internal/server"
	"github.com/deppfellow/hbnb-api/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// Handler gives concrete handlers access to the server container.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is a typed endpoint: it receives a bound, validated request
// and returns the response value or an error.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// Responder writes a successful result and describes it for logs and traces.
type Responder interface {
	Respond(c echo.Context, result any) error
	Operation() string
	Annotate(log zerolog.Context, txn *newrelic.Transaction, result any) zerolog.Context
}

// JSONResponder answers with the result encoded as JSON.
type JSONResponder struct {
	status int
}

func (r JSONResponder) Respond(c echo.Context, result any) error {
	return c.JSON(r.status, result)
}

func (r JSONResponder) Operation() string { return "json" }

// Annotate records the number of objects in list responses.
func (r JSONResponder) Annotate(log zerolog.Context, txn *newrelic.Transaction, result any) zerolog.Context {
	if n, ok := resultLen(result); ok {
		log = log.Int("objects", n)
		if txn != nil {
			txn.AddAttribute("response.objects", n)
		}
	}
	return log
}

// FileResponder sends a []byte result as a download.
type FileResponder struct {
	status      int
	filename    string
	contentType string
}

func (r FileResponder) Respond(c echo.Context, result any) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+r.filename+`"`)
	return c.Blob(r.status, r.contentType, result.([]byte))
}

func (r FileResponder) Operation() string { return "file" }

func (r FileResponder) Annotate(log zerolog.Context, txn *newrelic.Transaction, result any) zerolog.Context {
	size := 0
	if data, ok := result.([]byte); ok {
		size = len(data)
	}
	if txn != nil {
		txn.AddAttribute("file.name", r.filename)
		txn.AddAttribute("file.size_bytes", size)
	}
	return log.Str("filename", r.filename).Int("size_bytes", size)
}

func resultLen(result any) (int, bool) {
	v := reflect.ValueOf(result)
	if v.Kind() != reflect.Slice {
		return 0, false
	}
	return v.Len(), true
}

// timed runs fn and reports how long it took under name, both in the
// transaction and as the returned duration.
func timed(txn *newrelic.Transaction, name string, fn func() error) (time.Duration, error) {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if txn != nil {
		status := "success"
		if err != nil {
			status = "failed"
		}
		txn.AddAttribute(name+".status", status)
		txn.AddAttribute(name+".duration_ms", elapsed.Milliseconds())
	}
	return elapsed, err
}

// handleRequest is the pipeline every endpoint runs through: bind and
// validate, call the handler, then write the response. Both phases are
// timed; a failed phase ends the pipeline and its error goes to the global
// error handler.
func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (any, error),
	responder Responder,
) error {
	start := time.Now()
	route := c.Path()

	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.route", route)
		txn.AddAttribute("handler.operation", responder.Operation())
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", responder.Operation()).
		Str("route", route).
		Logger()

	validationDuration, err := timed(txn, "validation", func() error {
		return validation.BindAndValidate(c, req)
	})
	if err != nil {
		logger.Debug().Err(err).Dur("validation_duration", validationDuration).Msg("request rejected")
		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
		}
		return err
	}

	var result any
	handlerDuration, err := timed(txn, "handler", func() error {
		var err error
		result, err = handler(c, req)
		return err
	})
	if err != nil {
		logger.Debug().
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", time.Since(start)).
			Msg("handler failed")
		return err
	}

	done := responder.Annotate(logger.With(), txn, result).Logger()
	done.Debug().
		Dur("validation_duration", validationDuration).
		Dur("handler_duration", handlerDuration).
		Dur("total_duration", time.Since(start)).
		Msg("request handled")

	return responder.Respond(c, result)
}

// Handle wraps a typed handler into an echo.HandlerFunc answering with status.
// newReq is called once per request so requests never share state.
func Handle[Req validation.Validatable, Res any](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
	newReq func() Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, newReq(), func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, JSONResponder{status: status})
	}
}

// HandleFile wraps a handler returning file bytes into a download endpoint.
func HandleFile[Req validation.Validatable](
	h Handler,
	handler HandlerFunc[Req, []byte],
	status int,
	newReq func() Req,
	filename string,
	contentType string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, newReq(), func(c echo.Context, req Req) (any, error) {
			return handler(c, req)
		}, FileResponder{
			status:      status,
			filename:    filename,
			contentType: contentType,
		})
	}
}
