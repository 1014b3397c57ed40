package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/hbnb-api/internal/errs"
	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/labstack/echo/v4"
)

type idRequest struct {
	ID   string `param:"id" validate:"required"`
	Body []byte
}

func (r *idRequest) Validate() error      { return Validator().Struct(r) }
func (r *idRequest) SetBody(body []byte) { r.Body = body }

func newContext(method, target, body string, names, values []string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

func TestBindAndValidate(t *testing.T) {
	c := newContext(http.MethodPut, "/reviews/r1", `{"text":"ok"}`, []string{"id"}, []string{"r1"})

	req := &idRequest{}
	if err := BindAndValidate(c, req); err != nil {
		t.Fatalf("BindAndValidate: %v", err)
	}
	if req.ID != "r1" {
		t.Errorf("ID = %q, want r1", req.ID)
	}
	if string(req.Body) != `{"text":"ok"}` {
		t.Errorf("Body = %q", req.Body)
	}
}

func TestBindAndValidateMissingParam(t *testing.T) {
	c := newContext(http.MethodGet, "/reviews/", "", nil, nil)

	err := BindAndValidate(c, &idRequest{})
	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
	if len(httpErr.Errors) != 1 || httpErr.Errors[0].Field != "id" || httpErr.Errors[0].Error != "is required" {
		t.Errorf("field errors = %+v", httpErr.Errors)
	}
}

func TestValidateEntity(t *testing.T) {
	tests := []struct {
		name   string
		entity any
		fields []string
	}{
		{"valid place", &model.Place{Latitude: 48.85, Longitude: 2.35}, nil},
		{"negative rooms", &model.Place{NumberRooms: -1}, []string{"number_rooms"}},
		{"bad coordinates", &model.Place{Latitude: 91, Longitude: -181}, []string{"latitude", "longitude"}},
		{"bad email", &model.User{Email: "not-an-email"}, []string{"email"}},
		{"empty email allowed", &model.User{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntity(tt.entity)
			if tt.fields == nil {
				if err != nil {
					t.Fatalf("ValidateEntity: %v", err)
				}
				return
			}

			var httpErr *errs.HTTPError
			if !errors.As(err, &httpErr) || httpErr.Code != errs.CodeInvalidField {
				t.Fatalf("err = %v, want INVALID_FIELD", err)
			}
			if len(httpErr.Errors) != len(tt.fields) {
				t.Fatalf("field errors = %+v, want %v", httpErr.Errors, tt.fields)
			}
			for i, f := range tt.fields {
				if httpErr.Errors[i].Field != f {
					t.Errorf("field %d = %q, want %q", i, httpErr.Errors[i].Field, f)
				}
			}
		})
	}
}
