package handler

import (
	"github.com/deppfellow/hbnb-api/internal/validation"
)

// ListRequest has no parameters.
type ListRequest struct{}

func (r *ListRequest) Validate() error { return nil }

// ResourceRequest addresses one entity, or the parent of a child collection, by id.
type ResourceRequest struct {
	ID string `param:"id" validate:"required"`
}

func (r *ResourceRequest) Validate() error {
	return validation.Validator().Struct(r)
}

// PayloadRequest carries an id and the raw JSON body. The body is parsed by
// the service so that existence checks run before body checks.
type PayloadRequest struct {
	ID   string `param:"id"`
	Body []byte `json:"-"`
}

func (r *PayloadRequest) Validate() error { return nil }

func (r *PayloadRequest) SetBody(body []byte) { r.Body = body }

func newListRequest() *ListRequest         { return &ListRequest{} }
func newResourceRequest() *ResourceRequest { return &ResourceRequest{} }
func newPayloadRequest() *PayloadRequest   { return &PayloadRequest{} }
