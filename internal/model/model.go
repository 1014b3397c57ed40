// Package model defines the domain entities served by the API.
//
// Every entity embeds Base and declares its field rules with `hbnb` struct tags:
//
//   - immutable: the field is never written by an update payload
//   - required: the create payload must carry the key (checked in declaration order)
//   - ref=<Kind>: the value is the id of another entity that must exist
//   - parent=<Kind>: the foreign key to the owning entity; implies immutable
//   - hidden: the field is persisted but never serialized to clients
package model

import (
	"time"

	"github.com/google/uuid"
)

// Kind names an entity type. The value doubles as the `__class__` of serialized objects.
type Kind string

const (
	KindState  Kind = "State"
	KindCity   Kind = "City"
	KindUser   Kind = "User"
	KindPlace  Kind = "Place"
	KindReview Kind = "Review"
)

// Key returns the "<Kind>.<id>" key identifying an entity across kinds.
func (k Kind) Key(id string) string {
	return string(k) + "." + id
}

// kinds is ordered so that every kind comes after the kinds it references.
var kinds = []Kind{KindState, KindUser, KindCity, KindPlace, KindReview}

// Kinds returns every registered kind, referenced kinds first.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// Entity is implemented by every persisted domain record.
type Entity interface {
	Kind() Kind
	Meta() *Base
}

// Preparer is implemented by entities that normalize themselves before they are stored.
type Preparer interface {
	Prepare() error
}

// Base carries the identity and timestamps shared by all entities.
type Base struct {
	ID        string    `json:"id" hbnb:"immutable"`
	CreatedAt time.Time `json:"created_at" hbnb:"immutable"`
	UpdatedAt time.Time `json:"updated_at" hbnb:"immutable"`
}

func (b *Base) Meta() *Base { return b }

// IsBaseField reports whether key is one of the identity and timestamp fields
// that only the server assigns.
func IsBaseField(key string) bool {
	switch key {
	case "id", "created_at", "updated_at":
		return true
	}
	return false
}

// Init assigns a fresh identifier and sets both timestamps to now.
func (b *Base) Init(now time.Time) {
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now
}

// Touch records a modification at now.
func (b *Base) Touch(now time.Time) {
	b.UpdatedAt = now
}
