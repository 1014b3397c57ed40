// Package service holds the business rules of the API.
//
// Every entity kind is served by the same generic Resource, driven by the
// field rules declared on the model: which keys a create must carry, which
// foreign entities must exist, which fields an update may not touch, and
// what has to go when an entity is deleted.
package service
