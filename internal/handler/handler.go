// Package handler is the HTTP layer: it binds requests, hands them to the
// service layer and writes the results.
package handler
