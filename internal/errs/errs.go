// Package errs defines the error types returned to API clients.
//
// Every client-visible failure is an *HTTPError so the global error handler
// can render one consistent JSON shape, with optional field-level details.
package errs
