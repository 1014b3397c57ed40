// Package validation binds request data and checks it against validator rules.
//
// Request types are validated with go-playground/validator struct tags and
// failures come back as a 400 *errs.HTTPError listing every offending field.
package validation
