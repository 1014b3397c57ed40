package sqlerr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/hbnb-api/internal/errs"
	"github.com/deppfellow/hbnb-api/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// constraintPattern splits PostgreSQL's default constraint names,
// <table>_<column>_fkey and <table>_<column>_key.
var constraintPattern = regexp.MustCompile(`^([a-z]+)_([a-z_]+)_(?:fkey|key)$`)

// ErrCode returns the Code of the first *Error in err's chain, or Other.
func ErrCode(err error) Code {
	var pgerr *Error
	if errors.As(err, &pgerr) {
		return pgerr.Code
	}
	return Other
}

// ConvertPgError converts a raw PostgreSQL error into an *Error. The column
// is recovered from the constraint name when the server does not report it.
func ConvertPgError(src *pgconn.PgError) *Error {
	column := src.ColumnName
	if column == "" {
		if m := constraintPattern.FindStringSubmatch(src.ConstraintName); m != nil && m[1] == src.TableName {
			column = m[2]
		}
	}

	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     column,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// kindOfTable returns the kind stored in table.
func kindOfTable(table string) (model.Kind, bool) {
	for _, kind := range model.Kinds() {
		if model.SchemaOf(kind).Table == table {
			return kind, true
		}
	}
	return "", false
}

// referencedKind returns the kind a column of table points at, if any.
func referencedKind(table, column string) (model.Kind, bool) {
	kind, ok := kindOfTable(table)
	if !ok {
		return "", false
	}
	f, ok := model.SchemaOf(kind).Field(column)
	if !ok || f.Ref == "" {
		return "", false
	}
	return f.Ref, true
}

// errorCode builds <KIND>_<ACTION>, e.g. places + unique => PLACE_ALREADY_EXISTS.
func errorCode(kind model.Kind, errType Code) string {
	domain := "RECORD"
	if kind != "" {
		domain = strings.ToUpper(string(kind))
	}

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

// humanizeText turns "first_name" into "First Name".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// HandleError converts a database error into an *errs.HTTPError.
//
// A foreign key violation means the referenced entity was deleted while the
// change was staged, so it answers like a missing reference: 404 naming the
// kind. HTTP errors pass through unchanged and unknown errors become a 500.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		sqlErr := ConvertPgError(pgerr)
		kind, _ := kindOfTable(sqlErr.TableName)

		switch sqlErr.Code {
		case ForeignKeyViolation:
			target, ok := referencedKind(sqlErr.TableName, sqlErr.ColumnName)
			if !ok {
				return errs.NewNotFoundError("Referenced object not found", false, nil)
			}
			code := errorCode(target, ForeignKeyViolation)
			return errs.NewNotFoundError(fmt.Sprintf("%s not found", target), false, &code)

		case UniqueViolation:
			name := string(kind)
			if name == "" {
				name = "Object"
			}
			return errs.NewConflictError(
				fmt.Sprintf("%s already exists", name),
				errorCode(kind, UniqueViolation),
			)

		case NotNullViolation:
			code := errorCode(kind, NotNullViolation)
			field := humanizeText(sqlErr.ColumnName)
			if field == "" {
				field = "Field"
			}
			return errs.NewBadRequestError(field+" is required", false, &code, []errs.FieldError{
				{Field: sqlErr.ColumnName, Error: "is required"},
			}, nil)

		case CheckViolation:
			code := errorCode(kind, CheckViolation)
			message := "One or more values do not meet required conditions"
			if field := humanizeText(sqlErr.ColumnName); field != "" {
				message = fmt.Sprintf("%s does not meet required conditions", field)
			}
			return errs.NewBadRequestError(message, false, &code, nil, nil)

		default:
			return errs.NewInternalServerError()
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.NewNotFoundError("Not found", false, nil)
	}

	return errs.NewInternalServerError()
}
