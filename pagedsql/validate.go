package pagedsql

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// ValidationError wraps the field errors reported for a PagedQueryParam.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "pagedsql: invalid query: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

var identifier = validation.Match(identRe).Error("must be a plain column identifier")

var direction = validation.By(func(v any) error {
	d, _ := v.(Direction)
	switch strings.ToUpper(string(d)) {
	case "", string(ASC), string(DESC):
		return nil
	}
	return errors.New("must be ASC or DESC")
})

// Validate skips inactive rules; they never render.
func (r FilterRule) Validate() error {
	if !r.Active() {
		return nil
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Key, validation.Required, identifier),
	)
}

func (q PagedQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.SortField, identifier),
		validation.Field(&q.SortDirection, direction),
		validation.Field(&q.PageSize, validation.Required, validation.Min(1)),
		validation.Field(&q.PageIndex, validation.Min(0)),
		validation.Field(&q.Filters),
	)
}

// Validate checks everything Build interpolates as an identifier. Select and
// From are trusted: they come from code, not from requests.
func Validate(p PagedQueryParam) error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Select, validation.Required),
		validation.Field(&p.From, validation.Required),
		validation.Field(&p.Query),
	)
	if err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}
