package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/grievances/utils"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrGrievanceNotFound  = errors.New("grievance not found")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Partner link errors.
var (
	ErrPartnerNotFound    = errors.New("partner not found")
	ErrAlreadyLinked      = errors.New("already linked with this partner")
	ErrNoPartner          = errors.New("no partner linked")
	ErrSelfLink           = errors.New("cannot link to yourself")
	ErrAlreadyHasPartner  = errors.New("already linked with another partner")
	ErrPartnerUnavailable = errors.New("partner is linked with someone else")
)

// ValidationError reports one or more invalid input fields.
type ValidationError struct {
	Fields []utils.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Param+": "+f.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

type fieldChecker struct {
	fields []utils.FieldError
}

func (c *fieldChecker) check(ok bool, param, msg string) {
	if !ok {
		c.fields = append(c.fields, utils.FieldError{Param: param, Msg: msg})
	}
}

func (c *fieldChecker) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields}
}

// notFound maps gorm's record-not-found to the given sentinel and passes other errors through.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
