package database

import (
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/darasa/backend/core"
	"github.com/darasa/backend/core/school"
	"github.com/darasa/backend/core/user"
)

const (
	uniqueViolation     = pq.ErrorCode("23505")
	foreignKeyViolation = pq.ErrorCode("23503")
)

// conflictErrs maps unique constraint names to their domain sentinel.
var conflictErrs = map[string]error{
	"users_email_key":       user.ErrEmailExists,
	"subjects_code_key":     school.ErrSubjectCodeExists,
	"unique_student_class":  school.ErrAlreadyEnrolled,
	"unique_class_subject":  school.ErrSubjectAssigned,
	"unique_parent_student": school.ErrParentLinkExists,
}

// TrapError classifies postgres constraint violations into domain error
// kinds; any other error passes through wrapped.
func TrapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			if sentinel, ok := conflictErrs[pqErr.Constraint]; ok {
				return core.NewConflictError(sentinel, pqErr.Constraint)
			}
			return core.NewConflictError(err, pqErr.Constraint)
		case foreignKeyViolation:
			return core.NewIntegrityError(err, pqErr.Constraint)
		}
	}
	return errors.Wrap(err, msg)
}
