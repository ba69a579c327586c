package school

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/darasa/backend/core"
)

func (nc *NewClass) Validate(validate *validator.Validate, translator ut.Translator) error {
	nc.Name = core.CleanString(nc.Name)
	nc.GradeLevel = core.CleanString(nc.GradeLevel)
	nc.AcademicYear = core.CleanString(nc.AcademicYear)
	return core.TranslateValidationErrors(validate.Struct(nc), translator)
}

func (uc *UpdateClass) Validate(validate *validator.Validate, translator ut.Translator) error {
	uc.Name = core.CleanString(uc.Name)
	uc.GradeLevel = core.CleanString(uc.GradeLevel)
	uc.AcademicYear = core.CleanString(uc.AcademicYear)
	return core.TranslateValidationErrors(validate.Struct(uc), translator)
}

// Validate cleans and validates the payload; the code uniqueness pre-check
// runs last so all field errors surface together first.
func (ns *NewSubject) Validate(ctx context.Context, validate *validator.Validate, translator ut.Translator, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code, true /* lower */)
	if err := validate.Struct(ns); err != nil {
		return core.TranslateValidationErrors(err, translator)
	}
	if err := svc.repo.CheckSubjectCodeUniqueness(ctx, ns.Code, nil); err != nil {
		if err == ErrSubjectCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (us *UpdateSubject) Validate(validate *validator.Validate, translator ut.Translator) error {
	us.Name = core.CleanString(us.Name)
	return core.TranslateValidationErrors(validate.Struct(us), translator)
}

func (ne *NewEnrollment) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateValidationErrors(validate.Struct(ne), translator)
}

func (ncs *NewClassSubject) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateValidationErrors(validate.Struct(ncs), translator)
}

func (nta *NewTeacherAssignment) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateValidationErrors(validate.Struct(nta), translator)
}

func (npl *NewParentLink) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.TranslateValidationErrors(validate.Struct(npl), translator)
}
