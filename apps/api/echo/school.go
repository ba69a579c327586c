package echoapi

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa/backend/core"
	"github.com/darasa/backend/core/school"
)

type schoolApi struct {
	svc        *school.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerSchoolAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *school.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := schoolApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	cg := g.Group("/classes", jwt)
	cg.POST("", api.createClass, adminMiddleware())
	cg.GET("", api.queryClasses)
	cg.GET("/:id", api.retrieveClass)
	cg.PUT("/:id", api.updateClass, adminMiddleware())
	cg.DELETE("", api.destroyClasses, adminMiddleware())

	sg := g.Group("/subjects", jwt)
	sg.POST("", api.createSubject, adminMiddleware())
	sg.GET("", api.querySubjects)
	sg.GET("/:id", api.retrieveSubject)
	sg.PUT("/:id", api.updateSubject, adminMiddleware())
	sg.DELETE("", api.destroySubjects, adminMiddleware())

	eg := g.Group("/enrollments", jwt)
	eg.POST("", api.enroll, adminMiddleware())
	eg.GET("", api.queryEnrollments)
	eg.DELETE("", api.unenroll, adminMiddleware())

	csg := g.Group("/class-subjects", jwt)
	csg.POST("", api.assignSubject, adminMiddleware())
	csg.GET("", api.queryClassSubjects)
	csg.DELETE("", api.unassignSubject, adminMiddleware())

	tg := g.Group("/teacher-assignments", jwt)
	tg.POST("", api.assignTeacher, adminMiddleware())
	tg.GET("", api.queryTeacherAssignments)
	tg.DELETE("", api.unassignTeachers, adminMiddleware())

	pg := g.Group("/parent-links", jwt)
	pg.POST("", api.linkParent, adminMiddleware())
	pg.GET("", api.queryParentLinks)
	pg.DELETE("", api.unlinkParent, adminMiddleware())
}

// Classes

func (api *schoolApi) createClass(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	cls, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	filter := &school.ClassFilter{
		AcademicYear: core.CleanString(ctx.QueryParam("academic_year")),
		GradeLevel:   core.CleanString(ctx.QueryParam("grade_level")),
	}
	if v := ctx.QueryParam("is_active"); v != "" {
		if isActive, err := strconv.ParseBool(v); err == nil {
			filter.IsActive = &isActive
		}
	}

	classes, err := api.svc.QueryClasses(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) retrieveClass(ctx echo.Context) error {
	cls, err := api.svc.GetClassByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == school.ErrClassNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *schoolApi) updateClass(ctx echo.Context) error {
	var data school.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	cls, err := api.svc.UpdateClass(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == school.ErrClassNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *schoolApi) destroyClasses(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.DeleteClasses(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting classes")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Subjects

func (api *schoolApi) createSubject(ctx echo.Context) error {
	var data school.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.translator, api.svc); err != nil {
		return err
	}

	sub, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *schoolApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolApi) retrieveSubject(ctx echo.Context) error {
	sub, err := api.svc.GetSubjectByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == school.ErrSubjectNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *schoolApi) updateSubject(ctx echo.Context) error {
	var data school.UpdateSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	sub, err := api.svc.UpdateSubject(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == school.ErrSubjectNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *schoolApi) destroySubjects(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.DeleteSubjects(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting subjects")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Enrollments

func (api *schoolApi) enroll(ctx echo.Context) error {
	var data school.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	sc, err := api.svc.Enroll(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, sc)
}

func (api *schoolApi) queryEnrollments(ctx echo.Context) error {
	enrollments, err := api.svc.QueryEnrollments(
		ctx.Request().Context(), ctx.QueryParam("student_id"), ctx.QueryParam("class_id"))
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []school.StudentClass{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *schoolApi) unenroll(ctx echo.Context) error {
	studentID, classID := ctx.QueryParam("student_id"), ctx.QueryParam("class_id")
	if studentID == "" || classID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "student_id and class_id are required")
	}

	if err := api.svc.Unenroll(ctx.Request().Context(), studentID, classID); err != nil {
		if errors.Cause(err) == school.ErrAssociationMissing {
			return errHttpNotFound
		}
		return errors.Wrap(err, "unenrolling student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Class subjects

func (api *schoolApi) assignSubject(ctx echo.Context) error {
	var data school.NewClassSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassSubject")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	cs, err := api.svc.AssignSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "assigning subject")
	}
	return ctx.JSON(http.StatusCreated, cs)
}

func (api *schoolApi) queryClassSubjects(ctx echo.Context) error {
	classSubjects, err := api.svc.QueryClassSubjects(
		ctx.Request().Context(), ctx.QueryParam("class_id"), ctx.QueryParam("subject_id"))
	if err != nil {
		return errors.Wrap(err, "querying class subjects")
	}
	if classSubjects == nil {
		classSubjects = []school.ClassSubject{}
	}
	return ctx.JSON(http.StatusOK, classSubjects)
}

func (api *schoolApi) unassignSubject(ctx echo.Context) error {
	classID, subjectID := ctx.QueryParam("class_id"), ctx.QueryParam("subject_id")
	if classID == "" || subjectID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "class_id and subject_id are required")
	}

	if err := api.svc.UnassignSubject(ctx.Request().Context(), classID, subjectID); err != nil {
		if errors.Cause(err) == school.ErrAssociationMissing {
			return errHttpNotFound
		}
		return errors.Wrap(err, "unassigning subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Teacher assignments

func (api *schoolApi) assignTeacher(ctx echo.Context) error {
	var data school.NewTeacherAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacherAssignment")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	ta, err := api.svc.AssignTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "assigning teacher")
	}
	return ctx.JSON(http.StatusCreated, ta)
}

func (api *schoolApi) queryTeacherAssignments(ctx echo.Context) error {
	assignments, err := api.svc.QueryTeacherAssignments(
		ctx.Request().Context(),
		ctx.QueryParam("teacher_id"), ctx.QueryParam("class_id"), ctx.QueryParam("subject_id"))
	if err != nil {
		return errors.Wrap(err, "querying teacher assignments")
	}
	if assignments == nil {
		assignments = []school.TeacherAssignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *schoolApi) unassignTeachers(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.UnassignTeachers(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "unassigning teachers")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Parent links

func (api *schoolApi) linkParent(ctx echo.Context) error {
	var data school.NewParentLink
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParentLink")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	ps, err := api.svc.LinkParent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "linking parent")
	}
	return ctx.JSON(http.StatusCreated, ps)
}

func (api *schoolApi) queryParentLinks(ctx echo.Context) error {
	links, err := api.svc.QueryParentLinks(
		ctx.Request().Context(), ctx.QueryParam("parent_id"), ctx.QueryParam("student_id"))
	if err != nil {
		return errors.Wrap(err, "querying parent links")
	}
	if links == nil {
		links = []school.ParentStudent{}
	}
	return ctx.JSON(http.StatusOK, links)
}

func (api *schoolApi) unlinkParent(ctx echo.Context) error {
	parentID, studentID := ctx.QueryParam("parent_id"), ctx.QueryParam("student_id")
	if parentID == "" || studentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "parent_id and student_id are required")
	}

	if err := api.svc.UnlinkParent(ctx.Request().Context(), parentID, studentID); err != nil {
		if errors.Cause(err) == school.ErrAssociationMissing {
			return errHttpNotFound
		}
		return errors.Wrap(err, "unlinking parent")
	}
	return ctx.NoContent(http.StatusNoContent)
}
