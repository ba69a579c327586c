package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/backend/core"
)

var (
	// errors
	ErrClassNotFound      = errors.New("class not found")
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrAssociationMissing = errors.New("association not found")

	ErrSubjectCodeExists = errors.New("a subject with this code already exists")
	ErrAlreadyEnrolled   = errors.New("enrollment already exists")
	ErrSubjectAssigned   = errors.New("subject already assigned to this class")
	ErrParentLinkExists  = errors.New("parent link already exists")
)

type (
	Repository interface {
		// classes
		CreateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		QueryClasses(ctx context.Context, filter *ClassFilter, exec ...core.DBExecutor) ([]Class, error)
		GetClassByID(ctx context.Context, id string, exec ...core.DBExecutor) (Class, error)
		UpdateClass(ctx context.Context, cls Class, isActive *bool, exec ...core.DBExecutor) (Class, error)
		DeleteClassesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error

		// subjects
		CheckSubjectCodeUniqueness(ctx context.Context, code string, excluded []Subject, exec ...core.DBExecutor) error
		CreateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id string, exec ...core.DBExecutor) (Subject, error)
		UpdateSubject(ctx context.Context, sub Subject, isActive *bool, exec ...core.DBExecutor) (Subject, error)
		DeleteSubjectsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error

		// associations; uniqueness and referential integrity come from
		// storage constraints, not application-level checks.
		CreateStudentClass(ctx context.Context, sc StudentClass, exec ...core.DBExecutor) (StudentClass, error)
		QueryStudentClasses(ctx context.Context, studentID, classID string, exec ...core.DBExecutor) ([]StudentClass, error)
		DeleteStudentClass(ctx context.Context, studentID, classID string, exec ...core.DBExecutor) error

		CreateClassSubject(ctx context.Context, cs ClassSubject, exec ...core.DBExecutor) (ClassSubject, error)
		QueryClassSubjects(ctx context.Context, classID, subjectID string, exec ...core.DBExecutor) ([]ClassSubject, error)
		DeleteClassSubject(ctx context.Context, classID, subjectID string, exec ...core.DBExecutor) error

		CreateTeacherAssignment(ctx context.Context, ta TeacherAssignment, exec ...core.DBExecutor) (TeacherAssignment, error)
		QueryTeacherAssignments(ctx context.Context, teacherID, classID, subjectID string, exec ...core.DBExecutor) ([]TeacherAssignment, error)
		DeleteTeacherAssignmentsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error

		CreateParentStudent(ctx context.Context, ps ParentStudent, exec ...core.DBExecutor) (ParentStudent, error)
		QueryParentStudents(ctx context.Context, parentID, studentID string, exec ...core.DBExecutor) ([]ParentStudent, error)
		DeleteParentStudent(ctx context.Context, parentID, studentID string, exec ...core.DBExecutor) error
	}

	// Service owns class/subject records and their associations.
	// Stateless; safe for concurrent use.
	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Classes

func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		Name:         nc.Name,
		GradeLevel:   nc.GradeLevel,
		Section:      nc.Section,
		AcademicYear: nc.AcademicYear,
		Capacity:     nc.Capacity,
		RoomNumber:   nc.RoomNumber,
		Description:  nc.Description,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if cls.Capacity == 0 {
		cls.Capacity = DefaultClassCapacity
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *Service) QueryClasses(ctx context.Context, filter *ClassFilter) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, filter)
}

func (svc *Service) GetClassByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *Service) UpdateClass(ctx context.Context, id string, uc UpdateClass) (Class, error) {
	cls := Class{
		ID:           id,
		Name:         uc.Name,
		GradeLevel:   uc.GradeLevel,
		Section:      uc.Section,
		AcademicYear: uc.AcademicYear,
		Capacity:     uc.Capacity,
		RoomNumber:   uc.RoomNumber,
		Description:  uc.Description,
		UpdatedAt:    time.Now().UTC(),
	}
	return svc.repo.UpdateClass(ctx, cls, uc.IsActive)
}

func (svc *Service) DeleteClasses(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteClassesByID(ctx, ids)
}

// Subjects

func (svc *Service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	sub := Subject{
		Name:        ns.Name,
		Code:        ns.Code,
		Description: ns.Description,
		Color:       ns.Color,
		Coefficient: ns.Coefficient,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if sub.Coefficient == 0 {
		sub.Coefficient = DefaultSubjectCoefficient
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc *Service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *Service) GetSubjectByID(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *Service) UpdateSubject(ctx context.Context, id string, us UpdateSubject) (Subject, error) {
	sub := Subject{
		ID:          id,
		Name:        us.Name,
		Description: us.Description,
		Color:       us.Color,
		Coefficient: us.Coefficient,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateSubject(ctx, sub, us.IsActive)
}

func (svc *Service) DeleteSubjects(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSubjectsByID(ctx, ids)
}

// Associations

func (svc *Service) Enroll(ctx context.Context, ne NewEnrollment) (StudentClass, error) {
	now := time.Now().UTC()
	return svc.repo.CreateStudentClass(ctx, StudentClass{
		StudentID:      ne.StudentID,
		ClassID:        ne.ClassID,
		EnrollmentDate: now,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (svc *Service) QueryEnrollments(ctx context.Context, studentID, classID string) ([]StudentClass, error) {
	return svc.repo.QueryStudentClasses(ctx, studentID, classID)
}

func (svc *Service) Unenroll(ctx context.Context, studentID, classID string) error {
	return svc.repo.DeleteStudentClass(ctx, studentID, classID)
}

func (svc *Service) AssignSubject(ctx context.Context, ncs NewClassSubject) (ClassSubject, error) {
	now := time.Now().UTC()
	return svc.repo.CreateClassSubject(ctx, ClassSubject{
		ClassID:   ncs.ClassID,
		SubjectID: ncs.SubjectID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) QueryClassSubjects(ctx context.Context, classID, subjectID string) ([]ClassSubject, error) {
	return svc.repo.QueryClassSubjects(ctx, classID, subjectID)
}

func (svc *Service) UnassignSubject(ctx context.Context, classID, subjectID string) error {
	return svc.repo.DeleteClassSubject(ctx, classID, subjectID)
}

func (svc *Service) AssignTeacher(ctx context.Context, nta NewTeacherAssignment) (TeacherAssignment, error) {
	now := time.Now().UTC()
	return svc.repo.CreateTeacherAssignment(ctx, TeacherAssignment{
		TeacherID: nta.TeacherID,
		ClassID:   nta.ClassID,
		SubjectID: nta.SubjectID,
		IsPrimary: nta.IsPrimary,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) QueryTeacherAssignments(ctx context.Context, teacherID, classID, subjectID string) ([]TeacherAssignment, error) {
	return svc.repo.QueryTeacherAssignments(ctx, teacherID, classID, subjectID)
}

func (svc *Service) UnassignTeachers(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteTeacherAssignmentsByID(ctx, ids)
}

func (svc *Service) LinkParent(ctx context.Context, npl NewParentLink) (ParentStudent, error) {
	now := time.Now().UTC()
	ps := ParentStudent{
		ParentID:     npl.ParentID,
		StudentID:    npl.StudentID,
		Relationship: npl.Relationship,
		IsPrimary:    true, // primary contact unless stated otherwise
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if npl.IsPrimary != nil {
		ps.IsPrimary = *npl.IsPrimary
	}
	return svc.repo.CreateParentStudent(ctx, ps)
}

func (svc *Service) QueryParentLinks(ctx context.Context, parentID, studentID string) ([]ParentStudent, error) {
	return svc.repo.QueryParentStudents(ctx, parentID, studentID)
}

func (svc *Service) UnlinkParent(ctx context.Context, parentID, studentID string) error {
	return svc.repo.DeleteParentStudent(ctx, parentID, studentID)
}
