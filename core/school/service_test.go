package school_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/darasa/backend/core"
	"github.com/darasa/backend/core/school"
	"github.com/darasa/backend/core/user"
	dummydb "github.com/darasa/backend/storage/database/dummy"
)

// fixture wires the school service and a user repository against a shared
// in-memory database so referential integrity and cascades can be observed.
type fixture struct {
	svc     *school.Service
	usrRepo user.Repository
}

func setup(t *testing.T) fixture {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed, %v", err)
	}
	return fixture{
		svc:     school.NewService(dummydb.NewSchoolRepository(db)),
		usrRepo: dummydb.NewUserRepository(db),
	}
}

func (f fixture) createUser(t *testing.T, email, role string) user.User {
	t.Helper()

	usr, err := f.usrRepo.CreateUser(context.Background(), user.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Role:      role,
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed, %v", err)
	}
	return usr
}

func (f fixture) createClass(t *testing.T, name string) school.Class {
	t.Helper()

	cls, err := f.svc.CreateClass(context.Background(), school.NewClass{
		Name:         name,
		GradeLevel:   "6",
		AcademicYear: "2026-2027",
	})
	if err != nil {
		t.Fatalf("CreateClass() failed, %v", err)
	}
	return cls
}

func (f fixture) createSubject(t *testing.T, name, code string) school.Subject {
	t.Helper()

	sub, err := f.svc.CreateSubject(context.Background(), school.NewSubject{Name: name, Code: code})
	if err != nil {
		t.Fatalf("CreateSubject() failed, %v", err)
	}
	return sub
}

func TestService_CreateClass(t *testing.T) {
	f := setup(t)

	cls := f.createClass(t, "6eme A")
	assert.NotEmpty(t, cls.ID)
	assert.Equal(t, school.DefaultClassCapacity, cls.Capacity)
	assert.True(t, cls.IsActive)

	cls, err := f.svc.CreateClass(context.Background(), school.NewClass{
		Name:         "6eme B",
		GradeLevel:   "6",
		AcademicYear: "2026-2027",
		Capacity:     45,
	})
	assert.NoError(t, err)
	assert.Equal(t, 45, cls.Capacity)
}

func TestService_CreateSubject(t *testing.T) {
	f := setup(t)

	sub := f.createSubject(t, "Mathematics", "MATH")
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, school.DefaultSubjectCoefficient, sub.Coefficient)

	_, err := f.svc.CreateSubject(context.Background(), school.NewSubject{
		Name: "Maths II", Code: "MATH", Coefficient: 2,
	})
	assert.True(t, core.IsConflict(err))
}

func TestService_Enroll(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	student := f.createUser(t, "student@test.cd", user.RoleStudent)
	cls := f.createClass(t, "6eme A")

	// unknown references are storage integrity violations
	_, err := f.svc.Enroll(ctx, school.NewEnrollment{StudentID: "nope", ClassID: cls.ID})
	assert.True(t, core.IsIntegrityError(err))

	sc, err := f.svc.Enroll(ctx, school.NewEnrollment{StudentID: student.ID, ClassID: cls.ID})
	assert.NoError(t, err)
	assert.NotEmpty(t, sc.ID)
	assert.False(t, sc.EnrollmentDate.IsZero())

	// the (student, class) pair is unique
	_, err = f.svc.Enroll(ctx, school.NewEnrollment{StudentID: student.ID, ClassID: cls.ID})
	assert.True(t, core.IsConflict(err))

	enrollments, err := f.svc.QueryEnrollments(ctx, student.ID, "")
	assert.NoError(t, err)
	assert.Len(t, enrollments, 1)

	assert.NoError(t, f.svc.Unenroll(ctx, student.ID, cls.ID))
	err = f.svc.Unenroll(ctx, student.ID, cls.ID)
	assert.Equal(t, school.ErrAssociationMissing, errors.Cause(err))
}

func TestService_AssignSubject(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cls := f.createClass(t, "6eme A")
	sub := f.createSubject(t, "Mathematics", "MATH")

	cs, err := f.svc.AssignSubject(ctx, school.NewClassSubject{ClassID: cls.ID, SubjectID: sub.ID})
	assert.NoError(t, err)
	assert.NotEmpty(t, cs.ID)

	_, err = f.svc.AssignSubject(ctx, school.NewClassSubject{ClassID: cls.ID, SubjectID: sub.ID})
	assert.True(t, core.IsConflict(err))

	assert.NoError(t, f.svc.UnassignSubject(ctx, cls.ID, sub.ID))
	err = f.svc.UnassignSubject(ctx, cls.ID, sub.ID)
	assert.Equal(t, school.ErrAssociationMissing, errors.Cause(err))
}

func TestService_AssignTeacher(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	teacher := f.createUser(t, "teacher@test.cd", user.RoleTeacher)
	cls := f.createClass(t, "6eme A")
	sub := f.createSubject(t, "Mathematics", "MATH")

	ta, err := f.svc.AssignTeacher(ctx, school.NewTeacherAssignment{
		TeacherID: teacher.ID, ClassID: cls.ID, SubjectID: sub.ID, IsPrimary: true,
	})
	assert.NoError(t, err)
	assert.True(t, ta.IsPrimary)

	assignments, err := f.svc.QueryTeacherAssignments(ctx, teacher.ID, cls.ID, "")
	assert.NoError(t, err)
	assert.Len(t, assignments, 1)

	assert.NoError(t, f.svc.UnassignTeachers(ctx, ta.ID))
	assignments, err = f.svc.QueryTeacherAssignments(ctx, teacher.ID, "", "")
	assert.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestService_LinkParent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	parent := f.createUser(t, "parent@test.cd", user.RoleParent)
	student := f.createUser(t, "student@test.cd", user.RoleStudent)

	// primary contact unless stated otherwise
	ps, err := f.svc.LinkParent(ctx, school.NewParentLink{ParentID: parent.ID, StudentID: student.ID})
	assert.NoError(t, err)
	assert.True(t, ps.IsPrimary)

	_, err = f.svc.LinkParent(ctx, school.NewParentLink{ParentID: parent.ID, StudentID: student.ID})
	assert.True(t, core.IsConflict(err))

	assert.NoError(t, f.svc.UnlinkParent(ctx, parent.ID, student.ID))

	isPrimary := false
	ps, err = f.svc.LinkParent(ctx, school.NewParentLink{
		ParentID: parent.ID, StudentID: student.ID, IsPrimary: &isPrimary,
	})
	assert.NoError(t, err)
	assert.False(t, ps.IsPrimary)
}

func TestCascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	student := f.createUser(t, "student@test.cd", user.RoleStudent)
	parent := f.createUser(t, "parent@test.cd", user.RoleParent)
	cls := f.createClass(t, "6eme A")
	sub := f.createSubject(t, "Mathematics", "MATH")

	_, err := f.svc.Enroll(ctx, school.NewEnrollment{StudentID: student.ID, ClassID: cls.ID})
	assert.NoError(t, err)
	_, err = f.svc.AssignSubject(ctx, school.NewClassSubject{ClassID: cls.ID, SubjectID: sub.ID})
	assert.NoError(t, err)
	_, err = f.svc.LinkParent(ctx, school.NewParentLink{ParentID: parent.ID, StudentID: student.ID})
	assert.NoError(t, err)

	t.Run("deleting a user removes their associations", func(t *testing.T) {
		assert.NoError(t, f.usrRepo.DeleteUsersByID(ctx, []string{student.ID}))

		enrollments, err := f.svc.QueryEnrollments(ctx, "", cls.ID)
		assert.NoError(t, err)
		assert.Empty(t, enrollments)

		links, err := f.svc.QueryParentLinks(ctx, parent.ID, "")
		assert.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("deleting a class removes its subject assignments", func(t *testing.T) {
		assert.NoError(t, f.svc.DeleteClasses(ctx, cls.ID))

		assignments, err := f.svc.QueryClassSubjects(ctx, cls.ID, "")
		assert.NoError(t, err)
		assert.Empty(t, assignments)
	})
}
