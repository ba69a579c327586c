package dummydb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasa/backend/core"
	"github.com/darasa/backend/core/school"
)

var errMissingParent = errors.New("referenced row does not exist")

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

// referential integrity emulation; callers hold at least the read lock.

func (repo *schoolRepository) userExists(id string) bool {
	_, ok := repo.db.users[id]
	return ok
}

func (repo *schoolRepository) classExists(id string) bool {
	_, ok := repo.db.classes[id]
	return ok
}

func (repo *schoolRepository) subjectExists(id string) bool {
	_, ok := repo.db.subjects[id]
	return ok
}

// classes

func (repo *schoolRepository) CreateClass(ctx context.Context, cls school.Class, exec ...core.DBExecutor) (school.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cls.ID = uuid.New().String()
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *schoolRepository) QueryClasses(ctx context.Context, filter *school.ClassFilter, exec ...core.DBExecutor) ([]school.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	classes := make([]school.Class, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		if filter != nil {
			if filter.AcademicYear != "" && cls.AcademicYear != filter.AcademicYear {
				continue
			}
			if filter.GradeLevel != "" && cls.GradeLevel != filter.GradeLevel {
				continue
			}
			if filter.IsActive != nil && cls.IsActive != *filter.IsActive {
				continue
			}
		}
		classes = append(classes, *cls)
	}
	return classes, nil
}

func (repo *schoolRepository) GetClassByID(ctx context.Context, id string, exec ...core.DBExecutor) (school.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return *cls, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *schoolRepository) UpdateClass(ctx context.Context, cls school.Class, isActive *bool, exec ...core.DBExecutor) (school.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.classes[cls.ID]
	if !ok {
		return school.Class{}, school.ErrClassNotFound
	}

	updated := *orig
	if cls.Name != "" {
		updated.Name = cls.Name
	}
	if cls.GradeLevel != "" {
		updated.GradeLevel = cls.GradeLevel
	}
	if cls.Section.Valid {
		updated.Section = cls.Section
	}
	if cls.AcademicYear != "" {
		updated.AcademicYear = cls.AcademicYear
	}
	if cls.Capacity > 0 {
		updated.Capacity = cls.Capacity
	}
	if cls.RoomNumber.Valid {
		updated.RoomNumber = cls.RoomNumber
	}
	if cls.Description.Valid {
		updated.Description = cls.Description
	}
	if isActive != nil {
		updated.IsActive = *isActive
	}
	if !cls.UpdatedAt.IsZero() {
		updated.UpdatedAt = cls.UpdatedAt
	}

	repo.db.classes[updated.ID] = &updated
	return updated, nil
}

func (repo *schoolRepository) DeleteClassesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.classes, id)
		repo.db.cascadeClassDelete(id)
	}
	return nil
}

// subjects

func (repo *schoolRepository) CheckSubjectCodeUniqueness(ctx context.Context, code string, excluded []school.Subject, exec ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, sub := range repo.db.subjects {
		if sub.Code != code {
			continue
		}
		isExcl := false
		for _, ex := range excluded {
			if ex.ID == sub.ID {
				isExcl = true
				break
			}
		}
		if !isExcl {
			return school.ErrSubjectCodeExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateSubject(ctx context.Context, sub school.Subject, exec ...core.DBExecutor) (school.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, s := range repo.db.subjects {
		if s.Code == sub.Code {
			return school.Subject{}, core.NewConflictError(school.ErrSubjectCodeExists, "subjects_code_key")
		}
	}

	sub.ID = uuid.New().String()
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]school.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subjects := make([]school.Subject, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		subjects = append(subjects, *sub)
	}
	return subjects, nil
}

func (repo *schoolRepository) GetSubjectByID(ctx context.Context, id string, exec ...core.DBExecutor) (school.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok {
		return *sub, nil
	}
	return school.Subject{}, school.ErrSubjectNotFound
}

func (repo *schoolRepository) UpdateSubject(ctx context.Context, sub school.Subject, isActive *bool, exec ...core.DBExecutor) (school.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.subjects[sub.ID]
	if !ok {
		return school.Subject{}, school.ErrSubjectNotFound
	}

	updated := *orig
	if sub.Name != "" {
		updated.Name = sub.Name
	}
	if sub.Description.Valid {
		updated.Description = sub.Description
	}
	if sub.Color.Valid {
		updated.Color = sub.Color
	}
	if sub.Coefficient > 0 {
		updated.Coefficient = sub.Coefficient
	}
	if isActive != nil {
		updated.IsActive = *isActive
	}
	if !sub.UpdatedAt.IsZero() {
		updated.UpdatedAt = sub.UpdatedAt
	}

	repo.db.subjects[updated.ID] = &updated
	return updated, nil
}

func (repo *schoolRepository) DeleteSubjectsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.subjects, id)
		repo.db.cascadeSubjectDelete(id)
	}
	return nil
}

// associations

func (repo *schoolRepository) CreateStudentClass(ctx context.Context, sc school.StudentClass, exec ...core.DBExecutor) (school.StudentClass, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.userExists(sc.StudentID) || !repo.classExists(sc.ClassID) {
		return school.StudentClass{}, core.NewIntegrityError(errMissingParent, "student_classes_fkey")
	}
	for _, existing := range repo.db.studentClasses {
		if existing.StudentID == sc.StudentID && existing.ClassID == sc.ClassID {
			return school.StudentClass{}, core.NewConflictError(school.ErrAlreadyEnrolled, "unique_student_class")
		}
	}

	sc.ID = uuid.New().String()
	repo.db.studentClasses[sc.ID] = &sc
	return sc, nil
}

func (repo *schoolRepository) QueryStudentClasses(ctx context.Context, studentID, classID string, exec ...core.DBExecutor) ([]school.StudentClass, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var out []school.StudentClass
	for _, sc := range repo.db.studentClasses {
		if studentID != "" && sc.StudentID != studentID {
			continue
		}
		if classID != "" && sc.ClassID != classID {
			continue
		}
		out = append(out, *sc)
	}
	return out, nil
}

func (repo *schoolRepository) DeleteStudentClass(ctx context.Context, studentID, classID string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for k, sc := range repo.db.studentClasses {
		if sc.StudentID == studentID && sc.ClassID == classID {
			delete(repo.db.studentClasses, k)
			return nil
		}
	}
	return school.ErrAssociationMissing
}

func (repo *schoolRepository) CreateClassSubject(ctx context.Context, cs school.ClassSubject, exec ...core.DBExecutor) (school.ClassSubject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.classExists(cs.ClassID) || !repo.subjectExists(cs.SubjectID) {
		return school.ClassSubject{}, core.NewIntegrityError(errMissingParent, "class_subjects_fkey")
	}
	for _, existing := range repo.db.classSubjects {
		if existing.ClassID == cs.ClassID && existing.SubjectID == cs.SubjectID {
			return school.ClassSubject{}, core.NewConflictError(school.ErrSubjectAssigned, "unique_class_subject")
		}
	}

	cs.ID = uuid.New().String()
	repo.db.classSubjects[cs.ID] = &cs
	return cs, nil
}

func (repo *schoolRepository) QueryClassSubjects(ctx context.Context, classID, subjectID string, exec ...core.DBExecutor) ([]school.ClassSubject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var out []school.ClassSubject
	for _, cs := range repo.db.classSubjects {
		if classID != "" && cs.ClassID != classID {
			continue
		}
		if subjectID != "" && cs.SubjectID != subjectID {
			continue
		}
		out = append(out, *cs)
	}
	return out, nil
}

func (repo *schoolRepository) DeleteClassSubject(ctx context.Context, classID, subjectID string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for k, cs := range repo.db.classSubjects {
		if cs.ClassID == classID && cs.SubjectID == subjectID {
			delete(repo.db.classSubjects, k)
			return nil
		}
	}
	return school.ErrAssociationMissing
}

func (repo *schoolRepository) CreateTeacherAssignment(ctx context.Context, ta school.TeacherAssignment, exec ...core.DBExecutor) (school.TeacherAssignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.userExists(ta.TeacherID) || !repo.classExists(ta.ClassID) || !repo.subjectExists(ta.SubjectID) {
		return school.TeacherAssignment{}, core.NewIntegrityError(errMissingParent, "teacher_assignments_fkey")
	}

	ta.ID = uuid.New().String()
	repo.db.teacherAssignments[ta.ID] = &ta
	return ta, nil
}

func (repo *schoolRepository) QueryTeacherAssignments(ctx context.Context, teacherID, classID, subjectID string, exec ...core.DBExecutor) ([]school.TeacherAssignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var out []school.TeacherAssignment
	for _, ta := range repo.db.teacherAssignments {
		if teacherID != "" && ta.TeacherID != teacherID {
			continue
		}
		if classID != "" && ta.ClassID != classID {
			continue
		}
		if subjectID != "" && ta.SubjectID != subjectID {
			continue
		}
		out = append(out, *ta)
	}
	return out, nil
}

func (repo *schoolRepository) DeleteTeacherAssignmentsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.teacherAssignments, id)
	}
	return nil
}

func (repo *schoolRepository) CreateParentStudent(ctx context.Context, ps school.ParentStudent, exec ...core.DBExecutor) (school.ParentStudent, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.userExists(ps.ParentID) || !repo.userExists(ps.StudentID) {
		return school.ParentStudent{}, core.NewIntegrityError(errMissingParent, "parent_students_fkey")
	}
	for _, existing := range repo.db.parentStudents {
		if existing.ParentID == ps.ParentID && existing.StudentID == ps.StudentID {
			return school.ParentStudent{}, core.NewConflictError(school.ErrParentLinkExists, "unique_parent_student")
		}
	}

	ps.ID = uuid.New().String()
	repo.db.parentStudents[ps.ID] = &ps
	return ps, nil
}

func (repo *schoolRepository) QueryParentStudents(ctx context.Context, parentID, studentID string, exec ...core.DBExecutor) ([]school.ParentStudent, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var out []school.ParentStudent
	for _, ps := range repo.db.parentStudents {
		if parentID != "" && ps.ParentID != parentID {
			continue
		}
		if studentID != "" && ps.StudentID != studentID {
			continue
		}
		out = append(out, *ps)
	}
	return out, nil
}

func (repo *schoolRepository) DeleteParentStudent(ctx context.Context, parentID, studentID string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for k, ps := range repo.db.parentStudents {
		if ps.ParentID == parentID && ps.StudentID == studentID {
			delete(repo.db.parentStudents, k)
			return nil
		}
	}
	return school.ErrAssociationMissing
}
