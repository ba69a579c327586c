package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasa/backend/core"
	"github.com/darasa/backend/core/school"
	"github.com/darasa/backend/storage/database"
)

const (
	classColumns = `id, name, grade_level, section, academic_year, capacity, room_number, description,
is_active, created_at, updated_at`
	subjectColumns = `id, name, code, description, color, coefficient, is_active, created_at, updated_at`

	studentClassColumns      = `id, student_id, class_id, enrollment_date, is_active, created_at, updated_at`
	classSubjectColumns      = `id, class_id, subject_id, created_at, updated_at`
	teacherAssignmentColumns = `id, teacher_id, class_id, subject_id, is_primary, created_at, updated_at`
	parentStudentColumns     = `id, parent_id, student_id, relationship, is_primary, created_at, updated_at`
)

type (
	classRow struct {
		ID           string      `db:"id"`
		Name         string      `db:"name"`
		GradeLevel   string      `db:"grade_level"`
		Section      null.String `db:"section"`
		AcademicYear string      `db:"academic_year"`
		Capacity     int         `db:"capacity"`
		RoomNumber   null.String `db:"room_number"`
		Description  null.String `db:"description"`
		IsActive     bool        `db:"is_active"`
		CreatedAt    time.Time   `db:"created_at"`
		UpdatedAt    time.Time   `db:"updated_at"`
	}

	subjectRow struct {
		ID          string      `db:"id"`
		Name        string      `db:"name"`
		Code        string      `db:"code"`
		Description null.String `db:"description"`
		Color       null.String `db:"color"`
		Coefficient float64     `db:"coefficient"`
		IsActive    bool        `db:"is_active"`
		CreatedAt   time.Time   `db:"created_at"`
		UpdatedAt   time.Time   `db:"updated_at"`
	}

	studentClassRow struct {
		ID             string    `db:"id"`
		StudentID      string    `db:"student_id"`
		ClassID        string    `db:"class_id"`
		EnrollmentDate time.Time `db:"enrollment_date"`
		IsActive       bool      `db:"is_active"`
		CreatedAt      time.Time `db:"created_at"`
		UpdatedAt      time.Time `db:"updated_at"`
	}

	classSubjectRow struct {
		ID        string    `db:"id"`
		ClassID   string    `db:"class_id"`
		SubjectID string    `db:"subject_id"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	teacherAssignmentRow struct {
		ID        string    `db:"id"`
		TeacherID string    `db:"teacher_id"`
		ClassID   string    `db:"class_id"`
		SubjectID string    `db:"subject_id"`
		IsPrimary bool      `db:"is_primary"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	parentStudentRow struct {
		ID           string      `db:"id"`
		ParentID     string      `db:"parent_id"`
		StudentID    string      `db:"student_id"`
		Relationship null.String `db:"relationship"`
		IsPrimary    bool        `db:"is_primary"`
		CreatedAt    time.Time   `db:"created_at"`
		UpdatedAt    time.Time   `db:"updated_at"`
	}
)

type schoolRepository struct {
	exec core.DBExecutor
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec core.DBExecutor) *schoolRepository {
	return &schoolRepository{exec: exec}
}

func (repo schoolRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo schoolRepository) scan(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	if err = sqlx.StructScan(rows, dest); err != nil {
		return err
	}
	return rows.Err()
}

// setBuilder accumulates "col = $n" fragments for partial updates.
type setBuilder struct {
	sets []string
	args []interface{}
}

func (b *setBuilder) set(col string, v interface{}) {
	b.args = append(b.args, v)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", col, len(b.args)))
}

func (b *setBuilder) query(table, returning string, id string) (string, []interface{}) {
	b.args = append(b.args, id)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		table, strings.Join(b.sets, ", "), len(b.args), returning)
	return q, b.args
}

// classes

func (repo schoolRepository) CreateClass(ctx context.Context, cls school.Class, exec ...core.DBExecutor) (school.Class, error) {
	cls.ID = uuid.New().String()
	query := fmt.Sprintf(`INSERT INTO classes (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING %s`, classColumns, classColumns)

	var res []classRow
	err := repo.scan(ctx, repo.getExec(exec), &res, query,
		cls.ID, cls.Name, cls.GradeLevel, cls.Section, cls.AcademicYear, cls.Capacity,
		cls.RoomNumber, cls.Description, cls.IsActive, cls.CreatedAt.UTC(), cls.UpdatedAt.UTC(),
	)
	if err != nil {
		return school.Class{}, database.TrapError(err, "inserting class")
	}
	return repo.unbindClass(res[0]), nil
}

func (repo schoolRepository) QueryClasses(ctx context.Context, filter *school.ClassFilter, exec ...core.DBExecutor) ([]school.Class, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter != nil {
		if filter.AcademicYear != "" {
			conds = append(conds, "academic_year = "+arg(filter.AcademicYear))
		}
		if filter.GradeLevel != "" {
			conds = append(conds, "grade_level = "+arg(filter.GradeLevel))
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = "+arg(*filter.IsActive))
		}
	}

	query := "SELECT " + classColumns + " FROM classes"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY academic_year DESC, name ASC"

	var res []classRow
	if err := repo.scan(ctx, repo.getExec(exec), &res, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]school.Class, 0, len(res))
	for _, row := range res {
		classes = append(classes, repo.unbindClass(row))
	}
	return classes, nil
}

func (repo schoolRepository) GetClassByID(ctx context.Context, id string, exec ...core.DBExecutor) (school.Class, error) {
	var res []classRow
	query := "SELECT " + classColumns + " FROM classes WHERE id = $1"
	if err := repo.scan(ctx, repo.getExec(exec), &res, query, id); err != nil {
		return school.Class{}, errors.Wrap(err, "getting class")
	}
	if len(res) == 0 {
		return school.Class{}, school.ErrClassNotFound
	}
	return repo.unbindClass(res[0]), nil
}

func (repo schoolRepository) UpdateClass(ctx context.Context, cls school.Class, isActive *bool, exec ...core.DBExecutor) (school.Class, error) {
	var b setBuilder
	if cls.Name != "" {
		b.set("name", cls.Name)
	}
	if cls.GradeLevel != "" {
		b.set("grade_level", cls.GradeLevel)
	}
	if cls.Section.Valid {
		b.set("section", cls.Section)
	}
	if cls.AcademicYear != "" {
		b.set("academic_year", cls.AcademicYear)
	}
	if cls.Capacity > 0 {
		b.set("capacity", cls.Capacity)
	}
	if cls.RoomNumber.Valid {
		b.set("room_number", cls.RoomNumber)
	}
	if cls.Description.Valid {
		b.set("description", cls.Description)
	}
	if isActive != nil {
		b.set("is_active", *isActive)
	}
	b.set("updated_at", time.Now().UTC())

	query, args := b.query("classes", classColumns, cls.ID)
	var res []classRow
	if err := repo.scan(ctx, repo.getExec(exec), &res, query, args...); err != nil {
		return school.Class{}, database.TrapError(err, "updating class")
	}
	if len(res) == 0 {
		return school.Class{}, school.ErrClassNotFound
	}
	return repo.unbindClass(res[0]), nil
}

func (repo schoolRepository) DeleteClassesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM classes WHERE id = ANY($1)", pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting classes")
	}
	return nil
}

func (repo schoolRepository) unbindClass(row classRow) school.Class {
	return school.Class{
		ID:           row.ID,
		Name:         row.Name,
		GradeLevel:   row.GradeLevel,
		Section:      row.Section,
		AcademicYear: row.AcademicYear,
		Capacity:     row.Capacity,
		RoomNumber:   row.RoomNumber,
		Description:  row.Description,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// subjects

func (repo schoolRepository) CheckSubjectCodeUniqueness(ctx context.Context, code string, excluded []school.Subject, exec ...core.DBExecutor) error {
	query := "SELECT EXISTS (SELECT 1 FROM subjects WHERE code = $1"
	args := []interface{}{code}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, s := range excluded {
			ids = append(ids, s.ID)
		}
		query += " AND id <> ALL($2)"
		args = append(args, pq.Array(ids))
	}
	query += ")"

	var exists bool
	if err := repo.getExec(exec).QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return errors.Wrap(err, "checking subject code uniqueness")
	}
	if exists {
		return school.ErrSubjectCodeExists
	}
	return nil
}

func (repo schoolRepository) CreateSubject(ctx context.Context, sub school.Subject, exec ...core.DBExecutor) (school.Subject, error) {
	sub.ID = uuid.New().String()
	query := fmt.Sprintf(`INSERT INTO subjects (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING %s`, subjectColumns, subjectColumns)

	var res []subjectRow
	err := repo.scan(ctx, repo.getExec(exec), &res, query,
		sub.ID, sub.Name, sub.Code, sub.Description, sub.Color, sub.Coefficient,
		sub.IsActive, sub.CreatedAt.UTC(), sub.UpdatedAt.UTC(),
	)
	if err != nil {
		return school.Subject{}, database.TrapError(err, "inserting subject")
	}
	return repo.unbindSubject(res[0]), nil
}

func (repo schoolRepository) QuerySubjects(ctx context.Context, exec ...core.DBExecutor) ([]school.Subject, error) {
	var res []subjectRow
	query := "SELECT " + subjectColumns + " FROM subjects ORDER BY name ASC"
	if err := repo.scan(ctx, repo.getExec(exec), &res, query); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]school.Subject, 0, len(res))
	for _, row := range res {
		subjects = append(subjects, repo.unbindSubject(row))
	}
	return subjects, nil
}

func (repo schoolRepository) GetSubjectByID(ctx context.Context, id string, exec ...core.DBExecutor) (school.Subject, error) {
	var res []subjectRow
	query := "SELECT " + subjectColumns + " FROM subjects WHERE id = $1"
	if err := repo.scan(ctx, repo.getExec(exec), &res, query, id); err != nil {
		return school.Subject{}, errors.Wrap(err, "getting subject")
	}
	if len(res) == 0 {
		return school.Subject{}, school.ErrSubjectNotFound
	}
	return repo.unbindSubject(res[0]), nil
}

func (repo schoolRepository) UpdateSubject(ctx context.Context, sub school.Subject, isActive *bool, exec ...core.DBExecutor) (school.Subject, error) {
	var b setBuilder
	if sub.Name != "" {
		b.set("name", sub.Name)
	}
	if sub.Description.Valid {
		b.set("description", sub.Description)
	}
	if sub.Color.Valid {
		b.set("color", sub.Color)
	}
	if sub.Coefficient > 0 {
		b.set("coefficient", sub.Coefficient)
	}
	if isActive != nil {
		b.set("is_active", *isActive)
	}
	b.set("updated_at", time.Now().UTC())

	query, args := b.query("subjects", subjectColumns, sub.ID)
	var res []subjectRow
	if err := repo.scan(ctx, repo.getExec(exec), &res, query, args...); err != nil {
		return school.Subject{}, database.TrapError(err, "updating subject")
	}
	if len(res) == 0 {
		return school.Subject{}, school.ErrSubjectNotFound
	}
	return repo.unbindSubject(res[0]), nil
}

func (repo schoolRepository) DeleteSubjectsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM subjects WHERE id = ANY($1)", pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting subjects")
	}
	return nil
}

func (repo schoolRepository) unbindSubject(row subjectRow) school.Subject {
	return school.Subject{
		ID:          row.ID,
		Name:        row.Name,
		Code:        row.Code,
		Description: row.Description,
		Color:       row.Color,
		Coefficient: row.Coefficient,
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// associations
//
// Uniqueness and referential integrity are enforced by the storage
// constraints; violations surface as conflict/integrity error kinds.

func (repo schoolRepository) CreateStudentClass(ctx context.Context, sc school.StudentClass, exec ...core.DBExecutor) (school.StudentClass, error) {
	sc.ID = uuid.New().String()
	query := fmt.Sprintf(`INSERT INTO student_classes (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING %s`, studentClassColumns, studentClassColumns)

	var res []studentClassRow
	err := repo.scan(ctx, repo.getExec(exec), &res, query,
		sc.ID, sc.StudentID, sc.ClassID, sc.EnrollmentDate.UTC(), sc.IsActive,
		sc.CreatedAt.UTC(), sc.UpdatedAt.UTC(),
	)
	if err != nil {
		return school.StudentClass{}, database.TrapError(err, "inserting enrollment")
	}
	row := res[0]
	return school.StudentClass{
		ID: row.ID, StudentID: row.StudentID, ClassID: row.ClassID,
		EnrollmentDate: row.EnrollmentDate, IsActive: row.IsActive,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

func (repo schoolRepository) QueryStudentClasses(ctx context.Context, studentID, classID string, exec ...core.DBExecutor) ([]school.StudentClass, error) {
	var (
		conds []string
		args  []interface{}
	)
	if studentID != "" {
		args = append(args, studentID)
		conds = append(conds, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if classID != "" {
		args = append(args, classID)
		conds = append(conds, fmt.Sprintf("class_id = $%d", len(args)))
	}

	query := "SELECT " + studentClassColumns + " FROM student_classes"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var res []studentClassRow
	if err := repo.scan(ctx, repo.getExec(exec), &res, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	out := make([]school.StudentClass, 0, len(res))
	for _, row := range res {
		out = append(out, school.StudentClass{
			ID: row.ID, StudentID: row.StudentID, ClassID: row.ClassID,
			EnrollmentDate: row.EnrollmentDate, IsActive: row.IsActive,
			CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

func (repo schoolRepository) DeleteStudentClass(ctx context.Context, studentID, classID string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		"DELETE FROM student_classes WHERE student_id = $1 AND class_id = $2", studentID, classID)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return repo.trapNoneAffected(res, school.ErrAssociationMissing)
}

func (repo schoolRepository) CreateClassSubject(ctx context.Context, cs school.ClassSubject, exec ...core.DBExecutor) (school.ClassSubject, error) {
	cs.ID = uuid.New().String()
	query := fmt.Sprintf(`INSERT INTO class_subjects (%s)
VALUES ($1, $2, $3, $4, $5)
RETURNING %s`, classSubjectColumns, classSubjectColumns)

	var res []classSubjectRow
	err := repo.scan(ctx, repo.getExec(exec), &res, query,
		cs.ID, cs.ClassID, cs.SubjectID, cs.CreatedAt.UTC(), cs.UpdatedAt.UTC(),
	)
	if err != nil {
		return school.ClassSubject{}, database.TrapError(err, "inserting class subject")
	}
	row := res[0]
	return school.ClassSubject{
		ID: row.ID, ClassID: row.ClassID, SubjectID: row.SubjectID,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

func (repo schoolRepository) QueryClassSubjects(ctx context.Context, classID, subjectID string, exec ...core.DBExecutor) ([]school.ClassSubject, error) {
	var (
		conds []string
		args  []interface{}
	)
	if classID != "" {
		args = append(args, classID)
		conds = append(conds, fmt.Sprintf("class_id = $%d", len(args)))
	}
	if subjectID != "" {
		args = append(args, subjectID)
		conds = append(conds, fmt.Sprintf("subject_id = $%d", len(args)))
	}

	query := "SELECT " + classSubjectColumns + " FROM class_subjects"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var res []classSubjectRow
	if err := repo.scan(ctx, repo.getExec(exec), &res, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying class subjects")
	}
	out := make([]school.ClassSubject, 0, len(res))
	for _, row := range res {
		out = append(out, school.ClassSubject{
			ID: row.ID, ClassID: row.ClassID, SubjectID: row.SubjectID,
			CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

func (repo schoolRepository) DeleteClassSubject(ctx context.Context, classID, subjectID string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		"DELETE FROM class_subjects WHERE class_id = $1 AND subject_id = $2", classID, subjectID)
	if err != nil {
		return errors.Wrap(err, "deleting class subject")
	}
	return repo.trapNoneAffected(res, school.ErrAssociationMissing)
}

func (repo schoolRepository) CreateTeacherAssignment(ctx context.Context, ta school.TeacherAssignment, exec ...core.DBExecutor) (school.TeacherAssignment, error) {
	ta.ID = uuid.New().String()
	query := fmt.Sprintf(`INSERT INTO teacher_assignments (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING %s`, teacherAssignmentColumns, teacherAssignmentColumns)

	var res []teacherAssignmentRow
	err := repo.scan(ctx, repo.getExec(exec), &res, query,
		ta.ID, ta.TeacherID, ta.ClassID, ta.SubjectID, ta.IsPrimary,
		ta.CreatedAt.UTC(), ta.UpdatedAt.UTC(),
	)
	if err != nil {
		return school.TeacherAssignment{}, database.TrapError(err, "inserting teacher assignment")
	}
	row := res[0]
	return school.TeacherAssignment{
		ID: row.ID, TeacherID: row.TeacherID, ClassID: row.ClassID, SubjectID: row.SubjectID,
		IsPrimary: row.IsPrimary, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

func (repo schoolRepository) QueryTeacherAssignments(ctx context.Context, teacherID, classID, subjectID string, exec ...core.DBExecutor) ([]school.TeacherAssignment, error) {
	var (
		conds []string
		args  []interface{}
	)
	if teacherID != "" {
		args = append(args, teacherID)
		conds = append(conds, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if classID != "" {
		args = append(args, classID)
		conds = append(conds, fmt.Sprintf("class_id = $%d", len(args)))
	}
	if subjectID != "" {
		args = append(args, subjectID)
		conds = append(conds, fmt.Sprintf("subject_id = $%d", len(args)))
	}

	query := "SELECT " + teacherAssignmentColumns + " FROM teacher_assignments"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var res []teacherAssignmentRow
	if err := repo.scan(ctx, repo.getExec(exec), &res, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying teacher assignments")
	}
	out := make([]school.TeacherAssignment, 0, len(res))
	for _, row := range res {
		out = append(out, school.TeacherAssignment{
			ID: row.ID, TeacherID: row.TeacherID, ClassID: row.ClassID, SubjectID: row.SubjectID,
			IsPrimary: row.IsPrimary, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

func (repo schoolRepository) DeleteTeacherAssignmentsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM teacher_assignments WHERE id = ANY($1)", pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting teacher assignments")
	}
	return nil
}

func (repo schoolRepository) CreateParentStudent(ctx context.Context, ps school.ParentStudent, exec ...core.DBExecutor) (school.ParentStudent, error) {
	ps.ID = uuid.New().String()
	query := fmt.Sprintf(`INSERT INTO parent_students (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING %s`, parentStudentColumns, parentStudentColumns)

	var res []parentStudentRow
	err := repo.scan(ctx, repo.getExec(exec), &res, query,
		ps.ID, ps.ParentID, ps.StudentID, ps.Relationship, ps.IsPrimary,
		ps.CreatedAt.UTC(), ps.UpdatedAt.UTC(),
	)
	if err != nil {
		return school.ParentStudent{}, database.TrapError(err, "inserting parent link")
	}
	row := res[0]
	return school.ParentStudent{
		ID: row.ID, ParentID: row.ParentID, StudentID: row.StudentID,
		Relationship: row.Relationship, IsPrimary: row.IsPrimary,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

func (repo schoolRepository) QueryParentStudents(ctx context.Context, parentID, studentID string, exec ...core.DBExecutor) ([]school.ParentStudent, error) {
	var (
		conds []string
		args  []interface{}
	)
	if parentID != "" {
		args = append(args, parentID)
		conds = append(conds, fmt.Sprintf("parent_id = $%d", len(args)))
	}
	if studentID != "" {
		args = append(args, studentID)
		conds = append(conds, fmt.Sprintf("student_id = $%d", len(args)))
	}

	query := "SELECT " + parentStudentColumns + " FROM parent_students"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var res []parentStudentRow
	if err := repo.scan(ctx, repo.getExec(exec), &res, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying parent links")
	}
	out := make([]school.ParentStudent, 0, len(res))
	for _, row := range res {
		out = append(out, school.ParentStudent{
			ID: row.ID, ParentID: row.ParentID, StudentID: row.StudentID,
			Relationship: row.Relationship, IsPrimary: row.IsPrimary,
			CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

func (repo schoolRepository) DeleteParentStudent(ctx context.Context, parentID, studentID string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		"DELETE FROM parent_students WHERE parent_id = $1 AND student_id = $2", parentID, studentID)
	if err != nil {
		return errors.Wrap(err, "deleting parent link")
	}
	return repo.trapNoneAffected(res, school.ErrAssociationMissing)
}

// trapNoneAffected maps a zero-row delete to missing.
func (repo schoolRepository) trapNoneAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "checking affected rows")
	}
	if n == 0 {
		return missing
	}
	return nil
}
