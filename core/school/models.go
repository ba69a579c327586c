package school

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Defaults applied at creation time when the caller leaves them zero.
const (
	DefaultClassCapacity      = 30
	DefaultSubjectCoefficient = 1.0
)

// Class is a group of students for an academic year, e.g. "Grade 10 - B".
type Class struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	GradeLevel   string      `json:"grade_level"`
	Section      null.String `json:"section"`
	AcademicYear string      `json:"academic_year"`
	Capacity     int         `json:"capacity"`
	RoomNumber   null.String `json:"room_number"`
	Description  null.String `json:"description"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
}

// Subject is a taught discipline. Coefficient weights grade aggregation.
type Subject struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Code        string      `json:"code"`
	Description null.String `json:"description"`
	Color       null.String `json:"color"`
	Coefficient float64     `json:"coefficient"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

// StudentClass enrolls a student into a class; the (student, class) pair is unique.
type StudentClass struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	ClassID        string    `json:"class_id"`
	EnrollmentDate time.Time `json:"enrollment_date"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// ClassSubject attaches a subject to a class's curriculum; the pair is unique.
type ClassSubject struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	SubjectID string    `json:"subject_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// TeacherAssignment puts a teacher on a (class, subject). Several teachers
// may share a pair; IsPrimary marks the main one and is not constrained.
type TeacherAssignment struct {
	ID        string    `json:"id"`
	TeacherID string    `json:"teacher_id"`
	ClassID   string    `json:"class_id"`
	SubjectID string    `json:"subject_id"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// ParentStudent links a parent to a student; the pair is unique.
type ParentStudent struct {
	ID           string      `json:"id"`
	ParentID     string      `json:"parent_id"`
	StudentID    string      `json:"student_id"`
	Relationship null.String `json:"relationship"` // e.g. Mother, Father, Guardian
	IsPrimary    bool        `json:"is_primary"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
}

// Payloads

type NewClass struct {
	Name         string      `json:"name" validate:"required,max=100"`
	GradeLevel   string      `json:"grade_level" validate:"required,max=50"`
	Section      null.String `json:"section" validate:"omitempty,max=50"`
	AcademicYear string      `json:"academic_year" validate:"required,max=20"`
	Capacity     int         `json:"capacity" validate:"omitempty,min=1"`
	RoomNumber   null.String `json:"room_number" validate:"omitempty,max=50"`
	Description  null.String `json:"description"`
}

type UpdateClass struct {
	Name         string      `json:"name" validate:"omitempty,max=100"`
	GradeLevel   string      `json:"grade_level" validate:"omitempty,max=50"`
	Section      null.String `json:"section" validate:"omitempty,max=50"`
	AcademicYear string      `json:"academic_year" validate:"omitempty,max=20"`
	Capacity     int         `json:"capacity" validate:"omitempty,min=1"`
	RoomNumber   null.String `json:"room_number" validate:"omitempty,max=50"`
	Description  null.String `json:"description"`
	IsActive     *bool       `json:"is_active"`
}

type NewSubject struct {
	Name        string      `json:"name" validate:"required,max=100"`
	Code        string      `json:"code" validate:"required,max=20"`
	Description null.String `json:"description"`
	Color       null.String `json:"color" validate:"omitempty,hexcolor"`
	Coefficient float64     `json:"coefficient" validate:"omitempty,gt=0"`
}

type UpdateSubject struct {
	Name        string      `json:"name" validate:"omitempty,max=100"`
	Description null.String `json:"description"`
	Color       null.String `json:"color" validate:"omitempty,hexcolor"`
	Coefficient float64     `json:"coefficient" validate:"omitempty,gt=0"`
	IsActive    *bool       `json:"is_active"`
}

type NewEnrollment struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	ClassID   string `json:"class_id" validate:"required,uuid4"`
}

type NewClassSubject struct {
	ClassID   string `json:"class_id" validate:"required,uuid4"`
	SubjectID string `json:"subject_id" validate:"required,uuid4"`
}

type NewTeacherAssignment struct {
	TeacherID string `json:"teacher_id" validate:"required,uuid4"`
	ClassID   string `json:"class_id" validate:"required,uuid4"`
	SubjectID string `json:"subject_id" validate:"required,uuid4"`
	IsPrimary bool   `json:"is_primary"`
}

type NewParentLink struct {
	ParentID     string      `json:"parent_id" validate:"required,uuid4"`
	StudentID    string      `json:"student_id" validate:"required,uuid4"`
	Relationship null.String `json:"relationship" validate:"omitempty,max=50"`
	IsPrimary    *bool       `json:"is_primary"`
}

// ClassFilter filters class queries; zero fields are ignored.
type ClassFilter struct {
	AcademicYear string `json:"academic_year"`
	GradeLevel   string `json:"grade_level"`
	IsActive     *bool  `json:"is_active"`
}
