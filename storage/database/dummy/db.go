// Package dummydb provides in-memory repositories used in tests. The
// behaviors the real schema enforces in postgres (unique constraints,
// referential integrity, delete cascades) are emulated so services can be
// exercised without a database.
package dummydb

import (
	"sync"

	"github.com/darasa/backend/core/school"
	"github.com/darasa/backend/core/user"
)

type DB struct {
	mu sync.RWMutex

	users              map[string]*user.User
	classes            map[string]*school.Class
	subjects           map[string]*school.Subject
	studentClasses     map[string]*school.StudentClass
	classSubjects      map[string]*school.ClassSubject
	teacherAssignments map[string]*school.TeacherAssignment
	parentStudents     map[string]*school.ParentStudent
}

func Open() (*DB, error) {
	db := &DB{
		users:              make(map[string]*user.User),
		classes:            make(map[string]*school.Class),
		subjects:           make(map[string]*school.Subject),
		studentClasses:     make(map[string]*school.StudentClass),
		classSubjects:      make(map[string]*school.ClassSubject),
		teacherAssignments: make(map[string]*school.TeacherAssignment),
		parentStudents:     make(map[string]*school.ParentStudent),
	}
	return db, nil
}

// Reset drops all rows; tests call it between cases.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.users = make(map[string]*user.User)
	db.classes = make(map[string]*school.Class)
	db.subjects = make(map[string]*school.Subject)
	db.studentClasses = make(map[string]*school.StudentClass)
	db.classSubjects = make(map[string]*school.ClassSubject)
	db.teacherAssignments = make(map[string]*school.TeacherAssignment)
	db.parentStudents = make(map[string]*school.ParentStudent)
}

// cascadeUserDelete removes the association rows referencing a deleted user,
// matching the ON DELETE CASCADE actions of the real schema. Callers hold the
// write lock.
func (db *DB) cascadeUserDelete(id string) {
	for k, sc := range db.studentClasses {
		if sc.StudentID == id {
			delete(db.studentClasses, k)
		}
	}
	for k, ta := range db.teacherAssignments {
		if ta.TeacherID == id {
			delete(db.teacherAssignments, k)
		}
	}
	for k, ps := range db.parentStudents {
		if ps.ParentID == id || ps.StudentID == id {
			delete(db.parentStudents, k)
		}
	}
}

func (db *DB) cascadeClassDelete(id string) {
	for k, sc := range db.studentClasses {
		if sc.ClassID == id {
			delete(db.studentClasses, k)
		}
	}
	for k, cs := range db.classSubjects {
		if cs.ClassID == id {
			delete(db.classSubjects, k)
		}
	}
	for k, ta := range db.teacherAssignments {
		if ta.ClassID == id {
			delete(db.teacherAssignments, k)
		}
	}
}

func (db *DB) cascadeSubjectDelete(id string) {
	for k, cs := range db.classSubjects {
		if cs.SubjectID == id {
			delete(db.classSubjects, k)
		}
	}
	for k, ta := range db.teacherAssignments {
		if ta.SubjectID == id {
			delete(db.teacherAssignments, k)
		}
	}
}
