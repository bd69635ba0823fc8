package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/model"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	u := createTestTeacher(t, db, "ms.frizzle")

	if u.ID == 0 {
		t.Error("CreateUser() did not set user.ID")
	}
	if u.CreatedAt.IsZero() {
		t.Error("CreateUser() did not set user.CreatedAt")
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	original := createTestTeacher(t, db, "taken")

	duplicate := &model.User{
		Username:     "taken",
		PasswordHash: "other-hash",
		FirstName:    "Other",
		LastName:     "Person",
		Role:         model.RoleTeacher,
	}
	err := db.CreateUser(context.Background(), duplicate)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() error = %v, want ErrConflict", err)
	}
	if err.Error() != "Username already taken" {
		t.Errorf("error message = %q", err.Error())
	}

	// The original record, hash included, is untouched.
	got, err := db.GetUserByID(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.PasswordHash != original.PasswordHash {
		t.Error("duplicate insert changed the original password hash")
	}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	db := newTestDB(t)
	teacher := createTestTeacher(t, db, "teach")
	student := createTestStudent(t, db, "stud", "Lee", teacher.ID)

	got, err := db.GetUserByID(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Username != "stud" || got.Role != model.RoleStudent {
		t.Errorf("got %q/%q, want stud/student", got.Username, got.Role)
	}
	if got.TeacherUserID == nil || *got.TeacherUserID != teacher.ID {
		t.Errorf("TeacherUserID = %v, want %d", got.TeacherUserID, teacher.ID)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt was not read back")
	}

	gotTeacher, err := db.GetUserByID(context.Background(), teacher.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if gotTeacher.TeacherUserID != nil {
		t.Errorf("teacher TeacherUserID = %v, want nil", *gotTeacher.TeacherUserID)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestFindByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestTeacher(t, db, "findme")

	got, err := db.FindByUsername(context.Background(), "findme")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("FindByUsername() = %+v, want ID %d", got, created.ID)
	}
	if got.PasswordHash == "" {
		t.Error("FindByUsername() must return the hash for login")
	}
}

func TestFindByUsername_Absent(t *testing.T) {
	db := newTestDB(t)

	got, err := db.FindByUsername(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindByUsername() = %+v, want nil", got)
	}
}

func TestListStudentsByTeacher(t *testing.T) {
	db := newTestDB(t)
	t1 := createTestTeacher(t, db, "t1")
	t2 := createTestTeacher(t, db, "t2")
	createTestStudent(t, db, "s-zed", "Zed", t1.ID)
	createTestStudent(t, db, "s-abe", "Abe", t1.ID)
	createTestStudent(t, db, "s-other", "Other", t2.ID)

	students, err := db.ListStudentsByTeacher(context.Background(), t1.ID)
	if err != nil {
		t.Fatalf("ListStudentsByTeacher() error = %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("got %d students, want 2", len(students))
	}
	if students[0].Username != "s-abe" || students[1].Username != "s-zed" {
		t.Errorf("order = [%s %s], want by last name", students[0].Username, students[1].Username)
	}
}

func TestListStudentsByTeacher_Empty(t *testing.T) {
	db := newTestDB(t)
	teacher := createTestTeacher(t, db, "lonely")

	students, err := db.ListStudentsByTeacher(context.Background(), teacher.ID)
	if err != nil {
		t.Fatalf("ListStudentsByTeacher() error = %v", err)
	}
	// Must be an empty slice, not nil, so it encodes as [] in JSON.
	if students == nil || len(students) != 0 {
		t.Errorf("got %v, want empty slice", students)
	}
}
