package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/model"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore keeps users, classes and assignments in maps and applies the
// same ownership rules as the real repositories. Set failWith to make every
// call return that error.

type fakeStore struct {
	mu          sync.Mutex
	users       map[int64]*model.User
	classes     map[int64]*model.Class
	assignments map[int64]*model.Assignment
	nextID      int64
	failWith    error
	calls       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[int64]*model.User),
		classes:     make(map[int64]*model.Class),
		assignments: make(map[int64]*model.Assignment),
	}
}

func (f *fakeStore) begin() error {
	f.calls++
	return f.failWith
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return err
	}
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return apperror.Conflict("user_name", "Username already taken")
		}
	}
	u.ID = f.id()
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("User")
	}
	result := *u
	return &result, nil
}

func (f *fakeStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListStudentsByTeacher(_ context.Context, teacherID int64) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	out := []model.User{}
	for _, u := range f.users {
		if u.Role == model.RoleStudent && u.TeacherUserID != nil && *u.TeacherUserID == teacherID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateClass(_ context.Context, c *model.Class) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return err
	}
	c.ID = f.id()
	stored := *c
	f.classes[c.ID] = &stored
	return nil
}

func (f *fakeStore) ListClasses(_ context.Context, teacherID int64) ([]model.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	out := []model.Class{}
	for _, c := range f.classes {
		if c.TeacherID == teacherID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetClass(_ context.Context, id, teacherID int64) (*model.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	c, ok := f.classes[id]
	if !ok || c.TeacherID != teacherID {
		return nil, apperror.NotFound("Class")
	}
	result := *c
	return &result, nil
}

func (f *fakeStore) UpdateClass(_ context.Context, c *model.Class) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return err
	}
	existing, ok := f.classes[c.ID]
	if !ok || existing.TeacherID != c.TeacherID {
		return apperror.NotFound("Class")
	}
	stored := *c
	f.classes[c.ID] = &stored
	return nil
}

func (f *fakeStore) DeleteClass(_ context.Context, id, teacherID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return err
	}
	c, ok := f.classes[id]
	if !ok || c.TeacherID != teacherID {
		return apperror.NotFound("Class")
	}
	delete(f.classes, id)
	for aid, a := range f.assignments {
		if a.ClassID == id {
			delete(f.assignments, aid)
		}
	}
	return nil
}

func (f *fakeStore) ownedClass(classID, teacherID int64) (*model.Class, bool) {
	c, ok := f.classes[classID]
	return c, ok && c.TeacherID == teacherID
}

func (f *fakeStore) CreateAssignment(_ context.Context, a *model.Assignment, teacherID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return err
	}
	c, ok := f.ownedClass(a.ClassID, teacherID)
	if !ok {
		return apperror.NotFound("Class")
	}
	a.ID = f.id()
	a.ClassName = c.Name
	stored := *a
	f.assignments[a.ID] = &stored
	return nil
}

func (f *fakeStore) ListAssignments(_ context.Context, teacherID int64) ([]model.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	out := []model.Assignment{}
	for _, a := range f.assignments {
		if c, ok := f.ownedClass(a.ClassID, teacherID); ok {
			item := *a
			item.ClassName = c.Name
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (f *fakeStore) GetAssignment(_ context.Context, id, teacherID int64) (*model.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return nil, err
	}
	a, ok := f.assignments[id]
	if !ok {
		return nil, apperror.NotFound("Assignment")
	}
	c, owned := f.ownedClass(a.ClassID, teacherID)
	if !owned {
		return nil, apperror.NotFound("Assignment")
	}
	result := *a
	result.ClassName = c.Name
	return &result, nil
}

func (f *fakeStore) UpdateAssignment(_ context.Context, a *model.Assignment, teacherID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return err
	}
	if _, ok := f.ownedClass(a.ClassID, teacherID); !ok {
		return apperror.NotFound("Class")
	}
	existing, ok := f.assignments[a.ID]
	if !ok {
		return apperror.NotFound("Assignment")
	}
	if _, owned := f.ownedClass(existing.ClassID, teacherID); !owned {
		return apperror.NotFound("Assignment")
	}
	stored := *a
	f.assignments[a.ID] = &stored
	return nil
}

func (f *fakeStore) DeleteAssignment(_ context.Context, id, teacherID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(); err != nil {
		return err
	}
	a, ok := f.assignments[id]
	if !ok {
		return apperror.NotFound("Assignment")
	}
	if _, owned := f.ownedClass(a.ClassID, teacherID); !owned {
		return apperror.NotFound("Assignment")
	}
	delete(f.assignments, id)
	return nil
}

var errDatabaseDown = errors.New("database is down")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
