package auth

import (
	"fmt"

	"github.com/sakif/classroom/internal/apperror"
	"github.com/sakif/classroom/internal/model"
)

// RequireRole returns apperror.Forbidden unless id holds role. An Identity
// whose role was never loaded is treated as holding no role.
func RequireRole(id Identity, role model.Role) error {
	if id.Role != role {
		return apperror.Forbidden(fmt.Sprintf("Only a %s may perform this action", role))
	}
	return nil
}

// OwnerScope returns the teacher ID whose classes and assignments id may see.
//
//	teacher → own user ID
//	student → teacher_user_id of the student's record
//
// ok is false for a student without a teacher (and for an Identity without a
// loaded role); such callers see nothing.
func OwnerScope(id Identity) (teacherID int64, ok bool) {
	switch id.Role {
	case model.RoleTeacher:
		return id.UserID, true
	case model.RoleStudent:
		if id.TeacherUserID != nil && *id.TeacherUserID > 0 {
			return *id.TeacherUserID, true
		}
	}
	return 0, false
}
