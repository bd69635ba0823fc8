package model

// Class is a course taught by one teacher. TeacherID is the owning teacher's
// user ID and is the column every ownership-scoped query filters on.
type Class struct {
	ID        int64  `json:"class_id"`
	Name      string `json:"class_name"`
	TeacherID int64  `json:"user_id"`
	Days      string `json:"days"`
	Times     string `json:"times"`
	Location  string `json:"location"`
	Room      string `json:"room"`
}
