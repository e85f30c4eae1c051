package models

// Role is the privilege carried in a bearer token
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
)

// Viewer identifies who is reading. The zero value is an anonymous
// public reader.
type Viewer struct {
	Role     Role
	AuthorID int64
}

// IsAdmin reports whether the viewer has the admin role
func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// CanModerate reports whether the viewer may see every comment status on
// a review written by authorID.
func (v Viewer) CanModerate(authorID int64) bool {
	if v.IsAdmin() {
		return true
	}
	return v.Role == RoleAuthor && v.AuthorID != 0 && v.AuthorID == authorID
}
