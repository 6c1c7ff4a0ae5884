package enums

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleOwner     Role = "owner"
)

func (r Role) CanModerate() bool {
	switch r {
	case RoleModerator, RoleAdmin, RoleOwner:
		return true
	}
	return false
}
