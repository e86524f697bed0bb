package domain

// Role constants define the allowed account roles.
const (
	RoleStandard = "standard"
	RoleAdmin    = "admin"
)

// ValidRoles returns the set of valid account roles.
func ValidRoles() []string {
	return []string{RoleStandard, RoleAdmin}
}

// IsValidRole checks whether the given role string is a valid account role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}
