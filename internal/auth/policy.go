package auth

// IsAdmin reports whether the user may perform admin-only actions. A disabled
// admin is not an admin.
func IsAdmin(user *User) bool {
	return user != nil && user.Role == RoleAdmin && user.Status == StatusActive
}

// IsActive reports whether the account is active, any role.
func IsActive(user *User) bool {
	return user != nil && user.Status == StatusActive
}
