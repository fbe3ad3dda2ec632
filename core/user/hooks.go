package user

// CreateHooks is the ordered pre-write chain the repository applies before
// persisting a new user.
var CreateHooks = []func(*User){
	defaultRole,
}

func ApplyCreateHooks(u *User) {
	for _, hook := range CreateHooks {
		hook(u)
	}
}

func defaultRole(u *User) {
	if u.Role == "" {
		u.Role = RoleStudent
	}
}
