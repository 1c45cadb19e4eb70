package enums

import "fmt"

// ActorRole is the coarse role carried in access tokens.
type ActorRole string

const (
	ActorRoleUser  ActorRole = "user"
	ActorRoleStaff ActorRole = "staff"
)

// RoleFor maps the staff flag onto an ActorRole.
func RoleFor(isStaff bool) ActorRole {
	if isStaff {
		return ActorRoleStaff
	}
	return ActorRoleUser
}

func (a ActorRole) String() string {
	return string(a)
}

func (a ActorRole) IsValid() bool {
	return a == ActorRoleUser || a == ActorRoleStaff
}

func ParseActorRole(value string) (ActorRole, error) {
	role := ActorRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid actor role %q", value)
	}
	return role, nil
}
