package enums

import "fmt"

// UserType is the business role assigned to an account.
type UserType string

const (
	UserTypeNormal   UserType = "normal"
	UserTypeWorker   UserType = "worker"
	UserTypeEmployee UserType = "employee"
)

var validUserTypes = []UserType{
	UserTypeNormal,
	UserTypeWorker,
	UserTypeEmployee,
}

var userTypeLabels = map[UserType]string{
	UserTypeNormal:   "کاربر عادی",
	UserTypeWorker:   "کارگر",
	UserTypeEmployee: "کارمند",
}

// UserTypes returns the known user types in display order.
func UserTypes() []UserType {
	return append([]UserType(nil), validUserTypes...)
}

// String implements fmt.Stringer.
func (u UserType) String() string {
	return string(u)
}

// Label returns the Persian display name.
func (u UserType) Label() string {
	if label, ok := userTypeLabels[u]; ok {
		return label
	}
	return UnknownLabel
}

// IsValid reports whether the value is a known UserType.
func (u UserType) IsValid() bool {
	for _, candidate := range validUserTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserType converts raw input into a UserType.
func ParseUserType(value string) (UserType, error) {
	for _, candidate := range validUserTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user type %q", value)
}
