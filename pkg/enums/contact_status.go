package enums

import "fmt"

// ContactStatus tracks a contact message through pending → read → replied.
type ContactStatus string

const (
	ContactStatusPending ContactStatus = "pending"
	ContactStatusRead    ContactStatus = "read"
	ContactStatusReplied ContactStatus = "replied"
)

var validContactStatuses = []ContactStatus{
	ContactStatusPending,
	ContactStatusRead,
	ContactStatusReplied,
}

var contactStatusLabels = map[ContactStatus]string{
	ContactStatusPending: "در انتظار",
	ContactStatusRead:    "خوانده شده",
	ContactStatusReplied: "پاسخ داده شده",
}

func (c ContactStatus) String() string {
	return string(c)
}

func (c ContactStatus) Label() string {
	if label, ok := contactStatusLabels[c]; ok {
		return label
	}
	return UnknownLabel
}

// IsValid reports whether the value is a known ContactStatus.
func (c ContactStatus) IsValid() bool {
	for _, candidate := range validContactStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// CanRespond reports whether an admin response may still be recorded.
func (c ContactStatus) CanRespond() bool {
	return c == ContactStatusPending || c == ContactStatusRead
}

// ParseContactStatus converts raw input into a ContactStatus.
func ParseContactStatus(value string) (ContactStatus, error) {
	for _, candidate := range validContactStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contact status %q", value)
}
