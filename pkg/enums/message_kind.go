package enums

import "fmt"

// MessageKind classifies a user message by how it entered the thread.
type MessageKind string

const (
	MessageKindContact  MessageKind = "contact"
	MessageKindResponse MessageKind = "response"
	MessageKindPrivate  MessageKind = "private"
)

var validMessageKinds = []MessageKind{
	MessageKindContact,
	MessageKindResponse,
	MessageKindPrivate,
}

var messageKindLabels = map[MessageKind]string{
	MessageKindContact:  "پیام تماس",
	MessageKindResponse: "پاسخ ادمین",
	MessageKindPrivate:  "پیام خصوصی",
}

func (m MessageKind) String() string {
	return string(m)
}

func (m MessageKind) Label() string {
	if label, ok := messageKindLabels[m]; ok {
		return label
	}
	return UnknownLabel
}

func (m MessageKind) IsValid() bool {
	for _, candidate := range validMessageKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

func ParseMessageKind(value string) (MessageKind, error) {
	for _, candidate := range validMessageKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid message kind %q", value)
}
