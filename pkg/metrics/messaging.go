package metrics

import "github.com/prometheus/client_golang/prometheus"

// Message directions used as label values.
const (
	DirectionToAdmin = "to_admin"
	DirectionToUser  = "to_user"
)

// MessagingMetrics counts contact-channel and private-message activity.
// A nil *MessagingMetrics is valid and records nothing.
type MessagingMetrics struct {
	contactsSubmitted prometheus.Counter
	contactResponses  prometheus.Counter
	privateMessages   *prometheus.CounterVec
	messagesRead      *prometheus.CounterVec
}

// NewMessagingMetrics registers the messaging counters on reg.
func NewMessagingMetrics(reg prometheus.Registerer) *MessagingMetrics {
	if reg == nil {
		return &MessagingMetrics{}
	}
	contactsSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "contact_messages_submitted_total",
		Help: "Contact messages submitted by users.",
	})
	contactResponses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "contact_messages_responded_total",
		Help: "Admin responses recorded on contact messages.",
	})
	privateMessages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "private_messages_sent_total",
		Help: "Private messages sent, by direction.",
	}, []string{"direction"})
	messagesRead := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "user_messages_read_total",
		Help: "Messages transitioned from unread to read, by reader role.",
	}, []string{"reader"})
	reg.MustRegister(contactsSubmitted, contactResponses, privateMessages, messagesRead)
	return &MessagingMetrics{
		contactsSubmitted: contactsSubmitted,
		contactResponses:  contactResponses,
		privateMessages:   privateMessages,
		messagesRead:      messagesRead,
	}
}

func (m *MessagingMetrics) IncContactSubmitted() {
	if m == nil || m.contactsSubmitted == nil {
		return
	}
	m.contactsSubmitted.Inc()
}

func (m *MessagingMetrics) IncContactResponded() {
	if m == nil || m.contactResponses == nil {
		return
	}
	m.contactResponses.Inc()
}

// IncPrivateSent counts a private message in the given direction.
func (m *MessagingMetrics) IncPrivateSent(direction string) {
	if m == nil || m.privateMessages == nil {
		return
	}
	m.privateMessages.WithLabelValues(normalizeLabel(direction)).Inc()
}

// IncMessageRead counts an unread → read transition performed by reader.
func (m *MessagingMetrics) IncMessageRead(reader string) {
	if m == nil || m.messagesRead == nil {
		return
	}
	m.messagesRead.WithLabelValues(normalizeLabel(reader)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
