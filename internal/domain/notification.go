package domain

type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification is a transient toast shown to the shopper.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}
