package notifications

import (
	"time"

	"github.com/dmitrymomot/caronakit/pkg/wire"
)

// Type classifies a notification. Tags the client does not know map to
// TypeUnknown; the original tag is kept in Notification.RawType.
type Type string

const (
	TypeRideMatchRequest    Type = "RIDE_MATCH_REQUEST"
	TypeRideRequestAccepted Type = "RIDE_REQUEST_ACCEPTED"
	TypeRideRequestRejected Type = "RIDE_REQUEST_REJECTED"
	TypeRideCancelled       Type = "RIDE_CANCELLED"
	TypeRideStarted         Type = "RIDE_STARTED"
	TypeRideReminder        Type = "RIDE_REMINDER"
	TypeSystem              Type = "SYSTEM"
	TypeUnknown             Type = "UNKNOWN"
)

var typeTags = map[string]Type{
	"RIDE_MATCH_REQUEST":    TypeRideMatchRequest,
	"SOLICITACAO_CARONA":    TypeRideMatchRequest,
	"NOVA_SOLICITACAO":      TypeRideMatchRequest,
	"RIDE_REQUEST_ACCEPTED": TypeRideRequestAccepted,
	"SOLICITACAO_ACEITA":    TypeRideRequestAccepted,
	"RIDE_REQUEST_REJECTED": TypeRideRequestRejected,
	"SOLICITACAO_RECUSADA":  TypeRideRequestRejected,
	"SOLICITACAO_REJEITADA": TypeRideRequestRejected,
	"RIDE_CANCELLED":        TypeRideCancelled,
	"RIDE_CANCELED":         TypeRideCancelled,
	"CARONA_CANCELADA":      TypeRideCancelled,
	"RIDE_STARTED":          TypeRideStarted,
	"CARONA_INICIADA":       TypeRideStarted,
	"RIDE_REMINDER":         TypeRideReminder,
	"LEMBRETE_CARONA":       TypeRideReminder,
	"SYSTEM":                TypeSystem,
	"SISTEMA":               TypeSystem,
}

// ParseType maps a wire tag to a Type. Case, accents, spaces and dashes are
// ignored.
func ParseType(tag string) Type {
	if t, ok := typeTags[wire.Fold(tag)]; ok {
		return t
	}
	return TypeUnknown
}

// Types lists every known type, TypeUnknown last.
func Types() []Type {
	return []Type{
		TypeRideMatchRequest,
		TypeRideRequestAccepted,
		TypeRideRequestRejected,
		TypeRideCancelled,
		TypeRideStarted,
		TypeRideReminder,
		TypeSystem,
		TypeUnknown,
	}
}

// Status is the delivery state of a notification.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusSent         Status = "SENT"
	StatusAcknowledged Status = "ACKNOWLEDGED"
	StatusFailed       Status = "FAILED"
)

var statusTags = map[string]Status{
	"PENDING":      StatusPending,
	"PENDENTE":     StatusPending,
	"SENT":         StatusSent,
	"ENVIADA":      StatusSent,
	"DELIVERED":    StatusSent,
	"ACKNOWLEDGED": StatusAcknowledged,
	"READ":         StatusAcknowledged,
	"LIDA":         StatusAcknowledged,
	"FAILED":       StatusFailed,
	"FALHA":        StatusFailed,
}

// ParseStatus maps a wire tag to a Status. Missing or unknown tags are
// treated as StatusPending.
func ParseStatus(tag string) Status {
	if s, ok := statusTags[wire.Fold(tag)]; ok {
		return s
	}
	return StatusPending
}

// Recipient identifies the user a notification was addressed to.
type Recipient struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Notification is a classified, normalized notification.
type Notification struct {
	ID           string     `json:"id"`
	Type         Type       `json:"type"`
	RawType      string     `json:"rawType,omitempty"`
	Status       Status     `json:"status"`
	Payload      Payload    `json:"payload"`
	CreatedAt    time.Time  `json:"createdAt"`
	RelativeTime string     `json:"relativeTime,omitempty"`
	Recipient    *Recipient `json:"recipient,omitempty"`
}

// Unread reports whether the notification counts towards the unread total.
func (n Notification) Unread() bool {
	return n.Status != StatusAcknowledged
}
