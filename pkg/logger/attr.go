package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
// An empty id produces an empty Attr.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// RideID records the ride identifier under the key "ride_id".
// An empty id produces an empty Attr.
func RideID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("ride_id", id)
}

// NotificationID records the notification identifier under the key "notification_id".
func NotificationID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("notification_id", id)
}

// SubscriptionID records a pub/sub subscription identifier.
func SubscriptionID(id string) slog.Attr {
	return slog.String("subscription_id", id)
}

// Topic records the topic a message was received on or subscribed to.
func Topic(topic string) slog.Attr {
	return slog.String("topic", topic)
}

// Destination records the destination a message is published to.
func Destination(dest string) slog.Attr {
	return slog.String("destination", dest)
}

// Endpoint records the connection endpoint URL.
func Endpoint(url string) slog.Attr {
	return slog.String("endpoint", url)
}

// State records a state name under the key "state".
func State(state any) slog.Attr {
	return slog.Any("state", state)
}

// Role records a role name under the key "role".
// If role is nil, it returns an empty Attr.
func Role(role any) slog.Attr {
	if role == nil {
		return slog.Attr{}
	}
	return slog.Any("role", role)
}

// EventType records the event type under the key "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Raw records a truncated copy of an unparsable payload under the key "raw".
// Payloads longer than 256 bytes are cut to keep log lines bounded.
func Raw(b []byte) slog.Attr {
	const limit = 256
	if len(b) > limit {
		return slog.String("raw", string(b[:limit])+"...")
	}
	return slog.String("raw", string(b))
}
