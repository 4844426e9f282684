package notifications

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/caronakit/pkg/wire"
)

// Parse decodes one inbound message. salvaged reports that the JSON object
// had to be extracted from surrounding noise.
func Parse(raw []byte, now time.Time) (n Notification, salvaged bool, err error) {
	obj, salvaged, err := wire.DecodeObject(raw)
	if err != nil {
		return Notification{}, false, errors.Join(ErrMalformedMessage, err)
	}
	return FromObject(obj, now), salvaged, nil
}

// FromObject classifies and normalizes a decoded notification object.
// Missing ids get a random UUID and missing timestamps are set to now.
func FromObject(obj wire.Object, now time.Time) Notification {
	rawType, _ := wire.Lookup(obj, "type", "tipo")
	status, _ := wire.Lookup(obj, "status")
	t := ParseType(rawType)

	n := Notification{
		Type:    t,
		RawType: rawType,
		Status:  ParseStatus(status),
		Payload: normalize(obj, t),
	}

	if id, ok := wire.Lookup(obj, "id", "notificationId", "notificacaoId"); ok {
		n.ID = id
	} else {
		n.ID = uuid.NewString()
	}

	if created, ok := wire.TimeAt(obj, now.Location(), "createdAt", "timestamp", "dataCriacao", "criadoEm"); ok {
		n.CreatedAt = created
	} else {
		n.CreatedAt = now
	}

	if rel, ok := wire.Lookup(obj, "relativeTime", "tempoRelativo"); ok {
		n.RelativeTime = rel
	} else {
		n.RelativeTime = RelativeTime(n.CreatedAt, now)
	}

	n.Recipient = recipient(obj)
	return n
}

func recipient(obj wire.Object) *Recipient {
	v, ok := obj.Get("recipient")
	if !ok {
		v, ok = obj.Get("destinatario")
	}
	if !ok {
		if id, ok := wire.Lookup(obj, "recipientId", "userId", "usuarioId"); ok {
			return &Recipient{ID: id}
		}
		return nil
	}
	if id, ok := wire.Scalar(v); ok {
		if id == "" {
			return nil
		}
		return &Recipient{ID: id}
	}
	r, ok := wire.AsObject(v)
	if !ok {
		return nil
	}
	id, _ := wire.Lookup(r, "id", "userId", "usuarioId")
	name, _ := wire.Lookup(r, "name", "nome")
	if id == "" && name == "" {
		return nil
	}
	return &Recipient{ID: id, Name: name}
}
