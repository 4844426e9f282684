package notifications

import (
	"maps"
	"strings"

	"github.com/dmitrymomot/caronakit/pkg/wire"
)

// Placeholders used when a field is found neither at the top level nor in
// the nested payload.
const (
	PlaceholderPassenger   = "Passageiro"
	PlaceholderDriver      = "Motorista"
	PlaceholderOrigin      = "Origem não informada"
	PlaceholderDestination = "Destino não informado"
	PlaceholderDeparture   = "Horário a confirmar"
)

// Payload is the canonical record extracted from a notification. Identifier
// fields stay empty when absent so callers can detect them.
type Payload struct {
	RideID        string            `json:"rideId,omitempty"`
	RequestID     string            `json:"requestId,omitempty"`
	PassengerName string            `json:"passengerName"`
	DriverName    string            `json:"driverName"`
	Origin        string            `json:"origin"`
	Destination   string            `json:"destination"`
	DepartureTime string            `json:"departureTime"`
	Title         string            `json:"title"`
	Message       string            `json:"message,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

type field struct {
	paths       []string
	placeholder string
}

var (
	rideIDField = field{paths: []string{
		"rideId", "caronaId", "ride_id", "carona_id", "idCarona", "carona.id", "ride.id",
	}}
	requestIDField = field{paths: []string{
		"requestId", "solicitacaoId", "request_id", "solicitacao_id", "idSolicitacao", "solicitacao.id", "request.id",
	}}
	passengerField = field{paths: []string{
		"passengerName", "passageiroNome", "nomePassageiro", "passageiro.nome", "passenger.name", "solicitacao.passageiro.nome",
	}, placeholder: PlaceholderPassenger}
	driverField = field{paths: []string{
		"driverName", "motoristaNome", "nomeMotorista", "motorista.nome", "driver.name", "carona.motorista.nome",
	}, placeholder: PlaceholderDriver}
	originField = field{paths: []string{
		"origin", "origem", "carona.origem", "ride.origin", "pontoPartida",
	}, placeholder: PlaceholderOrigin}
	destinationField = field{paths: []string{
		"destination", "destino", "carona.destino", "ride.destination", "pontoChegada",
	}, placeholder: PlaceholderDestination}
	departureField = field{paths: []string{
		"departureTime", "dataHoraSaida", "horarioSaida", "horario", "carona.dataHoraSaida", "ride.departureTime",
	}, placeholder: PlaceholderDeparture}
	titleField   = field{paths: []string{"title", "titulo"}}
	messageField = field{paths: []string{"message", "mensagem", "body", "texto"}}

	payloadKeys = []string{"payload", "dados", "data"}
)

// resolve tries the top-level message, then the nested payload, then the
// placeholder.
func (f field) resolve(top, nested wire.Object) string {
	if v, ok := wire.Lookup(top, f.paths...); ok {
		return v
	}
	if v, ok := wire.Lookup(nested, f.paths...); ok {
		return v
	}
	return f.placeholder
}

// normalize builds the canonical Payload for a decoded message.
func normalize(top wire.Object, t Type) Payload {
	nested, text := nestedPayload(top)

	p := Payload{
		RideID:        rideIDField.resolve(top, nested),
		RequestID:     requestIDField.resolve(top, nested),
		PassengerName: passengerField.resolve(top, nested),
		DriverName:    driverField.resolve(top, nested),
		Origin:        originField.resolve(top, nested),
		Destination:   destinationField.resolve(top, nested),
		DepartureTime: departureField.resolve(top, nested),
		Title:         titleField.resolve(top, nested),
		Message:       messageField.resolve(top, nested),
		Fields:        scalars(nested),
	}
	if p.Message == "" {
		p.Message = text
	}
	if p.Title == "" {
		p.Title = DefaultTitle(t)
	}
	return p
}

// nestedPayload returns the payload object, or the raw text when the payload
// is a plain string.
func nestedPayload(top wire.Object) (wire.Object, string) {
	for _, key := range payloadKeys {
		v, ok := top[key]
		if !ok || v == nil {
			continue
		}
		if obj, ok := wire.AsObject(v); ok {
			return obj, ""
		}
		if s, ok := v.(string); ok {
			return nil, strings.TrimSpace(s)
		}
	}
	return nil, ""
}

func scalars(obj wire.Object) map[string]string {
	if len(obj) == 0 {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := wire.Scalar(v); ok {
			out[k] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var defaultTitles = map[Type]string{
	TypeRideMatchRequest:    "Nova solicitação de carona",
	TypeRideRequestAccepted: "Solicitação aceita",
	TypeRideRequestRejected: "Solicitação recusada",
	TypeRideCancelled:       "Carona cancelada",
	TypeRideStarted:         "Carona iniciada",
	TypeRideReminder:        "Lembrete de carona",
	TypeSystem:              "Aviso do sistema",
	TypeUnknown:             "Notificação",
}

// DefaultTitle returns the generic title rendered for t when the message has none.
func DefaultTitle(t Type) string {
	if title, ok := defaultTitles[t]; ok {
		return title
	}
	return defaultTitles[TypeUnknown]
}

// Clone returns a deep copy of p.
func (p Payload) Clone() Payload {
	p.Fields = maps.Clone(p.Fields)
	return p
}

// HasRideID reports whether a ride identifier was found.
func (p Payload) HasRideID() bool {
	return p.RideID != ""
}
