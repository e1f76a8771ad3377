package messaging

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/warehouse-monitor/internal/domain"
	"github.com/jhoicas/warehouse-monitor/internal/domain/entity"
)

// Valores fijos del sobre de eventos de movimiento.
const (
	SpecVersion     = "1.0"
	EventType       = "ru.retail.warehouses.movement"
	DataSchema      = "ru.retail.warehouses.movement.v1.0"
	DataContentType = "application/json"
	Destination     = "ru.retail.warehouses"
)

// unknownMessageType etiqueta cuando el sobre no trae subject legible.
const unknownMessageType = "unknown"

// Envelope sobre estilo CloudEvents que transporta un evento de movimiento.
type Envelope struct {
	ID              string       `json:"id"`
	Source          string       `json:"source"`
	SpecVersion     string       `json:"specversion"`
	Type            string       `json:"type"`
	DataContentType string       `json:"datacontenttype"`
	DataSchema      string       `json:"dataschema"`
	Time            int64        `json:"time"` // milisegundos Unix
	Subject         string       `json:"subject"`
	Destination     string       `json:"destination"`
	Data            MovementData `json:"data"`
}

// MovementData carga útil del evento.
type MovementData struct {
	MovementID  string    `json:"movement_id"`
	WarehouseID string    `json:"warehouse_id"`
	Timestamp   time.Time `json:"timestamp"`
	Event       string    `json:"event"`
	ProductID   string    `json:"product_id"`
	Quantity    int64     `json:"quantity"`
}

// NewEnvelope arma el sobre para un evento emitido por source (p. ej. el código de bodega).
func NewEnvelope(source string, ev entity.MovementEvent, now time.Time) Envelope {
	return Envelope{
		ID:              uuid.NewString(),
		Source:          source,
		SpecVersion:     SpecVersion,
		Type:            EventType,
		DataContentType: DataContentType,
		DataSchema:      DataSchema,
		Time:            now.UnixMilli(),
		Subject:         fmt.Sprintf("%s:%s", source, strings.ToUpper(string(ev.Kind))),
		Destination:     Destination,
		Data: MovementData{
			MovementID:  ev.MovementID,
			WarehouseID: ev.WarehouseID,
			Timestamp:   ev.Timestamp.UTC(),
			Event:       string(ev.Kind),
			ProductID:   ev.ProductID,
			Quantity:    ev.Quantity,
		},
	}
}

// MessageType etiqueta del mensaje: sufijo del subject tras el último ':' en minúsculas.
func (e Envelope) MessageType() string {
	return MessageType(e.Subject)
}

// MessageType etiqueta derivada del subject ("WH-1:ARRIVAL" -> "arrival").
func MessageType(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return unknownMessageType
	}
	parts := strings.Split(subject, ":")
	t := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	if t == "" {
		return unknownMessageType
	}
	return t
}

// Event convierte la carga útil en un evento validado.
func (e Envelope) Event() (entity.MovementEvent, error) {
	kind, err := entity.ParseEventKind(e.Data.Event)
	if err != nil {
		return entity.MovementEvent{}, err
	}
	ev := entity.MovementEvent{
		MovementID:  e.Data.MovementID,
		WarehouseID: e.Data.WarehouseID,
		Kind:        kind,
		ProductID:   e.Data.ProductID,
		Timestamp:   e.Data.Timestamp.UTC(),
		Quantity:    e.Data.Quantity,
	}
	if err := ev.Validate(); err != nil {
		return entity.MovementEvent{}, err
	}
	return ev, nil
}

// Decode interpreta el cuerpo de un mensaje. Ante un cuerpo ilegible devuelve
// domain.ErrMalformedEvent y, si se pudo leer, el subject para etiquetar.
func Decode(body []byte) (Envelope, entity.MovementEvent, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		var head struct {
			Subject string `json:"subject"`
		}
		_ = json.Unmarshal(body, &head)
		return Envelope{Subject: head.Subject}, entity.MovementEvent{}, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}
	ev, err := env.Event()
	if err != nil {
		return env, entity.MovementEvent{}, err
	}
	return env, ev, nil
}

// Encode serializa el sobre a JSON.
func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}
