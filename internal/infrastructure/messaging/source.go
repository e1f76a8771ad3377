package messaging

import "context"

// Delivery mensaje recibido que debe confirmarse o rechazarse exactamente una vez.
type Delivery interface {
	Body() []byte
	Ack() error
	// Reject descarta el mensaje; con requeue el transporte lo vuelve a entregar.
	Reject(requeue bool) error
}

// Source origen de mensajes. Next bloquea hasta recibir uno o hasta que ctx se cancele.
type Source interface {
	Next(ctx context.Context) (Delivery, error)
	Close() error
}
