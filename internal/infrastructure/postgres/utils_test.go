package postgres

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/warehouse-monitor/internal/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"check", &pgconn.PgError{Code: "23514"}, domain.ErrInvariantViolation},
		{"conexión", &pgconn.PgError{Code: "08006"}, domain.ErrStoreUnavailable},
		{"apagado", &pgconn.PgError{Code: "57P01"}, domain.ErrStoreUnavailable},
		{"demasiadas conexiones", &pgconn.PgError{Code: "53300"}, domain.ErrStoreUnavailable},
		{"eof", io.ErrUnexpectedEOF, domain.ErrStoreUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError("op", tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	t.Run("otros errores solo se envuelven", func(t *testing.T) {
		boom := errors.New("boom")
		got := mapError("op", boom)
		assert.ErrorIs(t, got, boom)
		assert.Equal(t, domain.ErrorTypeUnknown, domain.ErrorType(got))
	})

	t.Run("cancelación no es indisponibilidad", func(t *testing.T) {
		got := mapError("op", context.Canceled)
		assert.NotErrorIs(t, got, domain.ErrStoreUnavailable)
		assert.ErrorIs(t, got, context.Canceled)
	})

	t.Run("sintaxis no es indisponibilidad", func(t *testing.T) {
		got := mapError("op", &pgconn.PgError{Code: "42601"})
		assert.NotErrorIs(t, got, domain.ErrStoreUnavailable)
	})
}
