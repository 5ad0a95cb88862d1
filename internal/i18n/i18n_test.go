package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessages(t *testing.T) {
	assert.Equal(t, "E-mail ou senha incorretos", T(MsgInvalidCredentials))
	assert.Equal(t, "Sessão expirada, faça login novamente", T(MsgTokenExpired))
	assert.Equal(t, "Número indisponível", T(MsgNumberUnavailable))
	assert.Equal(t, "Tempo de reserva expirado! O número foi liberado.", T(MsgReservationReleased))
}

func TestTemplateData(t *testing.T) {
	assert.Equal(t, "Número 1234 reservado com sucesso",
		T(MsgReservationCreated, map[string]any{"Numero": "1234"}))
}

func TestUnknownMessageFallsBack(t *testing.T) {
	assert.Equal(t, "Ocorreu um erro inesperado. Tente novamente.", T("doesNotExist"))
}
