package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	milhar := Generate(Milhar)
	require.Len(t, milhar, 10000)
	assert.Equal(t, "0000", milhar[0])
	assert.Equal(t, "1234", milhar[1234])
	assert.Equal(t, "9999", milhar[9999])

	assert.Len(t, Generate(Centena), 1000)

	dezena := Generate(Dezena)
	require.Len(t, dezena, 100)
	assert.Equal(t, "00", dezena[0])
	assert.Equal(t, "99", dezena[99])

	grupo := Generate(Grupo)
	require.Len(t, grupo, 25)
	assert.Equal(t, "01", grupo[0])
	assert.Equal(t, "25", grupo[24])

	assert.Nil(t, Generate(Tipo("loteca")))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(Milhar, "1234"))
	assert.True(t, Valid(Milhar, "0000"))
	assert.False(t, Valid(Milhar, "123"))
	assert.False(t, Valid(Milhar, "12a4"))
	assert.True(t, Valid(Dezena, "07"))
	assert.False(t, Valid(Dezena, "007"))
	assert.True(t, Valid(Grupo, "25"))
	assert.False(t, Valid(Grupo, "00"))
	assert.False(t, Valid(Grupo, "26"))
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		tipo  Tipo
		drawn string
		want  string
	}{
		{Milhar, "51234", "1234"},
		{Milhar, " 1234 ", "1234"},
		{Milhar, "7", "0007"},
		{Centena, "51234", "234"},
		{Dezena, "51234", "34"},
		{Dezena, "5", "05"},
		{Grupo, "7", "07"},
		{Grupo, "025", "25"},
	}

	for _, tc := range cases {
		got, err := Normalize(tc.tipo, tc.drawn)
		require.NoError(t, err, "%s %q", tc.tipo, tc.drawn)
		assert.Equal(t, tc.want, got, "%s %q", tc.tipo, tc.drawn)
	}
}

func TestNormalizeErrors(t *testing.T) {
	_, err := Normalize(Milhar, "   ")
	assert.ErrorIs(t, err, ErrEmptyValue)

	_, err = Normalize(Grupo, "26")
	assert.ErrorIs(t, err, ErrInvalidGrupo)

	_, err = Normalize(Tipo("x"), "12")
	assert.ErrorIs(t, err, ErrUnknownTipo)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "12", Sanitize(Dezena, "12345"))
	assert.Equal(t, "12", Sanitize(Dezena, "1-2"))
	assert.Equal(t, "123", Sanitize(Centena, "12345"))
	assert.Equal(t, "1234", Sanitize(Milhar, "12.345"))
	assert.Equal(t, "", Sanitize(Milhar, "abc"))
}

func TestParseTipo(t *testing.T) {
	tipo, err := ParseTipo("MILHAR")
	require.NoError(t, err)
	assert.Equal(t, Milhar, tipo)

	_, err = ParseTipo("loteca")
	assert.ErrorIs(t, err, ErrUnknownTipo)
}
