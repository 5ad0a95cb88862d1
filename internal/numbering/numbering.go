package numbering

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Tipo is the raffle type, which fixes the ticket number space.
type Tipo string

const (
	Milhar  Tipo = "milhar"
	Centena Tipo = "centena"
	Dezena  Tipo = "dezena"
	Grupo   Tipo = "grupo"
)

const (
	grupoMin = 1
	grupoMax = 25
)

var (
	ErrUnknownTipo  = errors.New("unknown raffle type")
	ErrEmptyValue   = errors.New("drawn value is empty")
	ErrInvalidGrupo = errors.New("grupo must be between 01 and 25")
)

// ParseTipo validates a raffle type string.
func ParseTipo(s string) (Tipo, error) {
	switch t := Tipo(strings.ToLower(strings.TrimSpace(s))); t {
	case Milhar, Centena, Dezena, Grupo:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTipo, s)
}

// Width returns how many digits a ticket number of this type has.
func (t Tipo) Width() int {
	switch t {
	case Milhar:
		return 4
	case Centena:
		return 3
	case Dezena, Grupo:
		return 2
	}
	return 0
}

// Size returns the number of tickets generated for a raffle of this type.
func (t Tipo) Size() int {
	switch t {
	case Milhar:
		return 10000
	case Centena:
		return 1000
	case Dezena:
		return 100
	case Grupo:
		return grupoMax - grupoMin + 1
	}
	return 0
}

// Generate returns the full ticket number space in ascending order.
func Generate(t Tipo) []string {
	width := t.Width()
	if width == 0 {
		return nil
	}

	if t == Grupo {
		numbers := make([]string, 0, t.Size())
		for i := grupoMin; i <= grupoMax; i++ {
			numbers = append(numbers, pad(i, width))
		}
		return numbers
	}

	numbers := make([]string, t.Size())
	for i := range numbers {
		numbers[i] = pad(i, width)
	}
	return numbers
}

// Valid reports whether numero belongs to the number space of t.
func Valid(t Tipo, numero string) bool {
	width := t.Width()
	if width == 0 || len(numero) != width || !allDigits(numero) {
		return false
	}
	if t == Grupo {
		n, _ := strconv.Atoi(numero)
		return n >= grupoMin && n <= grupoMax
	}
	return true
}

// Normalize maps an official drawn value to the ticket number it matches.
// Lottery results are usually longer than the ticket width, so the last
// width digits win; grupo results are read as an integer.
func Normalize(t Tipo, drawn string) (string, error) {
	width := t.Width()
	if width == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownTipo, t)
	}

	digits := onlyDigits(strings.TrimSpace(drawn))
	if digits == "" {
		return "", ErrEmptyValue
	}

	if t == Grupo {
		n, err := strconv.Atoi(digits)
		if err != nil {
			return "", fmt.Errorf("invalid grupo %q: %w", drawn, err)
		}
		if n < grupoMin || n > grupoMax {
			return "", ErrInvalidGrupo
		}
		return pad(n, width), nil
	}

	if len(digits) > width {
		digits = digits[len(digits)-width:]
	}
	return strings.Repeat("0", width-len(digits)) + digits, nil
}

// Sanitize strips everything but digits and keeps at most Width leading
// digits, mirroring what an input field for this raffle type accepts.
func Sanitize(t Tipo, input string) string {
	digits := onlyDigits(input)
	if width := t.Width(); width > 0 && len(digits) > width {
		digits = digits[:width]
	}
	return digits
}

func pad(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
