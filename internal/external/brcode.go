package external

import (
	"fmt"
	"strings"
	"unicode"

	"rifas/internal/models"
)

// BuildStaticPixPayload builds a BR Code "copia e cola" payload for a PIX key
func BuildStaticPixPayload(pixKey, merchantName, merchantCity, txid string, amount models.Money) string {
	merchantAccount := emvField("00", "br.gov.bcb.pix") + emvField("01", pixKey)

	var b strings.Builder
	b.WriteString(emvField("00", "01"))
	b.WriteString(emvField("26", merchantAccount))
	b.WriteString(emvField("52", "0000"))
	b.WriteString(emvField("53", "986"))
	if amount > 0 {
		b.WriteString(emvField("54", amount.String()))
	}
	b.WriteString(emvField("58", "BR"))
	b.WriteString(emvField("59", emvText(merchantName, 25)))
	b.WriteString(emvField("60", emvText(merchantCity, 15)))
	b.WriteString(emvField("62", emvField("05", emvTxID(txid))))
	b.WriteString("6304")

	payload := b.String()
	return payload + fmt.Sprintf("%04X", crc16CCITT([]byte(payload)))
}

func emvField(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// emvText keeps ASCII letters, digits and spaces up to max chars
func emvText(s string, max int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ') {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		out = "NA"
	}
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// emvTxID keeps alphanumerics, at most 25, "***" when empty
func emvTxID(txid string) string {
	var b strings.Builder
	for _, r := range txid {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return "***"
	}
	if len(out) > 25 {
		out = out[:25]
	}
	return out
}

func crc16CCITT(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, c := range data {
		crc ^= uint16(c) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
