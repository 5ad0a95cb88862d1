// Package i18n holds the pt-BR user-facing messages shared by the API and the client.
package i18n

import (
	"embed"
	"sync"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Message ids
const (
	MsgInvalidCredentials     = "invalidCredentials"
	MsgUserNotFound           = "userNotFound"
	MsgTokenExpired           = "tokenExpired"
	MsgUnexpected             = "unexpected"
	MsgNetworkError           = "networkError"
	MsgInactiveUser           = "inactiveUser"
	MsgUserExists             = "userExists"
	MsgInvalidData            = "invalidData"
	MsgAccessDenied           = "accessDenied"
	MsgNotFound               = "notFound"
	MsgNumberUnavailable      = "numberUnavailable"
	MsgRaffleNotActive        = "raffleNotActive"
	MsgRaffleNotClosed        = "raffleNotClosed"
	MsgInvalidTransition      = "invalidTransition"
	MsgResultRequired         = "resultRequired"
	MsgNoPaidNumbers          = "noPaidNumbers"
	MsgRateLimited            = "rateLimited"
	MsgReservationExpired     = "reservationExpired"
	MsgPaymentError           = "paymentError"
	MsgReservationCreated     = "reservationCreated"
	MsgReservationReleased    = "reservationReleased"
	MsgResultRecorded         = "resultRecorded"
	MsgNumberCancelled        = "numberCancelled"
	MsgNumberMarkedPaid       = "numberMarkedPaid"
	MsgWinnerNotice           = "winnerNotice"
	MsgSettlementAnnouncement = "settlementAnnouncement"
)

//go:embed locales/*.toml
var locales embed.FS

var (
	bundle    *goi18n.Bundle
	localizer *goi18n.Localizer
	once      sync.Once
)

func load() {
	bundle = goi18n.NewBundle(language.BrazilianPortuguese)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	if _, err := bundle.LoadMessageFileFS(locales, "locales/active.pt-BR.toml"); err != nil {
		panic("failed to load pt-BR messages: " + err.Error())
	}
	localizer = goi18n.NewLocalizer(bundle, language.BrazilianPortuguese.String())
}

// T returns the pt-BR text for messageID. Unknown ids fall back to the
// generic unexpected-error message.
func T(messageID string, templateData ...map[string]any) string {
	once.Do(load)

	cfg := &goi18n.LocalizeConfig{MessageID: messageID}
	if len(templateData) > 0 {
		cfg.TemplateData = templateData[0]
	}

	msg, err := localizer.Localize(cfg)
	if err != nil {
		if messageID == MsgUnexpected {
			return "Ocorreu um erro inesperado. Tente novamente."
		}
		return T(MsgUnexpected)
	}
	return msg
}
