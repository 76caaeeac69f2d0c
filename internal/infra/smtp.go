package infra

import (
	"fmt"
	"net/smtp"

	"credipos/internal/config"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
)

// Mailer wraps SMTP configuration for supervision notifications.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	destino  string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		destino:  cfg.NotificacionEmail,
	}
}

// NotificarLoteRequiereAutorizacion avisa a supervisión que un lote simulado
// superó el umbral de cambio promedio y espera aprobación.
func (m *Mailer) NotificarLoteRequiereAutorizacion(nombre string, promedioPct decimal.Decimal, loteID string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{m.destino}
	e.Subject = fmt.Sprintf("Lote de cambio de precios requiere autorización: %s", nombre)
	e.Text = []byte(fmt.Sprintf(
		"El lote %q (id %s) fue simulado con un cambio promedio de %s%% y requiere autorización de un supervisor.",
		nombre, loteID, promedioPct.String(),
	))

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}
