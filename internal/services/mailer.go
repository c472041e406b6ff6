package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/citaflow/citabot-backend/internal/config"
	"github.com/citaflow/citabot-backend/internal/timeparse"
)

// MailerService sends the appointment confirmation email through
// SendGrid. Email is best effort end to end: a nil service or a send
// failure never affects the booking.
type MailerService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewMailerService builds the mailer from SENDGRID_API_KEY and
// EMAIL_FROM. Returns nil when no API key is configured.
func NewMailerService() *MailerService {
	key := os.Getenv("SENDGRID_API_KEY")
	if key == "" {
		return nil
	}
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = "citas@citaflow.com"
	}
	return &MailerService{
		client:    sendgrid.NewSendClient(key),
		fromEmail: from,
		fromName:  os.Getenv("EMAIL_FROM_NAME"),
	}
}

// SendAppointmentEmail sends the Spanish confirmation for one booked
// appointment.
func (m *MailerService) SendAppointmentEmail(ctx context.Context, to, name, service string, when time.Time, cfg *config.BusinessConfig) error {
	fromName := m.fromName
	if fromName == "" {
		fromName = cfg.Name
	}

	subject := fmt.Sprintf("Confirmación de tu cita en %s", cfg.Name)
	plain := fmt.Sprintf(
		"Hola %s,\n\nTu cita para %s quedó confirmada para el %s.\n\n%s\n\nGracias por elegir %s.",
		name, service, timeparse.Format(when), cfg.Preparation, cfg.Name)
	html := fmt.Sprintf(
		`<div style="font-family:sans-serif;max-width:560px">
<h2>¡Cita confirmada!</h2>
<p>Hola <strong>%s</strong>,</p>
<p>Tu cita para <strong>%s</strong> quedó confirmada para el <strong>%s</strong>.</p>
<p>%s</p>
<p>Gracias por elegir %s.</p>
</div>`,
		name, service, timeparse.Format(when), cfg.Preparation, cfg.Name)

	msg := mail.NewSingleEmail(
		mail.NewEmail(fromName, m.fromEmail), subject,
		mail.NewEmail(name, to), plain, html)

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}

	log.Printf("✅ Correo de confirmación enviado a %s", to)
	return nil
}
