package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/queue"
)

var layout = template.Must(template.New("layout").Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937;max-width:560px;margin:0 auto">
<h2 style="color:#4f46e5">{{.Heading}}</h2>
<p>Hi {{.Name}},</p>
{{.Content}}
<p style="color:#6b7280;font-size:12px;margin-top:32px">{{.Footer}}</p>
</body></html>`))

var fragments = template.Must(template.New("fragments").Parse(`
{{define "registration"}}<p>Your seat for <strong>{{.Title}}</strong> is confirmed.</p>
<p>When: {{.StartsAt}}</p>
{{if .Amount}}<p>Amount paid: {{.Currency}} {{.Amount}} (order {{.OrderRef}})</p>{{end}}
<p>We will email the meeting link before the session starts.</p>{{end}}
{{define "purchase"}}<p>Thank you for purchasing <strong>{{.Title}}</strong>.</p>
{{if .Amount}}<p>Amount paid: {{.Currency}} {{.Amount}} (order {{.OrderRef}})</p>{{end}}
<p>Our team will contact you shortly to get started.</p>{{end}}
{{define "meeting"}}<p>Here is your link for <strong>{{.Title}}</strong> on {{.StartsAt}}:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>{{end}}
{{define "reset"}}<p>We received a request to reset your password. The link expires in 30 minutes.</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>If you did not ask for this you can ignore this email.</p>{{end}}
{{define "contact"}}<p>Thanks for reaching out. We received your message{{if .Title}} about "{{.Title}}"{{end}} and will reply soon.</p>{{end}}
`))

const footer = "You are receiving this email because of activity on your account."

type fragmentData struct {
	Title    string
	StartsAt string
	Amount   string
	Currency string
	OrderRef string
	Link     string
}

func render(fragment, heading, name string, data fragmentData) (string, error) {
	var content bytes.Buffer
	if err := fragments.ExecuteTemplate(&content, fragment, data); err != nil {
		return "", fmt.Errorf("render %s: %w", fragment, err)
	}
	if name == "" {
		name = "there"
	}
	var out bytes.Buffer
	err := layout.Execute(&out, struct {
		Heading, Name, Footer string
		Content               template.HTML
	}{heading, name, footer, template.HTML(content.String())})
	if err != nil {
		return "", fmt.Errorf("render layout: %w", err)
	}
	return out.String(), nil
}

func formatWhen(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
}

func formatAmount(amount decimal.Decimal) string {
	if !amount.IsPositive() {
		return ""
	}
	return amount.StringFixed(2)
}

// Recipient is who an email goes to.
type Recipient struct {
	Email string
	Name  string
}

// RegistrationConfirmation is sent when a webinar seat is confirmed.
func RegistrationConfirmation(to Recipient, w *models.Webinar, orderRef string, amount decimal.Decimal, currency string) (queue.EmailPayload, error) {
	subject := "Registration confirmed: " + w.Title
	html, err := render("registration", "You're registered!", to.Name, fragmentData{
		Title:    w.Title,
		StartsAt: formatWhen(w.StartsAt),
		Amount:   formatAmount(amount),
		Currency: currency,
		OrderRef: orderRef,
	})
	if err != nil {
		return queue.EmailPayload{}, err
	}
	id := w.ID
	return queue.EmailPayload{
		EmailType:      models.EmailTypeRegistrationConfirmation,
		WebinarID:      &id,
		OrderRef:       orderRef,
		RecipientEmail: to.Email,
		RecipientName:  to.Name,
		Subject:        subject,
		BodyHTML:       html,
		BodyText:       fmt.Sprintf("Your seat for %s on %s is confirmed.", w.Title, formatWhen(w.StartsAt)),
	}, nil
}

// PurchaseConfirmation is sent when a service purchase is confirmed.
func PurchaseConfirmation(to Recipient, s *models.Service, orderRef string, amount decimal.Decimal, currency string) (queue.EmailPayload, error) {
	html, err := render("purchase", "Purchase confirmed", to.Name, fragmentData{
		Title:    s.Title,
		Amount:   formatAmount(amount),
		Currency: currency,
		OrderRef: orderRef,
	})
	if err != nil {
		return queue.EmailPayload{}, err
	}
	return queue.EmailPayload{
		EmailType:      models.EmailTypePurchaseConfirmation,
		OrderRef:       orderRef,
		RecipientEmail: to.Email,
		RecipientName:  to.Name,
		Subject:        "Purchase confirmed: " + s.Title,
		BodyHTML:       html,
		BodyText:       fmt.Sprintf("Thank you for purchasing %s.", s.Title),
	}, nil
}

// MeetingLink delivers the join link for a webinar.
func MeetingLink(to Recipient, w *models.Webinar, link string) (queue.EmailPayload, error) {
	html, err := render("meeting", "Your meeting link", to.Name, fragmentData{
		Title:    w.Title,
		StartsAt: formatWhen(w.StartsAt),
		Link:     link,
	})
	if err != nil {
		return queue.EmailPayload{}, err
	}
	id := w.ID
	return queue.EmailPayload{
		EmailType:      models.EmailTypeMeetingLink,
		WebinarID:      &id,
		RecipientEmail: to.Email,
		RecipientName:  to.Name,
		Subject:        "Meeting link: " + w.Title,
		BodyHTML:       html,
		BodyText:       fmt.Sprintf("Join %s: %s", w.Title, link),
	}, nil
}

// PasswordReset carries a password reset link.
func PasswordReset(to Recipient, link string) (queue.EmailPayload, error) {
	html, err := render("reset", "Reset your password", to.Name, fragmentData{Link: link})
	if err != nil {
		return queue.EmailPayload{}, err
	}
	return queue.EmailPayload{
		EmailType:      models.EmailTypePasswordReset,
		RecipientEmail: to.Email,
		RecipientName:  to.Name,
		Subject:        "Reset your password",
		BodyHTML:       html,
		BodyText:       "Reset your password: " + link,
	}, nil
}

// ContactAck acknowledges a contact form submission.
func ContactAck(to Recipient, leadID uuid.UUID, subject string) (queue.EmailPayload, error) {
	html, err := render("contact", "We got your message", to.Name, fragmentData{Title: subject})
	if err != nil {
		return queue.EmailPayload{}, err
	}
	return queue.EmailPayload{
		EmailType:      models.EmailTypeContactAck,
		OrderRef:       "lead_" + leadID.String(),
		RecipientEmail: to.Email,
		RecipientName:  to.Name,
		Subject:        "We received your message",
		BodyHTML:       html,
		BodyText:       "Thanks for reaching out. We will reply soon.",
	}, nil
}
