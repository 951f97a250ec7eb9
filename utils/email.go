package utils

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/keighl/postmark"
	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"storefront/config"
	"storefront/models"
)

// Message is a rendered email.
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers a rendered message through a provider.
type Sender interface {
	Send(msg Message) error
}

// PostmarkSender sends through the Postmark API.
type PostmarkSender struct {
	client *postmark.Client
}

func NewPostmarkSender(serverToken string) *PostmarkSender {
	return &PostmarkSender{client: postmark.NewClient(serverToken, "")}
}

func (s *PostmarkSender) Send(msg Message) error {
	_, err := s.client.SendEmail(postmark.Email{
		From:     msg.From,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTMLBody,
		TextBody: msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("postmark: %w", err)
	}
	return nil
}

// SendgridSender sends through the SendGrid v3 API.
type SendgridSender struct {
	client *sendgrid.Client
}

func NewSendgridSender(apiKey string) *SendgridSender {
	return &SendgridSender{client: sendgrid.NewSendClient(apiKey)}
}

func (s *SendgridSender) Send(msg Message) error {
	email := mail.NewSingleEmail(
		mail.NewEmail("", msg.From),
		msg.Subject,
		mail.NewEmail("", msg.To),
		msg.TextBody,
		msg.HTMLBody,
	)
	resp, err := s.client.Send(email)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogSender only logs messages. Used in development.
type LogSender struct{}

func (LogSender) Send(msg Message) error {
	log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.TextBody).
		Msg("Email (log provider)")
	return nil
}

// NewSender picks the provider configured in cfg.
func NewSender(cfg config.MailConfig) Sender {
	switch cfg.Provider {
	case config.MailPostmark:
		return NewPostmarkSender(cfg.PostmarkToken)
	case config.MailSendgrid:
		return NewSendgridSender(cfg.SendgridKey)
	default:
		return LogSender{}
	}
}

// EmailService renders and sends account and order emails
type EmailService struct {
	sender  Sender
	from    string
	baseURL string
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(sender Sender, from, baseURL string) *EmailService {
	return &EmailService{
		sender:  sender,
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent, textContent string) error {
	err := es.sender.Send(Message{
		From:     es.from,
		To:       toEmail,
		Subject:  subject,
		HTMLBody: htmlContent,
		TextBody: textContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Debug().Str("to", toEmail).Str("subject", subject).Msg("Email sent")
	return nil
}

// SendVerificationEmail sends an email verification link to the user
func (es *EmailService) SendVerificationEmail(toEmail, token string) error {
	link := fmt.Sprintf("%s/api/auth/verify?token=%s", es.baseURL, url.QueryEscape(token))
	html := fmt.Sprintf(
		"<strong>Please verify your email by clicking on the following link:</strong> <a href=\"%s\">Verify Email</a>",
		link,
	)
	text := "Please verify your email by opening the following link: " + link
	return es.SendEmail(toEmail, "Verify Your Email", html, text)
}

// SendOrderConfirmationEmail sends an order confirmation email to the user
func (es *EmailService) SendOrderConfirmationEmail(toEmail string, order models.Order) error {
	var lines strings.Builder
	for _, it := range order.Items {
		fmt.Fprintf(&lines, "%d x %s (size %g) $%.2f\n", it.Quantity, it.Name, it.Size, it.Price)
	}
	html := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>Thank you for your purchase! Your order <strong>%s</strong> has been placed successfully.<br><br><pre>%s</pre>Total Amount: <strong>$%.2f</strong><br>Payment Method: <strong>%s</strong><br><br>Thank you for shopping with us!",
		order.OrderNumber,
		lines.String(),
		order.TotalAmount,
		order.PaymentMethod,
	)
	text := fmt.Sprintf(
		"Thank you for your purchase! Your order %s has been placed successfully.\n\n%s\nTotal Amount: $%.2f\nPayment Method: %s\n",
		order.OrderNumber, lines.String(), order.TotalAmount, order.PaymentMethod,
	)
	return es.SendEmail(toEmail, "Order Confirmation - "+order.OrderNumber, html, text)
}

// SendOrderStatusEmail tells the user about an order or payment status change.
func (es *EmailService) SendOrderStatusEmail(toEmail string, order models.Order) error {
	text := fmt.Sprintf(
		"Your order %s is now %s. Payment status: %s.",
		order.OrderNumber, order.OrderStatus, order.PaymentStatus,
	)
	html := fmt.Sprintf(
		"Your order <strong>%s</strong> is now <strong>%s</strong>.<br>Payment status: <strong>%s</strong>.",
		order.OrderNumber, order.OrderStatus, order.PaymentStatus,
	)
	return es.SendEmail(toEmail, "Order Update - "+order.OrderNumber, html, text)
}
