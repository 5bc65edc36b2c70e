package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type BrevoConfig struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	// Endpoint overrides the Brevo API URL.
	Endpoint string
}

type BrevoService struct {
	apiKey      string
	senderEmail string
	senderName  string
	endpoint    string
	client      *http.Client
	log         *zap.Logger
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// NewBrevoService returns nil when the sender is not fully configured.
func NewBrevoService(cfg BrevoConfig, log *zap.Logger) *BrevoService {
	log = log.Named("notifications.email")
	if cfg.APIKey == "" || cfg.SenderEmail == "" || cfg.SenderName == "" {
		log.Warn("email service not configured, notifications disabled")
		return nil
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = brevoEndpoint
	}
	log.Info("email service initialized", zap.String("sender", cfg.SenderEmail))
	return &BrevoService{
		apiKey:      cfg.APIKey,
		senderEmail: cfg.SenderEmail,
		senderName:  cfg.SenderName,
		endpoint:    endpoint,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

func (s *BrevoService) Send(ctx context.Context, toEmail, toName, subject, htmlContent string) error {
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %q", toEmail)
	}

	recipientName := toName
	if recipientName == "" {
		recipientName = toEmail[:strings.Index(toEmail, "@")]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": s.senderName, "email": s.senderEmail},
		To:          []map[string]string{{"email": toEmail, "name": recipientName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.apiKey)
	req.Header.Set("content-type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, string(bodyBytes))
	}

	s.log.Info("email sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

var EmailClient *BrevoService

// InitEmailService installs the process-wide sender.
func InitEmailService(cfg BrevoConfig, log *zap.Logger) {
	EmailClient = NewBrevoService(cfg, log)
}

// SendEmail is fire-and-forget: failures are logged, never returned.
func SendEmail(toName, toEmail, subject, htmlContent string) {
	if EmailClient == nil {
		return
	}
	if err := EmailClient.Send(context.Background(), toEmail, toName, subject, htmlContent); err != nil {
		EmailClient.log.Warn("email send failed", zap.String("to", toEmail), zap.Error(err))
	}
}
