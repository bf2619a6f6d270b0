package notify

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/millbrook-county/civic-portal/backend/internal/models"
)

// Sender delivers a temporary credential over a channel that is not the HTTP
// response to the reset request. In production that channel is SMS; the
// credential must never travel back on the request connection.
type Sender interface {
	SendTempCredential(ctx context.Context, account *models.Account, tempCredential string) error
}

// NewFromEnv picks the Twilio sender when credentials are configured and
// falls back to the log sender for local development.
func NewFromEnv() Sender {
	if os.Getenv("TWILIO_ACCOUNT_SID") != "" && os.Getenv("TWILIO_FROM_NUMBER") != "" {
		return NewTwilioSender()
	}
	log.Println("⚠️  Twilio not configured, temporary credentials will be logged only")
	return &LogSender{}
}

// TwilioSender texts the temporary credential to the account's notification
// phone number.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender() *TwilioSender {
	// RestClient reads TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN from env.
	return &TwilioSender{
		client: twilio.NewRestClient(),
		from:   os.Getenv("TWILIO_FROM_NUMBER"),
	}
}

func (s *TwilioSender) SendTempCredential(_ context.Context, account *models.Account, tempCredential string) error {
	if account.NotifyPhone == "" {
		return fmt.Errorf("account %d has no notification phone number", account.ID)
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(account.NotifyPhone)
	params.SetFrom(s.from)
	params.SetBody(fmt.Sprintf(
		"Millbrook County portal: your temporary password is %s. Log in and change it right away.",
		tempCredential,
	))

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("sending temp credential SMS: %w", err)
	}
	return nil
}

// LogSender is the development fallback. It logs that a credential was
// issued without printing the credential itself.
type LogSender struct{}

func (s *LogSender) SendTempCredential(_ context.Context, account *models.Account, _ string) error {
	log.Printf("temp credential issued for account %d (username %q)", account.ID, account.Username)
	return nil
}
