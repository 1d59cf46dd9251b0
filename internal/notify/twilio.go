package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ifixandrepair/shop-api/internal/config"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioSender posts messages to the Twilio Messages REST resource.
type TwilioSender struct {
	cfg     config.TwilioConfig
	baseURL string
	client  *http.Client
}

func NewTwilioSender(cfg config.TwilioConfig) *TwilioSender {
	return &TwilioSender{
		cfg:     cfg,
		baseURL: twilioBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// TwilioConfigured reports whether credentials are present.
func TwilioConfigured(cfg config.TwilioConfig) bool {
	return cfg.AccountSID != "" && cfg.AuthToken != ""
}

type twilioMessage struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

func (t *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", FormatE164(to))
	form.Set("From", t.cfg.FromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.baseURL, url.PathEscape(t.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var msg twilioMessage
	_ = json.Unmarshal(raw, &msg)

	if resp.StatusCode >= http.StatusMultipleChoices {
		if msg.Message != "" {
			return fmt.Errorf("twilio status %d: %s", resp.StatusCode, msg.Message)
		}
		return fmt.Errorf("twilio status %d", resp.StatusCode)
	}
	return nil
}

// FormatE164 normalizes a North American phone number to E.164. Input that
// already carries a leading + keeps its country code.
func FormatE164(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case strings.HasPrefix(strings.TrimSpace(phone), "+"):
		return "+" + d
	case len(d) == 10:
		return "+1" + d
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return "+" + d
	default:
		return "+1" + d
	}
}
