package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"gmpwatch/internal/ipo"
	"gmpwatch/pkg/httputil"
	"gmpwatch/pkg/logger"
)

// WhatsAppClient sends messages through a WhatsApp-compatible HTTP
// gateway: bearer token auth, one POST per message, single attempt.
type WhatsAppClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	token      string
}

// NewWhatsAppClient creates a gateway client. Callers construct the HTTP
// client single-attempt (DisableRetry); a failed message is reported, not
// retried.
func NewWhatsAppClient(httpClient *httputil.Client, log *logger.Logger, baseURL, token string) *WhatsAppClient {
	return &WhatsAppClient{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
	}
}

// DeliveryError reports one failed send. Delivery failures are scoped to
// their message and never abort the dispatch pass.
type DeliveryError struct {
	To     string
	Status int
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notify: send to %s failed: %v", e.To, e.Err)
	}
	return fmt.Sprintf("notify: send to %s failed: gateway returned status %d", e.To, e.Status)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Send posts one message to the gateway.
func (c *WhatsAppClient) Send(ctx context.Context, msg ipo.Message) error {
	payload := map[string]string{
		"to":   msg.To,
		"body": msg.Body,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + c.token,
	}

	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+"/api/v1/messages", payload, headers)
	if err != nil {
		return &DeliveryError{To: msg.To, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &DeliveryError{To: msg.To, Status: resp.StatusCode}
	}
	return nil
}
