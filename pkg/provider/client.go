package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/CoderRaushan/whatsapp-web-clone/environments"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/logger"
)

// Client sends outbound messages through the provider's Cloud API. One
// send, one request; retrying failed sends is out of scope here.
type Client struct {
	httpClient    *resty.Client
	apiURL        string
	phoneNumberID string
}

type textContent struct {
	Body string `json:"body"`
}

type sendMessageRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textContent `json:"text"`
}

type sendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func NewClient(cfg environments.ProviderConfig) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.Token)

	return &Client{
		httpClient:    client,
		apiURL:        cfg.APIURL,
		phoneNumberID: cfg.PhoneNumberID,
	}
}

// SendText posts one text message and returns the provider-assigned
// message id.
func (c *Client) SendText(ctx context.Context, to, text string) (string, error) {
	payload := sendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textContent{Body: text},
	}

	var sendResp sendMessageResponse

	url := fmt.Sprintf("%s/%s/messages", c.apiURL, c.phoneNumberID)

	startTime := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&sendResp).
		Post(url)

	duration := time.Since(startTime)

	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	logger.Infof("Provider send to %s completed in %v (status: %d)", to, duration, resp.StatusCode())

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode(), resp.String())
	}

	if len(sendResp.Messages) == 0 || sendResp.Messages[0].ID == "" {
		return "", fmt.Errorf("provider response carried no message id")
	}

	return sendResp.Messages[0].ID, nil
}
