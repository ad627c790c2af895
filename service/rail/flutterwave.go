package rail

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// InitiateRequest describes a checkout intent handed to the aggregator.
type InitiateRequest struct {
	Amount    string
	Currency  string
	Reference string
	Customer  Customer
}

type Customer struct {
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phonenumber,omitempty"`
	Name        string `json:"name,omitempty"`
}

// InitiateResponse carries the aggregator's correlation handle. The
// provider reference is a checkout session id, not a funds movement id;
// the definitive transaction id arrives later on the webhook.
type InitiateResponse struct {
	Reference         string
	ProviderReference string
	CheckoutURL       string
}

// Adapter wraps the mobile money aggregator. Initiation is synchronous,
// settlement confirmation arrives asynchronously via webhook.
type Adapter interface {
	Initiate(ctx context.Context, request InitiateRequest) (*InitiateResponse, error)
	VerifySignature(headerValue string) bool
}

// Client represents the Flutterwave API client
type Client struct {
	BaseURL     string
	SecretKey   string
	WebhookHash string
	HttpClient  *http.Client
}

// New creates a new instance of the Flutterwave API client
func New(baseURL, secretKey, webhookHash string) *Client {
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:       10,
		IdleConnTimeout:    30 * time.Second,
		DisableCompression: true,
	}

	httpClient := &http.Client{
		Transport: tr,
		Timeout:   30 * time.Second,
	}

	return &Client{
		BaseURL:     baseURL,
		SecretKey:   secretKey,
		WebhookHash: webhookHash,
		HttpClient:  httpClient,
	}
}

type initiatePayload struct {
	TxRef          string   `json:"tx_ref"`
	Amount         string   `json:"amount"`
	Currency       string   `json:"currency"`
	Customer       Customer `json:"customer"`
	PaymentOptions string   `json:"payment_options"`
}

type initiateResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link   string `json:"link"`
		FlwRef string `json:"flw_ref"`
	} `json:"data"`
}

// Initiate creates a checkout intent with the aggregator.
func (c *Client) Initiate(ctx context.Context, request InitiateRequest) (*InitiateResponse, error) {
	body := initiatePayload{
		TxRef:          request.Reference,
		Amount:         request.Amount,
		Currency:       request.Currency,
		Customer:       request.Customer,
		PaymentOptions: "mobilemoney,card,ussd",
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/payments", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &UnavailableError{Err: fmt.Errorf("aggregator returned %s", resp.Status)}
	}

	var result initiateResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &UnavailableError{Err: fmt.Errorf("undecodable aggregator response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK || result.Status != "success" {
		message := result.Message
		if message == "" {
			message = resp.Status
		}
		return nil, &RejectedError{Message: message}
	}

	return &InitiateResponse{
		Reference:         request.Reference,
		ProviderReference: result.Data.FlwRef,
		CheckoutURL:       result.Data.Link,
	}, nil
}

// VerifySignature checks the webhook verif-hash header against the
// configured hash. Fails closed when no hash is configured.
func (c *Client) VerifySignature(headerValue string) bool {
	if c.WebhookHash == "" || headerValue == "" {
		return false
	}
	return hmac.Equal([]byte(headerValue), []byte(c.WebhookHash))
}
