package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"canteen-be/internal/logger"

	"go.uber.org/zap"
)

const (
	stripeBaseURL = "https://api.stripe.com"
	stripeVersion = "2024-06-20"
)

type stripeGateway struct {
	secretKey  string
	httpClient *http.Client
	successURL string
	cancelURL  string
}

func NewStripeGateway(secretKey, successURL, cancelURL string) Gateway {
	if secretKey == "" {
		logger.L().Warn("Stripe secret key is empty")
	}

	return &stripeGateway{
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (g *stripeGateway) CreateSession(ctx context.Context, req CreateSessionRequest) (*CheckoutSession, error) {
	log := logger.L().With(
		zap.String("reference_id", req.ReferenceID),
		zap.Int("lines", len(req.Lines)),
	)

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", g.successURL)
	form.Set("cancel_url", g.cancelURL)
	form.Set("client_reference_id", req.ReferenceID)
	if req.CustomerEmail != "" {
		form.Set("customer_email", req.CustomerEmail)
	}

	for i, line := range req.Lines {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", "inr")
		form.Set(prefix+"[price_data][product_data][name]", line.Name)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(line.UnitAmount, 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(line.Quantity))
	}

	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		stripeBaseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		log.Error("failed creating request", zap.Error(err))
		return nil, err
	}

	httpReq.SetBasicAuth(g.secretKey, "")
	httpReq.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Add("Stripe-Version", stripeVersion)

	log.Info("creating checkout session")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		log.Error("stripe request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	session, err := decodeSession(resp)
	if err != nil {
		log.Error("stripe session create failed", zap.Error(err))
		return nil, err
	}

	log.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.String("status", session.Status),
	)
	return session, nil
}

func (g *stripeGateway) GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	log := logger.L().With(zap.String("session_id", sessionID))

	httpReq, err := http.NewRequestWithContext(ctx, "GET",
		stripeBaseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		log.Error("failed building request", zap.Error(err))
		return nil, err
	}

	httpReq.SetBasicAuth(g.secretKey, "")
	httpReq.Header.Add("Stripe-Version", stripeVersion)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		log.Error("stripe request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	session, err := decodeSession(resp)
	if err != nil {
		log.Error("stripe session lookup failed", zap.Error(err))
		return nil, err
	}

	return session, nil
}

func decodeSession(resp *http.Response) (*CheckoutSession, error) {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read stripe response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("stripe error: %s", string(bodyBytes))
	}

	var session CheckoutSession
	if err := json.Unmarshal(bodyBytes, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
