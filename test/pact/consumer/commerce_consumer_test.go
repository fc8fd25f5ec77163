//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/commercekit/commerce-core/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type customerPayload struct {
	GUID      string `json:"guid,omitempty"`
	StoreCode string `json:"store_code"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Status    string `json:"status,omitempty"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type apiError struct {
	status int
	title  string
	detail string
}

func (e apiError) Error() string {
	msg := e.title
	if msg == "" {
		msg = "api error"
	}
	if e.detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.detail)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func (e apiError) Status() int {
	return e.status
}

func TestStorefrontCustomerContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	registration := customerPayload{
		StoreCode: pacttest.CustomerStoreCode,
		UserID:    pacttest.CustomerUserID,
		Email:     pacttest.CustomerEmail,
		Name:      pacttest.CustomerName,
	}
	customerBodyMatcher := matchers.Map{
		"guid":       matchers.Like(pacttest.ExistingCustomerGUID),
		"store_code": matchers.Like(registration.StoreCode),
		"user_id":    matchers.Like(registration.UserID),
		"email":      matchers.Like(registration.Email),
		"name":       matchers.Like(registration.Name),
		"status":     matchers.Term("ACTIVE", "ACTIVE|DISABLED"),
	}
	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")

	pact.AddInteraction().
		Given(pacttest.StateCustomersBaseline).
		UponReceiving("a request to register a customer").
		WithRequest("POST", "/v1/customers", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{
				"store_code": matchers.Like(registration.StoreCode),
				"user_id":    matchers.Like(registration.UserID),
				"email":      matchers.Like(registration.Email),
				"name":       matchers.Like(registration.Name),
			})
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(customerBodyMatcher)
		})

	pact.AddInteraction().
		Given(pacttest.StateCustomerExists).
		UponReceiving("a request to fetch an existing customer").
		WithRequest("GET", fmt.Sprintf("/v1/customers/%s", pacttest.ExistingCustomerGUID)).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(customerBodyMatcher)
		})

	pact.AddInteraction().
		Given(pacttest.StateCustomerMissing).
		UponReceiving("a request for a missing customer").
		WithRequest("GET", fmt.Sprintf("/v1/customers/%s", pacttest.MissingCustomerGUID)).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newCustomerClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		created, err := client.Register(ctx, registration)
		if err != nil {
			return fmt.Errorf("register customer: %w", err)
		}
		if created == nil || created.GUID == "" {
			return fmt.Errorf("expected created customer guid to be set")
		}

		fetched, err := client.Get(ctx, pacttest.ExistingCustomerGUID)
		if err != nil {
			return fmt.Errorf("get customer: %w", err)
		}
		if fetched == nil || fetched.GUID != pacttest.ExistingCustomerGUID {
			return fmt.Errorf("expected customer %s, got %+v", pacttest.ExistingCustomerGUID, fetched)
		}

		if _, err := client.Get(ctx, pacttest.MissingCustomerGUID); err == nil {
			return fmt.Errorf("expected 404 for customer %s", pacttest.MissingCustomerGUID)
		} else if apiErr, ok := err.(apiError); ok && apiErr.Status() != http.StatusNotFound {
			return fmt.Errorf("expected 404, got %d", apiErr.Status())
		}

		return nil
	})
	require.NoError(t, err)
}

type customerClient struct {
	baseURL    string
	httpClient *http.Client
}

func newCustomerClient(config pactconsumer.MockServerConfig) *customerClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}
	return &customerClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: client,
	}
}

func (c *customerClient) Register(ctx context.Context, customer customerPayload) (*customerPayload, error) {
	body, err := json.Marshal(customer)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/customers", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(res)
	}

	var payload customerPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *customerClient) Get(ctx context.Context, guid string) (*customerPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/customers/%s", c.baseURL, guid), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(res)
	}

	var payload customerPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	return apiError{
		status: status,
		title:  problem.Title,
		detail: problem.Detail,
	}
}
