package paystack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"bitbucket.org/skilr/backend/session"
	"github.com/pkg/errors"
)

const (
	psContentType = `application/json`
)

// defaultHTTPClient bounds every processor call. The session mutex is
// held across Open, so a hung call must not pin the account's session.
var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// Client talks to the hosted checkout processor. One Open per checkout
// attempt; the outcome comes back through the dashboard's success/close
// callbacks and is verified against PathVerify before being trusted.
type Client struct {
	BaseURL        string
	SecretKey      string
	PublicKey      string
	PathInitialize string
	PathVerify     string
	CallbackURL    string

	// HTTPClient overrides the default timed-out client when set.
	HTTPClient *http.Client
}

func (ps *Client) httpClient() *http.Client {
	if ps.HTTPClient != nil {
		return ps.HTTPClient
	}
	return defaultHTTPClient
}

type CustomField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

type InitializeTransactionRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	Reference   string   `json:"reference"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

type Metadata struct {
	CustomFields []CustomField `json:"custom_fields"`
}

type InitializeTransactionResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type VerifyTransactionResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

func (ps *Client) InitializeTransaction(request *InitializeTransactionRequest) (*InitializeTransactionResponse, error) {
	responseBody, err := ps.post(fmt.Sprintf("%s%s", ps.BaseURL, ps.PathInitialize), request)
	if err != nil {
		return nil, err
	}

	if responseBody == nil {
		return nil, errors.New("failed initializing transaction")
	}

	var response InitializeTransactionResponse
	if err := json.Unmarshal(responseBody, &response); err != nil {
		return nil, err
	}

	if !response.Status {
		return nil, errors.Errorf("transaction rejected: %s", response.Message)
	}

	return &response, nil
}

func (ps *Client) VerifyTransaction(reference string) (*VerifyTransactionResponse, error) {
	responseBody, err := ps.get(fmt.Sprintf("%s%s%s", ps.BaseURL, ps.PathVerify, reference))
	if err != nil {
		return nil, err
	}

	if responseBody == nil {
		return nil, errors.New("failed verifying transaction")
	}

	var response VerifyTransactionResponse
	if err := json.Unmarshal(responseBody, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// Open marshals a checkout attempt into the processor's invocation shape
// and returns the handoff the dashboard follows into the widget.
func (ps *Client) Open(config session.CheckoutConfig) (*session.Handoff, error) {
	request := InitializeTransactionRequest{
		Email:       config.Email,
		Amount:      config.AmountMinor,
		Reference:   config.Reference,
		CallbackURL: ps.CallbackURL,
		Metadata: Metadata{
			CustomFields: []CustomField{
				{
					DisplayName:  "Customer Name",
					VariableName: "customer_name",
					Value:        fmt.Sprintf("%s %s", config.Firstname, config.Lastname),
				},
				{
					DisplayName:  "Phone Number",
					VariableName: "phone_number",
					Value:        config.Phone,
				},
			},
		},
	}

	response, err := ps.InitializeTransaction(&request)
	if err != nil {
		return nil, err
	}

	return &session.Handoff{
		AuthorizationURL: response.Data.AuthorizationURL,
		AccessCode:       response.Data.AccessCode,
		Reference:        response.Data.Reference,
	}, nil
}

// Succeeded reports whether a verified transaction actually settled.
// Anything else (abandoned, failed, pending) counts as not completed.
func (response *VerifyTransactionResponse) Succeeded() bool {
	return response.Status && response.Data.Status == "success"
}

func (ps *Client) post(url string, body interface{}) ([]byte, error) {
	requestBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", psContentType)
	request.Header.Set("Authorization", "Bearer "+ps.SecretKey)

	response, err := ps.httpClient().Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	responseBody, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusCreated && response.StatusCode != http.StatusOK {
		return nil, errors.Errorf("bad response %d", response.StatusCode)
	}

	return responseBody, nil
}

func (ps *Client) get(url string) ([]byte, error) {
	request, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+ps.SecretKey)

	response, err := ps.httpClient().Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	responseBody, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		return nil, errors.Errorf("bad response %d", response.StatusCode)
	}

	return responseBody, nil
}
