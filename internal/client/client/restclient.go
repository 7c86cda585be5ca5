package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/dmitrijs2005/sandercoin/internal/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// HTTPDoer is the subset of *http.Client used by RESTClient.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTClient implements Client over the exchange JSON API.
type RESTClient struct {
	baseURL string
	http    HTTPDoer
	limiter *RateLimiter

	mu    sync.RWMutex
	token string
}

// NewRESTClient builds a client on top of an arbitrary HTTPDoer.
func NewRESTClient(baseURL string, doer HTTPDoer, limiter *RateLimiter) *RESTClient {
	if limiter == nil {
		limiter = NewRateLimiter(0)
	}
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		limiter: limiter,
	}
}

// NewSanderCoinClient builds a RESTClient with a timeout-bound http.Client
// and a limiter allowing rps requests per second.
func NewSanderCoinClient(baseURL string, timeout time.Duration, rps float64) *RESTClient {
	return NewRESTClient(baseURL, &http.Client{Timeout: timeout}, NewRateLimiter(rps))
}

func (c *RESTClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *RESTClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *RESTClient) Authenticate(ctx context.Context, identifier, secret string) (*AuthResult, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: identifier, Password: secret}

	body, err := c.do(ctx, http.MethodPost, "/User/login", req, nil)
	if err != nil {
		return nil, err
	}

	res := parseAuthResult(body)
	if res.Token == "" {
		return nil, &Error{Kind: KindProtocol, Message: "no token in login response"}
	}
	if res.Session.UserID == "" {
		res.Session.UserID = identifier
	}
	return res, nil
}

func (c *RESTClient) Register(ctx context.Context, userID, email string) error {
	req := struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
	}{UserID: userID, Email: email}

	_, err := c.do(ctx, http.MethodPost, "/User/register", req, nil)
	return err
}

func (c *RESTClient) Verify(ctx context.Context, req VerifyRequest) (*AuthResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/User/verify", req, nil)
	if err != nil {
		return nil, err
	}

	res := parseAuthResult(body)
	if res.Session.UserID == "" {
		res.Session.UserID = req.UserID
	}
	return res, nil
}

func (c *RESTClient) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	if userID == "" {
		return decimal.Zero, common.ErrEmptyUserID
	}

	body, err := c.do(ctx, http.MethodGet, "/Token/balance/"+url.PathEscape(userID), nil, nil)
	if err != nil {
		return decimal.Zero, err
	}

	balance, ok := decimalOf(gjson.GetBytes(body, "balance"))
	if !ok {
		return decimal.Zero, &Error{Kind: KindProtocol, Message: "no balance in response"}
	}
	return balance, nil
}

func (c *RESTClient) GetTokenValue(ctx context.Context) (models.TokenValue, error) {
	body, err := c.do(ctx, http.MethodGet, "/Token/value", nil, nil)
	if err != nil {
		return models.TokenValue{}, err
	}

	value, ok := decimalOf(gjson.GetBytes(body, "value"))
	if !ok {
		return models.TokenValue{}, &Error{Kind: KindProtocol, Message: "no value in response"}
	}
	return models.TokenValue{Value: value, Timestamp: gjson.GetBytes(body, "timestamp").String()}, nil
}

func (c *RESTClient) Distribute(ctx context.Context, req DistributeRequest) (*models.Receipt, error) {
	wire := struct {
		UserID           string  `json:"userId"`
		Amount           float64 `json:"amount"`
		CreditCardNumber string  `json:"creditCardNumber"`
		ExpirationDate   string  `json:"expirationDate"`
		CVV              string  `json:"cvv"`
	}{
		UserID:           req.UserID,
		Amount:           req.Amount.InexactFloat64(),
		CreditCardNumber: req.CardNumber,
		ExpirationDate:   req.Expiration,
		CVV:              req.CVV,
	}
	return c.submit(ctx, "/Token/distribute", wire)
}

func (c *RESTClient) Sell(ctx context.Context, req SellRequest) (*models.Receipt, error) {
	wire := struct {
		UserID string  `json:"userId"`
		Amount float64 `json:"amount"`
	}{UserID: req.UserID, Amount: req.Amount.InexactFloat64()}
	return c.submit(ctx, "/Token/sell", wire)
}

func (c *RESTClient) Transfer(ctx context.Context, req TransferRequest) (*models.Receipt, error) {
	wire := struct {
		SenderID   string  `json:"senderId"`
		ReceiverID string  `json:"receiverId"`
		Amount     float64 `json:"amount"`
	}{SenderID: req.SenderID, ReceiverID: req.ReceiverID, Amount: req.Amount.InexactFloat64()}
	return c.submit(ctx, "/Token/transfer", wire)
}

func (c *RESTClient) GetTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	if userID == "" {
		return nil, common.ErrEmptyUserID
	}

	body, err := c.do(ctx, http.MethodGet, "/Blockchain/transactions/"+url.PathEscape(userID), nil, nil)
	if err != nil {
		return nil, err
	}

	list := gjson.ParseBytes(body)
	if !list.IsArray() {
		return nil, &Error{Kind: KindProtocol, Message: "transactions response is not a list"}
	}

	var result []models.Transaction
	list.ForEach(func(_, item gjson.Result) bool {
		amount, _ := decimalOf(item.Get("amount"))
		result = append(result, models.Transaction{
			ID:         firstString(item, "id", "transactionId"),
			Type:       firstString(item, "type"),
			SenderID:   firstString(item, "senderId", "sender", "from"),
			ReceiverID: firstString(item, "receiverId", "receiver", "to"),
			Amount:     amount,
			Timestamp:  firstString(item, "timestamp", "date"),
		})
		return true
	})
	return result, nil
}

// submit posts a transaction and decodes its receipt. Each submission
// carries a fresh request id.
func (c *RESTClient) submit(ctx context.Context, path string, payload any) (*models.Receipt, error) {
	hdr := http.Header{}
	hdr.Set(common.RequestIDHeaderName, uuid.NewString())

	body, err := c.do(ctx, http.MethodPost, path, payload, hdr)
	if err != nil {
		return nil, err
	}

	receipt := &models.Receipt{
		TransactionID: gjson.GetBytes(body, "transactionId").String(),
		Message:       gjson.GetBytes(body, "message").String(),
	}
	if amount, ok := decimalOf(gjson.GetBytes(body, "amount")); ok {
		receipt.Amount = amount
	}
	if nb, ok := decimalOf(gjson.GetBytes(body, "newBalance")); ok {
		receipt.NewBalance = &nb
	}
	return receipt, nil
}

// do performs one request and classifies the outcome. On success it returns
// the raw body; network and server failures are reported as *Error.
func (c *RESTClient) do(ctx context.Context, method, path string, payload any, hdr http.Header) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindUnavailable, Message: "too many requests, try again later", Err: err}
	}

	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range hdr {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Status: resp.StatusCode, Err: err}
	}

	if err := c.classify(resp, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *RESTClient) classify(resp *http.Response, body []byte) error {
	status := resp.StatusCode
	switch {
	case status == http.StatusTooManyRequests:
		c.limiter.BlockFor(ParseRetryAfter(resp.Header))
		return &Error{Kind: KindUnavailable, Status: status, Message: extractMessage(body)}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: KindUnauthorized, Status: status, Message: extractMessage(body)}
	case status >= http.StatusInternalServerError:
		return &Error{Kind: KindUnavailable, Status: status, Message: extractMessage(body)}
	case status >= http.StatusBadRequest:
		return &Error{Kind: KindRejected, Status: status, Message: extractMessage(body)}
	case status < http.StatusOK || status >= http.StatusMultipleChoices:
		return &Error{Kind: KindProtocol, Status: status}
	}

	if len(bytes.TrimSpace(body)) > 0 && !gjson.ValidBytes(body) {
		return &Error{Kind: KindProtocol, Status: status, Message: "malformed JSON response"}
	}
	if success := gjson.GetBytes(body, "success"); success.Exists() && !success.Bool() {
		return &Error{Kind: KindRejected, Status: status, Message: extractMessage(body)}
	}
	return nil
}

// extractMessage pulls a human readable message out of an error body: the
// first of message/title/error for JSON, or short plain text.
func extractMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		doc := gjson.ParseBytes(body)
		if doc.Type == gjson.String {
			return doc.String()
		}
		return firstString(doc, "message", "title", "error")
	}
	if len(body) <= 256 && !bytes.HasPrefix(body, []byte("<")) {
		return string(body)
	}
	return ""
}

func parseAuthResult(body []byte) *AuthResult {
	doc := gjson.ParseBytes(body)
	session := models.Session{
		UserID:      firstString(doc, "userId", "id"),
		DisplayName: firstString(doc, "displayName", "username"),
		Email:       doc.Get("email").String(),
		IsVerified:  doc.Get("isVerified").Bool(),
	}
	if balance, ok := decimalOf(doc.Get("balance")); ok {
		session.Balance = balance
	}
	return &AuthResult{Token: doc.Get("token").String(), Session: session}
}

func firstString(doc gjson.Result, paths ...string) string {
	for _, p := range paths {
		if r := doc.Get(p); r.Exists() && r.Type != gjson.Null {
			if s := r.String(); s != "" {
				return s
			}
		}
	}
	return ""
}

func decimalOf(r gjson.Result) (decimal.Decimal, bool) {
	if !r.Exists() || r.Type == gjson.Null {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(r.String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
