package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/sandercoin/internal/client/client"
	"github.com/dmitrijs2005/sandercoin/internal/client/client/fake"
	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/dmitrijs2005/sandercoin/internal/client/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCreds struct {
	mu   sync.Mutex
	cred models.Credential
}

func (m *memCreds) Load(context.Context) (models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred, nil
}

func (m *memCreds) Save(_ context.Context, c models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = c
	return nil
}

func (m *memCreds) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = models.Credential{}
	return nil
}

// stubAnswers feeds getSimpleText from answers in order and records the
// prompts it was asked. Running out of answers reads as EOF.
func stubAnswers(t *testing.T, answers ...string) *[]string {
	t.Helper()
	var prompts []string
	orig := getSimpleText
	getSimpleText = func(_ *bufio.Reader, prompt string, _ io.Writer) (string, error) {
		prompts = append(prompts, prompt)
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	t.Cleanup(func() { getSimpleText = orig })
	return &prompts
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}

// exchange is a fake.Client backed by a balance ledger.
func exchange(balances map[string]string) (*fake.Client, *sync.Mutex) {
	var mu sync.Mutex
	fc := &fake.Client{}
	fc.AuthenticateFn = func(_ context.Context, identifier, _ string) (*client.AuthResult, error) {
		if identifier != "alice@x.io" {
			return nil, &client.Error{Kind: client.KindUnauthorized, Status: 401, Message: "invalid credentials"}
		}
		mu.Lock()
		defer mu.Unlock()
		return &client.AuthResult{
			Token: "tok",
			Session: models.Session{
				UserID:      "alice",
				DisplayName: "Alice",
				Email:       identifier,
				Balance:     decimal.RequireFromString(balances["alice"]),
				IsVerified:  true,
			},
		}, nil
	}
	fc.GetBalanceFn = func(_ context.Context, userID string) (decimal.Decimal, error) {
		mu.Lock()
		defer mu.Unlock()
		v, ok := balances[userID]
		if !ok {
			return decimal.Zero, &client.Error{Kind: client.KindRejected, Status: 404, Message: "user not found"}
		}
		return decimal.RequireFromString(v), nil
	}
	return fc, &mu
}

func newTestApp(t *testing.T, fc client.Client) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	store := session.NewStore(fc, &memCreds{}, nil)
	a := newApp(fc, store, nil, bufio.NewReader(strings.NewReader("")), &out)
	t.Cleanup(a.close)
	return a, &out
}

func login(t *testing.T, a *App) {
	t.Helper()
	_, err := a.store.Login(context.Background(), "alice@x.io", "pw")
	require.NoError(t, err)
}

func TestGetStatus(t *testing.T) {
	fc, _ := exchange(map[string]string{"alice": "10"})
	a, _ := newTestApp(t, fc)

	assert.False(t, a.isLoggedIn())
	assert.Equal(t, "(guest)", a.getStatus())

	login(t, a)
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(Alice 10.0000 SND)", a.getStatus())
}

func TestLogin_Failure(t *testing.T) {
	fc, _ := exchange(map[string]string{})
	a, out := newTestApp(t, fc)
	stubAnswers(t, "mallory@x.io")
	stubPassword(t, "nope")

	err := a.Login(context.Background())
	require.Error(t, err)
	assert.False(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Login failed: invalid credentials")
}

func TestLogoutClearsSession(t *testing.T) {
	fc, _ := exchange(map[string]string{"alice": "10"})
	a, out := newTestApp(t, fc)
	login(t, a)

	require.NoError(t, a.Logout(context.Background()))
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, "", fc.Token())
	assert.Contains(t, out.String(), "Logged out.")
}

func TestRegister_ThenVerify(t *testing.T) {
	fc := &fake.Client{}
	var registered, verified []string
	fc.RegisterFn = func(_ context.Context, userID, email string) error {
		registered = append(registered, userID, email)
		return nil
	}
	fc.VerifyFn = func(_ context.Context, req client.VerifyRequest) (*client.AuthResult, error) {
		verified = append(verified, req.UserID, req.Code)
		return &client.AuthResult{Session: models.Session{UserID: req.UserID}}, nil
	}
	a, out := newTestApp(t, fc)
	prompts := stubAnswers(t, "bob", "bob@x.io", "123456")

	require.NoError(t, a.Register(context.Background()))
	assert.Equal(t, []string{"bob", "bob@x.io"}, registered)
	assert.Equal(t, []string{"bob", "123456"}, verified)
	assert.Equal(t, []string{"Enter user id", "Enter email", "Enter verification code"}, *prompts)
	assert.Contains(t, out.String(), "Account verified")
}

func TestRegister_InvalidEmail(t *testing.T) {
	fc := &fake.Client{}
	a, out := newTestApp(t, fc)
	stubAnswers(t, "bob", "not-an-email")

	require.Error(t, a.Register(context.Background()))
	assert.Equal(t, 0, fc.Calls("Register"))
	assert.Contains(t, out.String(), "Registration failed: invalid email")
}

func TestVerify_Rejected(t *testing.T) {
	fc := &fake.Client{}
	fc.VerifyFn = func(context.Context, client.VerifyRequest) (*client.AuthResult, error) {
		return nil, &client.Error{Kind: client.KindRejected, Status: 400, Message: "wrong code"}
	}
	a, out := newTestApp(t, fc)
	stubAnswers(t, "bob", "000000")

	require.Error(t, a.Verify(context.Background()))
	assert.Contains(t, out.String(), "Verification failed: wrong code")
}

func TestOpen_ProtectedPageRedirectsToLoginAndBack(t *testing.T) {
	fc, mu := exchange(map[string]string{"alice": "10"})
	var sold []client.SellRequest
	fc.SellFn = func(_ context.Context, req client.SellRequest) (*models.Receipt, error) {
		mu.Lock()
		defer mu.Unlock()
		sold = append(sold, req)
		nb := decimal.NewFromInt(8)
		return &models.Receipt{TransactionID: "tx-1", Amount: req.Amount, NewBalance: &nb}, nil
	}
	a, out := newTestApp(t, fc)
	prompts := stubAnswers(t, "alice@x.io", "2", "y")
	stubPassword(t, "pw")

	require.NoError(t, a.Open(context.Background(), "/sell"))

	require.Len(t, sold, 1)
	assert.Equal(t, "alice", sold[0].UserID)
	assert.True(t, sold[0].Amount.Equal(decimal.NewFromInt(2)))

	assert.Equal(t, []string{"Enter email", "Amount (SND)", "Submit? (y/n)"}, *prompts)

	text := out.String()
	assert.Contains(t, text, "Please log in to open /sell.")
	assert.Contains(t, text, "Welcome, Alice")
	assert.Contains(t, text, "== SELL ==")
	assert.Contains(t, text, "Balance after this operation (fee 0.001): 7.9990 SND")
	assert.Contains(t, text, "token sale processed successfully")
	assert.Contains(t, text, "Transaction id: tx-1")
	assert.Contains(t, text, "Balance of alice: 8.0000 SND")

	sess, ok := a.store.Current()
	require.True(t, ok)
	assert.True(t, sess.Balance.Equal(decimal.NewFromInt(8)))
}

func TestOpen_TransferRetriesAfterValidationError(t *testing.T) {
	balances := map[string]string{"alice": "10", "bob": "1"}
	fc, mu := exchange(balances)
	fc.TransferFn = func(_ context.Context, req client.TransferRequest) (*models.Receipt, error) {
		mu.Lock()
		defer mu.Unlock()
		balances["alice"] = "9"
		balances["bob"] = "2"
		return &models.Receipt{TransactionID: "tx-2", Amount: req.Amount}, nil
	}
	a, out := newTestApp(t, fc)
	login(t, a)

	prompts := stubAnswers(t,
		"alice", "1", "y", // self transfer is rejected
		"y",               // try again
		"bob", "", "y",    // keep the amount
	)

	require.NoError(t, a.Open(context.Background(), "/transfer"))

	assert.Equal(t, 1, fc.Calls("Transfer"))
	assert.Equal(t, []string{
		"Receiver id", "Amount (SND)", "Submit? (y/n)",
		"Try again? (y/n)",
		"Receiver id [alice]", "Amount (SND) [1]", "Submit? (y/n)",
	}, *prompts)

	text := out.String()
	assert.Contains(t, text, "Error: you cannot transfer tokens to yourself")
	assert.Contains(t, text, "transfer processed successfully")
	assert.Contains(t, text, "Balance of alice: 9.0000 SND")

	sess, _ := a.store.Current()
	assert.True(t, sess.Balance.Equal(decimal.NewFromInt(9)))
}

func TestOpen_PurchaseShowsCardAndCost(t *testing.T) {
	fc, _ := exchange(map[string]string{"alice": "10"})
	fc.GetTokenValueFn = func(context.Context) (models.TokenValue, error) {
		return models.TokenValue{Value: decimal.RequireFromString("1.5"), Timestamp: "2025-05-01T00:00:00Z"}, nil
	}
	a, out := newTestApp(t, fc)
	login(t, a)

	stubAnswers(t, "4", "9999 1234 5678 9012", "1299", "123", "n")

	require.NoError(t, a.Open(context.Background(), "/purchase"))
	assert.Equal(t, 0, fc.Calls("Distribute"))

	text := out.String()
	assert.Contains(t, text, "Card: 9999 1234 5678 9012")
	assert.Contains(t, text, "Total cost: 6.00")
	assert.Contains(t, text, "Cancelled.")
}

func TestOpen_UnknownPage(t *testing.T) {
	fc, _ := exchange(map[string]string{"alice": "10"})
	a, _ := newTestApp(t, fc)

	err := a.Open(context.Background(), "/nowhere")
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestBalance_AnonymousAsksForUser(t *testing.T) {
	fc, _ := exchange(map[string]string{"bob": "3.5"})
	a, out := newTestApp(t, fc)
	stubAnswers(t, "bob")

	require.NoError(t, a.Balance(context.Background()))
	assert.Contains(t, out.String(), "Balance of bob: 3.5000 SND")
}

func TestBalance_UnknownUser(t *testing.T) {
	fc, _ := exchange(map[string]string{})
	a, out := newTestApp(t, fc)
	stubAnswers(t, "ghost")

	require.Error(t, a.Balance(context.Background()))
	assert.Contains(t, out.String(), "Could not load balance: user not found")
}

func TestValue(t *testing.T) {
	fc := &fake.Client{}
	fc.GetTokenValueFn = func(context.Context) (models.TokenValue, error) {
		return models.TokenValue{Value: decimal.RequireFromString("2.25"), Timestamp: "now"}, nil
	}
	a, out := newTestApp(t, fc)

	require.NoError(t, a.Value(context.Background()))
	assert.Contains(t, out.String(), "1 SND = 2.2500 (as of now)")

	fc.GetTokenValueFn = func(context.Context) (models.TokenValue, error) {
		return models.TokenValue{}, errors.New("down")
	}
	assert.ErrorIs(t, a.Value(context.Background()), client.ErrUnavailable)
}

func TestHistory(t *testing.T) {
	fc, _ := exchange(map[string]string{"alice": "10"})
	a, out := newTestApp(t, fc)

	assert.ErrorIs(t, a.History(context.Background()), client.ErrUnauthorized)

	login(t, a)
	require.NoError(t, a.History(context.Background()))
	assert.Contains(t, out.String(), "No transactions yet.")

	fc.GetTransactionsFn = func(_ context.Context, userID string) ([]models.Transaction, error) {
		return []models.Transaction{{
			ID: "tx-7", Type: "transfer", SenderID: userID, ReceiverID: "bob",
			Amount: decimal.NewFromInt(1), Timestamp: "2025-05-01",
		}}, nil
	}
	out.Reset()
	require.NoError(t, a.History(context.Background()))
	assert.Contains(t, out.String(), "tx-7")
	assert.Contains(t, out.String(), "1.0000")
}

func TestRun_RestoresAndServesREPL(t *testing.T) {
	captureOutput(t)

	fc := &fake.Client{}
	fc.VerifyFn = func(_ context.Context, req client.VerifyRequest) (*client.AuthResult, error) {
		return &client.AuthResult{Session: models.Session{UserID: req.UserID, Balance: decimal.NewFromInt(5)}}, nil
	}
	creds := &memCreds{cred: models.Credential{UserID: "carol", AuthToken: "stored"}}

	var out bytes.Buffer
	store := session.NewStore(fc, creds, nil)
	a := newApp(fc, store, nil, bufio.NewReader(strings.NewReader("exit\n")), &out)

	a.Run(context.Background())

	assert.Contains(t, out.String(), "Welcome back, carol")
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "stored", fc.Token())
}

func TestRun_PipedInputFeedsPrompts(t *testing.T) {
	captureOutput(t)
	stubPassword(t, "pw")

	fc, mu := exchange(map[string]string{"alice": "10"})
	fc.SellFn = func(_ context.Context, req client.SellRequest) (*models.Receipt, error) {
		mu.Lock()
		defer mu.Unlock()
		nb := decimal.NewFromInt(8)
		return &models.Receipt{TransactionID: "tx-3", Amount: req.Amount, NewBalance: &nb}, nil
	}

	input := strings.Join([]string{
		"register", "bob", "bob@x.io", "123456",
		"login", "alice@x.io",
		"sell", "2", "y",
		"exit",
	}, "\n") + "\n"

	var out bytes.Buffer
	store := session.NewStore(fc, &memCreds{}, nil)
	a := newApp(fc, store, nil, bufio.NewReader(strings.NewReader(input)), &out)

	a.Run(context.Background())

	assert.Equal(t, 1, fc.Calls("Register"))
	assert.Equal(t, 1, fc.Calls("Verify"))
	assert.Equal(t, 1, fc.Calls("Sell"))

	text := out.String()
	assert.Contains(t, text, "Account verified")
	assert.Contains(t, text, "Welcome, Alice")
	assert.Contains(t, text, "token sale processed successfully")
	assert.Contains(t, text, "Balance of alice: 8.0000 SND")
}
