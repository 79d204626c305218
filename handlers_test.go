package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ghostbudget/pkg/classifier"
	"ghostbudget/pkg/ledger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

// helper to perform requests with an optional bearer token
func performRequest(r http.Handler, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewBuffer(b)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func setupTestServer(t *testing.T, model classifier.Classifier, adminSecret string) (*gin.Engine, *ledger.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	name := strings.ReplaceAll(t.Name(), "/", "_")
	gdb, err := ledger.Open(ledger.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name), true)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := ledger.Reset(gdb); err != nil {
		t.Fatalf("reset db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	svc := ledger.NewService(ledger.NewStore(gdb), model, "demo_user")
	r := newRouter(&server{svc: svc, adminSecret: []byte(adminSecret)})
	return r, svc
}

type userResponse struct {
	ID                  uint            `json:"id"`
	Username            string          `json:"username"`
	CurrentBalance      decimal.Decimal `json:"current_balance"`
	RothIRAContribution decimal.Decimal `json:"roth_ira_contribution"`
	HighYieldSavings    decimal.Decimal `json:"high_yield_savings"`
	GhostBudget         decimal.Decimal `json:"ghost_budget"`
}

func createUser(t *testing.T, r http.Handler, name string) userResponse {
	t.Helper()
	rec := performRequest(r, http.MethodPost, "/users/", jsonBody(t, map[string]string{"username": name}), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("create user status=%d body=%s", rec.Code, rec.Body.String())
	}
	var u userResponse
	decode(t, rec, &u)
	return u
}

func TestCreateUserEndpoint(t *testing.T) {
	r, _ := setupTestServer(t, classifier.Fixed{}, "")

	u := createUser(t, r, "alice")
	if u.ID == 0 || u.Username != "alice" || !u.CurrentBalance.Equal(decimal.NewFromInt(10000)) || !u.GhostBudget.IsZero() {
		t.Fatalf("unexpected user %+v", u)
	}

	rec := performRequest(r, http.MethodPost, "/users/", jsonBody(t, map[string]string{"username": "alice"}), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate username got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}

	rec = performRequest(r, http.MethodGet, fmt.Sprintf("/users/%d", u.ID), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get user status=%d", rec.Code)
	}
	rec = performRequest(r, http.MethodGet, "/users/999", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	rec = performRequest(r, http.MethodGet, "/users/abc", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestPredictEndpoint(t *testing.T) {
	p := 0.8
	r, _ := setupTestServer(t, classifier.Fixed{Label: 1, Probability: &p}, "")

	rec := performRequest(r, http.MethodPost, "/predict", jsonBody(t, map[string]any{
		"expense_date": "2025-02-21", "expense_type": "Food", "amount": 42.5,
	}), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("predict status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Prediction  int      `json:"prediction"`
		Probability *float64 `json:"probability"`
	}
	decode(t, rec, &resp)
	if resp.Prediction != 1 || resp.Probability == nil || *resp.Probability != 0.8 {
		t.Fatalf("unexpected prediction %+v", resp)
	}

	rec = performRequest(r, http.MethodPost, "/predict", jsonBody(t, map[string]any{
		"expense_date": "2025-02-21", "expense_type": "Travel", "amount": 42.5,
	}), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown expense type got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodPost, "/predict", jsonBody(t, map[string]any{
		"expense_date": "21/02/2025", "expense_type": "Food", "amount": 42.5,
	}), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date got %d", rec.Code)
	}
}

func TestPredictWithoutProbability(t *testing.T) {
	r, _ := setupTestServer(t, classifier.Fixed{Label: 0}, "")
	rec := performRequest(r, http.MethodPost, "/predict", jsonBody(t, map[string]any{
		"expense_date": "2025-02-21", "expense_type": "Bills", "amount": 10,
	}), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("predict status=%d", rec.Code)
	}
	var resp map[string]any
	decode(t, rec, &resp)
	if v, ok := resp["probability"]; !ok || v != nil {
		t.Fatalf("expected null probability, got %v", resp)
	}
}

func TestCalculateChargeEndpoint(t *testing.T) {
	r, _ := setupTestServer(t, classifier.Fixed{}, "")
	cases := []struct {
		actual, unnecessary float64
		want                string
	}{
		{100, 100, "100"},
		{100, 250, "280"},
		{100, 115, "118"},
		{80, 150, "128"},
	}
	for _, c := range cases {
		rec := performRequest(r, http.MethodPost, "/calculate-charge", jsonBody(t, map[string]any{
			"actual_charge": c.actual, "unnecessary_spending": c.unnecessary,
		}), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("calculate-charge status=%d", rec.Code)
		}
		var resp struct {
			AdjustedCharge decimal.Decimal `json:"adjusted_charge"`
		}
		decode(t, rec, &resp)
		if !resp.AdjustedCharge.Equal(decimal.RequireFromString(c.want)) {
			t.Fatalf("adjusted(%v,%v): expected %s got %s", c.actual, c.unnecessary, c.want, resp.AdjustedCharge)
		}
	}
	rec := performRequest(r, http.MethodPost, "/calculate-charge", jsonBody(t, map[string]any{"actual_charge": 1}), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing field got %d", rec.Code)
	}
}

func TestCreateTransactionEndpoint(t *testing.T) {
	r, svc := setupTestServer(t, classifier.Fixed{}, "")
	u := createUser(t, r, "bob")

	rec := performRequest(r, http.MethodPost, "/transactions/", jsonBody(t, map[string]any{
		"user_id": u.ID, "expense_date": "2025-02-21", "expense_type": "Transport", "expense_amount": 12.5,
	}), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("create transaction status=%d body=%s", rec.Code, rec.Body.String())
	}
	var tx struct {
		ID            uint            `json:"id"`
		UserID        uint            `json:"user_id"`
		ExpenseDate   string          `json:"expense_date"`
		ExpenseType   string          `json:"expense_type"`
		ExpenseAmount decimal.Decimal `json:"expense_amount"`
	}
	decode(t, rec, &tx)
	if tx.ID == 0 || tx.UserID != u.ID || tx.ExpenseDate != "2025-02-21" || tx.ExpenseType != "Transport" {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	rec = performRequest(r, http.MethodPost, "/transactions/", jsonBody(t, map[string]any{
		"user_id": 999, "expense_date": "2025-02-21", "expense_type": "Food", "expense_amount": 5,
	}), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodPost, "/transactions/", jsonBody(t, map[string]any{
		"user_id": u.ID, "expense_date": "2025-02-21", "expense_type": "Gifts", "expense_amount": 5,
	}), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type got %d", rec.Code)
	}

	items, err := svc.ListUserTransactions(context.Background(), u.ID)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected exactly 1 stored transaction, got %d err=%v", len(items), err)
	}

	rec = performRequest(r, http.MethodGet, fmt.Sprintf("/users/%d/transactions", u.ID), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list transactions status=%d", rec.Code)
	}
	var listed []map[string]any
	decode(t, rec, &listed)
	if len(listed) != 1 {
		t.Fatalf("expected 1 listed transaction got %d", len(listed))
	}
}

type calcResponse struct {
	UserID         uint            `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	FinalCharge    decimal.Decimal `json:"final_charge"`
	ChargeType     string          `json:"charge_type"`
	Prediction     int             `json:"prediction"`
	Difference     decimal.Decimal `json:"difference"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	GhostBudget    decimal.Decimal `json:"ghost_budget"`
}

func TestGhostBudgetFlow(t *testing.T) {
	r, _ := setupTestServer(t, classifier.Fixed{Label: 1}, "")
	u := createUser(t, r, "carol")

	calc := func() calcResponse {
		rec := performRequest(r, http.MethodPost, "/transactions/calc", jsonBody(t, map[string]any{
			"user_id": u.ID, "expense_date": "2025-02-21", "expense_type": "Shopping", "amount": 80,
		}), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("calc status=%d body=%s", rec.Code, rec.Body.String())
		}
		var res calcResponse
		decode(t, rec, &res)
		return res
	}

	res := calc()
	if res.ChargeType != "fake" || res.Prediction != 1 || !res.FinalCharge.Equal(decimal.NewFromInt(128)) || !res.Difference.Equal(decimal.NewFromInt(48)) {
		t.Fatalf("unexpected calc result %+v", res)
	}
	if !res.CurrentBalance.Equal(decimal.NewFromInt(9872)) || !res.GhostBudget.Equal(decimal.NewFromInt(48)) {
		t.Fatalf("unexpected balances %+v", res)
	}
	res = calc()
	if !res.GhostBudget.Equal(decimal.NewFromInt(96)) {
		t.Fatalf("expected ghost budget 96, got %s", res.GhostBudget)
	}

	// claim moves 96 back into the balance
	rec := performRequest(r, http.MethodPost, "/users/claim", jsonBody(t, map[string]any{"user_id": u.ID}), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("claim status=%d", rec.Code)
	}
	var claim struct {
		Message        string          `json:"message"`
		CurrentBalance decimal.Decimal `json:"current_balance"`
		NewGhostBudget decimal.Decimal `json:"new_ghost_budget"`
	}
	decode(t, rec, &claim)
	if claim.Message == "" || !claim.CurrentBalance.Equal(decimal.NewFromInt(9840)) || !claim.NewGhostBudget.IsZero() {
		t.Fatalf("unexpected claim %+v", claim)
	}

	// second claim is a no-op
	rec = performRequest(r, http.MethodPost, "/users/claim", jsonBody(t, map[string]any{"user_id": u.ID}), "")
	decode(t, rec, &claim)
	if !claim.CurrentBalance.Equal(decimal.NewFromInt(9840)) {
		t.Fatalf("second claim changed balance to %s", claim.CurrentBalance)
	}

	calc()
	rec = performRequest(r, http.MethodPost, "/users/continue-saving", jsonBody(t, map[string]any{"user_id": u.ID}), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("continue-saving status=%d", rec.Code)
	}
	var saving struct {
		RothIRAContribution decimal.Decimal `json:"roth_ira_contribution"`
		HighYieldSavings    decimal.Decimal `json:"high_yield_savings"`
		NewGhostBudget      decimal.Decimal `json:"new_ghost_budget"`
	}
	decode(t, rec, &saving)
	if !saving.RothIRAContribution.Equal(decimal.NewFromInt(24)) || !saving.HighYieldSavings.Equal(decimal.NewFromInt(24)) || !saving.NewGhostBudget.IsZero() {
		t.Fatalf("unexpected continue-saving result %+v", saving)
	}

	for _, path := range []string{"/users/claim", "/users/continue-saving"} {
		rec = performRequest(r, http.MethodPost, path, jsonBody(t, map[string]any{"user_id": 999}), "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404 got %d", path, rec.Code)
		}
	}
}

func TestCalcDemoUser(t *testing.T) {
	r, svc := setupTestServer(t, classifier.Fixed{Label: 0}, "")
	rec := performRequest(r, http.MethodPost, "/transactions/calc", jsonBody(t, map[string]any{
		"expense_date": "2025-02-21", "expense_type": "Food", "amount": 20,
	}), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("calc status=%d body=%s", rec.Code, rec.Body.String())
	}
	var res calcResponse
	decode(t, rec, &res)
	if res.ChargeType != "real" || !res.CurrentBalance.Equal(decimal.NewFromInt(9980)) || !res.GhostBudget.IsZero() {
		t.Fatalf("unexpected result %+v", res)
	}
	demo, err := svc.Store().GetUserByUsername(context.Background(), "demo_user")
	if err != nil || demo.ID != res.UserID {
		t.Fatalf("demo user mismatch: %+v err=%v", demo, err)
	}

	rec = performRequest(r, http.MethodPost, "/transactions/calc", jsonBody(t, map[string]any{
		"expense_date": "2025-02-21", "expense_type": "Nope", "amount": 20,
	}), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	rec = performRequest(r, http.MethodPost, "/transactions/calc", jsonBody(t, map[string]any{
		"user_id": 999, "expense_date": "2025-02-21", "expense_type": "Food", "amount": 20,
	}), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestUpdateFinancialsEndpoint(t *testing.T) {
	r, _ := setupTestServer(t, classifier.Fixed{}, "")
	u := createUser(t, r, "dave")

	body := map[string]any{
		"user_id": u.ID, "current_balance": 1500.25, "roth_ira_contribution": 10,
		"high_yield_savings": 20, "ghost_budget": 50,
	}
	rec := performRequest(r, http.MethodPut, "/users/update-financials/", jsonBody(t, body), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rec.Code, rec.Body.String())
	}
	var got userResponse
	decode(t, rec, &got)
	if !got.CurrentBalance.Equal(decimal.RequireFromString("1500.25")) || !got.GhostBudget.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected user %+v", got)
	}

	body["user_id"] = 999
	rec = performRequest(r, http.MethodPut, "/users/update-financials/", jsonBody(t, body), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestUpdateFinancialsRequiresAdminToken(t *testing.T) {
	const secret = "test-secret"
	r, _ := setupTestServer(t, classifier.Fixed{}, secret)
	u := createUser(t, r, "erin")
	body := map[string]any{
		"user_id": u.ID, "current_balance": 1, "roth_ira_contribution": 0,
		"high_yield_savings": 0, "ghost_budget": 0,
	}

	rec := performRequest(r, http.MethodPut, "/users/update-financials/", jsonBody(t, body), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", rec.Code)
	}

	sign := func(role string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "ops",
			"role": role,
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		s, err := tok.SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	rec = performRequest(r, http.MethodPut, "/users/update-financials/", jsonBody(t, body), sign("viewer"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-admin token got %d", rec.Code)
	}
	rec = performRequest(r, http.MethodPut, "/users/update-financials/", jsonBody(t, body), sign("admin"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with admin token got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestHealthEchoesRequestID(t *testing.T) {
	r, _ := setupTestServer(t, classifier.Fixed{}, "")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}

	rec = performRequest(r, http.MethodGet, "/users/9999", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rec.Code)
	}
}
