package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"cashbook/internal/core"
	"cashbook/internal/timeutil"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	loc, err := timeutil.LoadZone("")
	if err != nil {
		t.Fatal(err)
	}
	cli, err := New(Config{
		BaseURL:   srv.URL + "/api/v1",
		AuthToken: "test-token",
		OrgID:     "ORG123",
		UserID:    "user123",
		Timezone:  loc,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return cli, srv
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	if _, err := New(Config{BaseURL: "ftp://example.com"}); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}

func TestFetchTransactionsNormalizes(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/financial/transactions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("startDate") == "" || r.URL.Query().Get("endDate") == "" {
			t.Error("missing range query params")
		}
		if got := r.Header.Get("Authorization"); got != "test-token" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode([]core.Transaction{
			{
				TransactionID: "t1",
				Category:      "Bill",
				Amount:        core.Money{Cents: 50000},
				CustomFields: []core.CustomField{
					{FieldKey: core.FieldLastActivity, FieldValue: "1717200000000", FieldValueType: core.FieldTypeString},
				},
			},
			{
				TransactionID: "t2",
				Category:      "Shopping",
				Amount:        core.Money{Cents: 12500},
				CustomFields: []core.CustomField{
					{FieldKey: core.FieldLastActivity, FieldValue: "1718000000000", FieldValueType: core.FieldTypeString},
				},
			},
		})
	})
	cli, _ := newTestClient(t, handler)

	txs, err := cli.FetchTransactions(context.Background(), 0, 2000000000000)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions", len(txs))
	}
	for _, tx := range txs {
		ms, ok := tx.Timestamp()
		if !ok {
			t.Fatalf("transaction %s lost its timestamp", tx.TransactionID)
		}
		wantDate := timeutil.FormatDate(ms, cli.Zone())
		wantTime := timeutil.FormatTime(ms, cli.Zone())
		if tx.FormattedDate != wantDate || tx.FormattedTime != wantTime {
			t.Errorf("%s formatted = %q %q, want %q %q",
				tx.TransactionID, tx.FormattedDate, tx.FormattedTime, wantDate, wantTime)
		}
	}
}

func TestCreateTransactionRefusedLocally(t *testing.T) {
	var hits atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(core.Transaction{})
	})
	cli, _ := newTestClient(t, handler)

	valid := core.TransactionDraft{
		Category:     "Bill",
		Amount:       core.Money{Cents: 1000},
		Counterparty: "Shop",
		Date:         time.Now(),
	}

	blanks := []struct {
		name    string
		mutate  func(*core.TransactionDraft)
		wantErr error
	}{
		{"amount", func(d *core.TransactionDraft) { d.Amount = core.Money{} }, core.ErrInvalidAmount},
		{"date", func(d *core.TransactionDraft) { d.Date = time.Time{} }, core.ErrMissingDate},
		{"category", func(d *core.TransactionDraft) { d.Category = "" }, core.ErrMissingCategory},
		{"counterparty", func(d *core.TransactionDraft) { d.Counterparty = "" }, core.ErrMissingCounterparty},
	}
	for _, tt := range blanks {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			if _, err := cli.CreateTransaction(context.Background(), d); !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateTransaction = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if hits.Load() != 0 {
		t.Fatalf("invalid drafts reached the network %d times", hits.Load())
	}
}

func TestCreateTransactionWireShape(t *testing.T) {
	var captured transactionRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/transactions" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(core.Transaction{TransactionID: "new"})
	})
	cli, _ := newTestClient(t, handler)

	date := time.Date(2024, 6, 1, 0, 0, 0, 0, cli.Zone())
	_, err := cli.CreateTransaction(context.Background(), core.TransactionDraft{
		Category:     "Loan",
		Amount:       core.Money{Cents: 250050},
		AmountIn:     true,
		Counterparty: "Ravi",
		Reason:       "repayment",
		Date:         date,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if captured.OrgID != "ORG123" {
		t.Errorf("orgId = %q", captured.OrgID)
	}
	// Cash-in records the counterparty as sender.
	if captured.SenderName != "Ravi" || captured.ReceiverName != "" {
		t.Errorf("sender/receiver = %q/%q", captured.SenderName, captured.ReceiverName)
	}
	if captured.Updates == nil {
		t.Error("updates must be an empty array, not null")
	}
	if len(captured.CustomFields) != 2 {
		t.Fatalf("customFields = %v", captured.CustomFields)
	}
	if captured.CustomFields[0].FieldKey != core.FieldTransactionDate {
		t.Errorf("first field = %s", captured.CustomFields[0].FieldKey)
	}
	gotMs, err := strconv.ParseInt(captured.CustomFields[0].FieldValue, 10, 64)
	if err != nil || gotMs != date.UnixMilli() {
		t.Errorf("transaction-date = %q, want %d", captured.CustomFields[0].FieldValue, date.UnixMilli())
	}
	if captured.CustomFields[1].FieldKey != core.FieldLastActivity {
		t.Errorf("second field = %s", captured.CustomFields[1].FieldKey)
	}
}

func TestFinancialStats(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/financial/balance":
			_, _ = w.Write([]byte("150.25"))
		case "/api/v1/financial/cash-in":
			_, _ = w.Write([]byte("500"))
		case "/api/v1/financial/cash-out":
			_, _ = w.Write([]byte("349.75"))
		default:
			http.NotFound(w, r)
		}
	})
	cli, _ := newTestClient(t, handler)

	stats, err := cli.FinancialStats(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Balance.Cents != 15025 || stats.TotalIncome.Cents != 50000 || stats.TotalExpenses.Cents != 34975 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestCategories(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/transactions/categories" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]string{"Bill", "Shopping", "Betting", "Loan", "EMIs"})
	})
	cli, _ := newTestClient(t, handler)

	cats, err := cli.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) != 5 || cats[0] != "Bill" {
		t.Fatalf("categories = %v", cats)
	}
}

func TestAPIErrorMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"category unknown"}`))
	})
	cli, _ := newTestClient(t, handler)

	_, err := cli.ListTransactions(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Message != "category unknown" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}
