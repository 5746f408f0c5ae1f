package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamkz/banking-app/internal/fraud"
)

func newAdminFixture(t *testing.T, scorerURL string) (*AdminService, *historyFixture) {
	t.Helper()

	f := newHistoryFixture(t)
	scorer := fraud.NewClient(scorerURL, time.Second, testLogger())
	admin := NewAdminService(f.store, scorer, f.service, testLogger())
	return admin, f
}

func TestSystemStats(t *testing.T) {
	admin, _ := newAdminFixture(t, "http://127.0.0.1:1")

	stats, err := admin.SystemStats()
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.UserCount)
	assert.Equal(t, int64(2), stats.AccountCount)
	assert.Equal(t, int64(4), stats.TransactionCount)
	// 100 + 50 deposits, 30 + 10 transfers.
	assert.True(t, stats.TotalAmount.Equal(decimal.RequireFromString("190.00")),
		"total amount %s", stats.TotalAmount)
}

func TestDailyStatsBucketsRecentVolume(t *testing.T) {
	admin, _ := newAdminFixture(t, "http://127.0.0.1:1")

	stats, err := admin.DailyStats(30)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	assert.Equal(t, int64(4), stats[0].Count)
	assert.True(t, stats[0].Amount.Equal(decimal.RequireFromString("190.00")))

	// A window starting in the future sees nothing.
	empty, err := admin.DailyStats(-1)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMonthlyStatsBucketsLastYear(t *testing.T) {
	admin, _ := newAdminFixture(t, "http://127.0.0.1:1")

	stats, err := admin.MonthlyStats()
	require.NoError(t, err)
	require.Len(t, stats, 1)

	assert.Equal(t, time.Now().Format("2006-01"), stats[0].Month)
	assert.Equal(t, int64(4), stats[0].Count)
	assert.True(t, stats[0].Amount.Equal(decimal.RequireFromString("190.00")))
}

func TestListUsersAndAccounts(t *testing.T) {
	admin, _ := newAdminFixture(t, "http://127.0.0.1:1")

	users, err := admin.ListUsers()
	require.NoError(t, err)
	assert.Len(t, users, 2)

	accounts, err := admin.ListAccounts()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestListTransactionsAnnotatesEveryRow(t *testing.T) {
	var summaries []fraud.Summary
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var summary fraud.Summary
		require.NoError(t, json.NewDecoder(r.Body).Decode(&summary))
		summaries = append(summaries, summary)

		annotation := fraud.Annotation{IsFraud: summary.Amount >= 100, Score: summary.Amount / 200}
		require.NoError(t, json.NewEncoder(w).Encode(annotation))
	}))
	defer server.Close()

	admin, _ := newAdminFixture(t, server.URL)

	annotated, err := admin.ListTransactions()
	require.NoError(t, err)
	require.Len(t, annotated, 4)
	require.Len(t, summaries, 4)

	// Newest first: refund 10, rent 30, then the two deposits.
	assert.False(t, annotated[0].Fraud.IsFraud)
	assert.InDelta(t, 0.05, annotated[0].Fraud.Score, 1e-9)

	for _, tx := range annotated {
		wantFraud := tx.Amount.GreaterThanOrEqual(decimal.NewFromInt(100))
		assert.Equal(t, wantFraud, tx.Fraud.IsFraud, "amount %s", tx.Amount)
	}

	// Deposits report the system placeholder sender id to the scorer.
	for _, summary := range summaries {
		if summary.Type == "DEPOSIT" {
			assert.Equal(t, int64(-1), summary.SenderAccountID)
		} else {
			assert.NotEqual(t, int64(-1), summary.SenderAccountID)
		}
	}
}

func TestListTransactionsDegradesWithoutScorer(t *testing.T) {
	admin, _ := newAdminFixture(t, "http://127.0.0.1:1")

	annotated, err := admin.ListTransactions()
	require.NoError(t, err)
	require.Len(t, annotated, 4)
	for _, tx := range annotated {
		assert.Equal(t, fraud.Annotation{}, tx.Fraud)
	}
}
