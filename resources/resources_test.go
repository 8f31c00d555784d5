package resources_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/curnce/curnce-client/gateway"
	"github.com/curnce/curnce-client/internal/config"
	clienterrors "github.com/curnce/curnce-client/internal/errors"
	"github.com/curnce/curnce-client/internal/mockapi"
	"github.com/curnce/curnce-client/oauthmodel"
	"github.com/curnce/curnce-client/resources"
	"github.com/curnce/curnce-client/session"
	"github.com/curnce/curnce-client/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type uploadLimit int64

func (l uploadLimit) GetMaxUploadBytes() int64 {
	return int64(l)
}

type testFixture struct {
	api       *mockapi.Server
	sessions  *session.Manager
	resources *resources.Client
}

func setupTestFixture(t *testing.T, limit int64) *testFixture {
	t.Helper()

	api := mockapi.New(mockapi.WithLogger(zerolog.Nop()))
	_, err := api.AddUser(users.User{Email: "ada@example.com", Role: users.RoleAccountant}, "Passw0rd!", false)
	require.NoError(t, err)
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	sessions := session.NewManager(session.NewMemoryStore())
	gw := gateway.New(config.New(), sessions, gateway.WithBaseURL(server.URL), gateway.WithLogger(zerolog.Nop()))

	resp, err := gw.Do(context.Background(), gateway.RouteAuthLogin, gateway.Options{
		Method:    http.MethodPost,
		Body:      oauthmodel.LoginRequest{Email: "ada@example.com", Password: "Passw0rd!"},
		Anonymous: true,
	})
	require.NoError(t, err)
	var tokens oauthmodel.TokenResponse
	require.NoError(t, resp.Decode(&tokens))
	require.NoError(t, sessions.Adopt(context.Background(), &tokens))

	return &testFixture{
		api:       api,
		sessions:  sessions,
		resources: resources.New(uploadLimit(limit), gw),
	}
}

func TestAccounts_List(t *testing.T) {
	f := setupTestFixture(t, 1024)

	accounts, err := f.resources.Accounts.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 4)
	require.Equal(t, "Cash", accounts[0].Name)
	require.Equal(t, 12500.5, accounts[0].Balance)
}

func TestAccounts_ListAfterTokenExpiry(t *testing.T) {
	f := setupTestFixture(t, 1024)
	f.api.ExpireAccessTokens()

	accounts, err := f.resources.Accounts.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, accounts)

	require.Equal(t, 2, f.api.Calls("GET /v1/accounts"))
	require.Equal(t, 1, f.api.Calls("POST /v1/auth/refresh"))
}

func TestJournal_Post(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, 1024)

	t.Run("balanced entry", func(t *testing.T) {
		posted, err := f.resources.Journal.Post(ctx, resources.JournalEntry{
			Date:        "2024-01-31",
			Description: "January sales",
			Lines: []resources.JournalLine{
				{AccountID: "1000", Debit: 125.10},
				{AccountID: "4000", Credit: 125.10},
			},
		})
		require.NoError(t, err)
		require.NotEmpty(t, posted.ID)
		require.Equal(t, "posted", posted.Status)
		require.Len(t, posted.Lines, 2)
	})

	t.Run("unbalanced entry stays local", func(t *testing.T) {
		calls := f.api.Calls("POST /v1/accounting/journal")
		_, err := f.resources.Journal.Post(ctx, resources.JournalEntry{
			Date: "2024-01-31",
			Lines: []resources.JournalLine{
				{AccountID: "1000", Debit: 100},
				{AccountID: "4000", Credit: 99.99},
			},
		})
		require.ErrorIs(t, err, clienterrors.ErrValidation)
		require.Equal(t, calls, f.api.Calls("POST /v1/accounting/journal"))
	})

	t.Run("single line", func(t *testing.T) {
		_, err := f.resources.Journal.Post(ctx, resources.JournalEntry{Lines: []resources.JournalLine{{AccountID: "1000"}}})
		require.ErrorIs(t, err, clienterrors.ErrValidation)
	})
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, 1024)

	t.Run("get", func(t *testing.T) {
		ledger, err := f.resources.Ledger.Get(ctx, "general")
		require.NoError(t, err)
		require.Equal(t, "General Ledger", ledger.Name)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := f.resources.Ledger.Get(ctx, "missing")
		require.Equal(t, http.StatusNotFound, clienterrors.StatusCode(err))
		var httpErr *clienterrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, "ledger missing not found", httpErr.Message())
	})

	t.Run("transactions", func(t *testing.T) {
		page, err := f.resources.Ledger.Transactions(ctx, "2024-01-01", "2024-01-31")
		require.NoError(t, err)
		require.Equal(t, "2024-01-01", page.From)
		require.Equal(t, "2024-01-31", page.To)
		require.Len(t, page.Transactions, 2)
	})

	for _, tc := range []struct {
		format      resources.ExportFormat
		contentType string
	}{
		{resources.ExportCSV, "text/csv"},
		{resources.ExportPDF, "application/pdf"},
		{resources.ExportXLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	} {
		t.Run("export "+string(tc.format), func(t *testing.T) {
			export, err := f.resources.Ledger.Export(ctx, tc.format)
			require.NoError(t, err)
			require.Equal(t, tc.contentType, export.ContentType)
			require.Equal(t, "ledger."+string(tc.format), export.Filename)
			require.NotEmpty(t, export.Data)
		})
	}

	t.Run("export unsupported format", func(t *testing.T) {
		_, err := f.resources.Ledger.Export(ctx, "docx")
		require.ErrorIs(t, err, clienterrors.ErrValidation)
	})
}

func TestSupport_Upload(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, 16)

	attachment, err := f.resources.Support.Upload(ctx, "T-42", "receipt.pdf", []byte("%PDF-1.4 tiny"))
	require.NoError(t, err)
	require.Equal(t, "T-42", attachment.TicketID)
	require.Equal(t, "receipt.pdf", attachment.Filename)
	require.EqualValues(t, 13, attachment.Size)
	require.Equal(t, []mockapi.Upload{{TicketID: "T-42", Filename: "receipt.pdf", Size: 13}}, f.api.Uploads())

	_, err = f.resources.Support.Upload(ctx, "T-42", "scan.pdf", make([]byte, 17))
	require.ErrorIs(t, err, clienterrors.ErrValidation)
	require.Len(t, f.api.Uploads(), 1, "oversized files are never sent")

	_, err = f.resources.Support.Upload(ctx, "T-42", "empty.pdf", nil)
	require.ErrorIs(t, err, clienterrors.ErrValidation)
}

func TestNotifications_List(t *testing.T) {
	f := setupTestFixture(t, 1024)

	notifications, err := f.resources.Notifications.List(context.Background())
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	require.False(t, notifications[0].Read)
}
