// Package resources wraps the backend resource families in typed calls. Every
// call goes through the gateway, so authentication and refresh are handled
// there.
package resources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/curnce/curnce-client/gateway"
	"github.com/curnce/curnce-client/internal/config"
	clienterrors "github.com/curnce/curnce-client/internal/errors"
)

// Client groups the resource families.
type Client struct {
	Accounts      *Accounts
	Journal       *Journal
	Ledger        *Ledger
	Support       *Support
	Notifications *Notifications
}

func New(cfg config.UploadConfig, gw *gateway.Client) *Client {
	return &Client{
		Accounts:      &Accounts{gw: gw},
		Journal:       &Journal{gw: gw},
		Ledger:        &Ledger{gw: gw},
		Support:       &Support{gw: gw, maxUploadBytes: cfg.GetMaxUploadBytes()},
		Notifications: &Notifications{gw: gw},
	}
}

type Account struct {
	ID      string  `json:"id"`
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Balance float64 `json:"balance"`
}

type Accounts struct {
	gw *gateway.Client
}

func (a *Accounts) List(ctx context.Context) ([]Account, error) {
	return gateway.JSON[[]Account](ctx, a.gw, gateway.RouteAccounts, gateway.Options{})
}

type JournalLine struct {
	AccountID string  `json:"accountId"`
	Debit     float64 `json:"debit,omitempty"`
	Credit    float64 `json:"credit,omitempty"`
	Memo      string  `json:"memo,omitempty"`
}

type JournalEntry struct {
	ID          string        `json:"id,omitempty"`
	Date        string        `json:"date"`
	Description string        `json:"description,omitempty"`
	Lines       []JournalLine `json:"lines"`
	Status      string        `json:"status,omitempty"`
}

// Balanced reports whether debits equal credits to the cent.
func (e JournalEntry) Balanced() bool {
	var debit, credit int64
	for _, l := range e.Lines {
		debit += int64(l.Debit*100 + 0.5)
		credit += int64(l.Credit*100 + 0.5)
	}
	return debit == credit
}

type Journal struct {
	gw *gateway.Client
}

// Post records a journal entry. Unbalanced entries are rejected locally.
func (j *Journal) Post(ctx context.Context, entry JournalEntry) (*JournalEntry, error) {
	if len(entry.Lines) < 2 {
		return nil, clienterrors.Validationf("a journal entry needs at least two lines")
	}
	if !entry.Balanced() {
		return nil, clienterrors.Validationf("journal entry debits and credits differ")
	}
	posted, err := gateway.JSON[JournalEntry](ctx, j.gw, gateway.RouteJournal, gateway.Options{
		Method: http.MethodPost,
		Body:   entry,
	})
	if err != nil {
		return nil, clienterrors.Wrapf(err, "post journal entry")
	}
	return &posted, nil
}

type LedgerSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Accounts int    `json:"accounts"`
}

type Transaction struct {
	ID      string  `json:"id"`
	Date    string  `json:"date"`
	Account string  `json:"account"`
	Amount  float64 `json:"amount"`
}

type TransactionPage struct {
	From         string        `json:"from"`
	To           string        `json:"to"`
	Total        int           `json:"total"`
	Transactions []Transaction `json:"transactions"`
}

// ExportFormat is a ledger export file type.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportPDF  ExportFormat = "pdf"
	ExportXLSX ExportFormat = "xlsx"
)

// Export is a downloaded document.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Ledger struct {
	gw *gateway.Client
}

func (l *Ledger) Get(ctx context.Context, id string) (*LedgerSummary, error) {
	if strings.TrimSpace(id) == "" {
		return nil, clienterrors.Validationf("ledger id is required")
	}
	summary, err := gateway.JSON[LedgerSummary](ctx, l.gw, gateway.RouteLedger+url.PathEscape(id), gateway.Options{})
	if err != nil {
		return nil, clienterrors.Wrapf(err, "get ledger %s", id)
	}
	return &summary, nil
}

// Transactions lists ledger transactions between from and to (YYYY-MM-DD,
// either may be empty).
func (l *Ledger) Transactions(ctx context.Context, from, to string) (*TransactionPage, error) {
	query := url.Values{}
	if from != "" {
		query.Set("from", from)
	}
	if to != "" {
		query.Set("to", to)
	}
	page, err := gateway.JSON[TransactionPage](ctx, l.gw, gateway.RouteLedgerTransactions, gateway.Options{Query: query})
	if err != nil {
		return nil, clienterrors.Wrapf(err, "list transactions")
	}
	return &page, nil
}

// Export downloads the ledger as a document.
func (l *Ledger) Export(ctx context.Context, format ExportFormat) (*Export, error) {
	switch format {
	case ExportCSV, ExportPDF, ExportXLSX:
	default:
		return nil, clienterrors.Validationf("unsupported export format %q", format)
	}

	resp, err := l.gw.Do(ctx, gateway.RouteLedgerExport, gateway.Options{
		Query: url.Values{"format": []string{string(format)}},
	})
	if err != nil {
		return nil, clienterrors.Wrapf(err, "export ledger")
	}
	if resp.Kind != gateway.KindBinary {
		return nil, fmt.Errorf("export ledger: expected a document, got %s", resp.ContentType)
	}

	filename := resp.Filename()
	if filename == "" {
		filename = "ledger." + string(format)
	}
	return &Export{Filename: filename, ContentType: resp.ContentType, Data: resp.Data}, nil
}

type Attachment struct {
	ID       string `json:"id"`
	TicketID string `json:"ticketId"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type Support struct {
	gw             *gateway.Client
	maxUploadBytes int64
}

// Upload attaches a file to a support ticket as multipart form data.
func (s *Support) Upload(ctx context.Context, ticketID, filename string, data []byte) (*Attachment, error) {
	if strings.TrimSpace(ticketID) == "" {
		return nil, clienterrors.Validationf("ticket id is required")
	}
	if filename == "" {
		return nil, clienterrors.Validationf("filename is required")
	}
	if len(data) == 0 {
		return nil, clienterrors.Validationf("file %s is empty", filename)
	}

	form := gateway.NewFormData().AddFile("file", filename, data)
	if size := form.FileBytes(); size > s.maxUploadBytes {
		return nil, clienterrors.Validationf("file %s is %d bytes, the limit is %d", filename, size, s.maxUploadBytes)
	}
	attachment, err := gateway.JSON[Attachment](ctx, s.gw, gateway.SupportAttachmentsRoute(url.PathEscape(ticketID)), gateway.Options{
		Method: http.MethodPost,
		Body:   form,
	})
	if err != nil {
		return nil, clienterrors.Wrapf(err, "upload %s", filename)
	}
	return &attachment, nil
}

type Notification struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Read    bool   `json:"read"`
}

type Notifications struct {
	gw *gateway.Client
}

func (n *Notifications) List(ctx context.Context) ([]Notification, error) {
	return gateway.JSON[[]Notification](ctx, n.gw, gateway.RouteNotifications, gateway.Options{})
}
