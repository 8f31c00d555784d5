package mockapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxUploadBytes is what the backend accepts per attachment request.
const maxUploadBytes = 25 << 20

var accounts = []map[string]any{
	{"id": "1000", "code": "1000", "name": "Cash", "type": "asset", "balance": 12500.5},
	{"id": "1200", "code": "1200", "name": "Accounts Receivable", "type": "asset", "balance": 4300},
	{"id": "2000", "code": "2000", "name": "Accounts Payable", "type": "liability", "balance": 2150.25},
	{"id": "4000", "code": "4000", "name": "Revenue", "type": "income", "balance": 18900},
}

var exportFormats = map[string]struct {
	contentType string
	body        func() []byte
}{
	"csv": {"text/csv; charset=utf-8", func() []byte {
		return []byte("date,account,debit,credit\n2024-01-31,1000,125.00,\n2024-01-31,4000,,125.00\n")
	}},
	"pdf": {"application/pdf", func() []byte {
		return []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\n%%EOF\n")
	}},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", func() []byte {
		return []byte{0x50, 0x4b, 0x03, 0x04, 0x14, 0x00}
	}},
}

func (s *Server) AccountsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, accounts)
	}
}

func (s *Server) JournalPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entry map[string]any
		if !decode(w, r, &entry) {
			return
		}
		lines, _ := entry["lines"].([]any)
		if len(lines) < 2 {
			writeError(w, http.StatusUnprocessableEntity, "a journal entry needs at least two lines")
			return
		}

		entry["id"] = uuid.NewString()
		entry["status"] = "posted"
		s.mu.Lock()
		s.journal = append(s.journal, entry)
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, entry)
	}
}

func (s *Server) LedgerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if id != "general" {
			writeError(w, http.StatusNotFound, fmt.Sprintf("ledger %s not found", id))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":       id,
			"name":     "General Ledger",
			"currency": "USD",
			"accounts": len(accounts),
		})
	}
}

func (s *Server) TransactionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		count := len(s.journal)
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{
			"from":  r.URL.Query().Get("from"),
			"to":    r.URL.Query().Get("to"),
			"total": count + 2,
			"transactions": []map[string]any{
				{"id": "t-1", "date": "2024-01-31", "account": "1000", "amount": 125},
				{"id": "t-2", "date": "2024-01-31", "account": "4000", "amount": -125},
			},
		})
	}
}

func (s *Server) ExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := strings.ToLower(r.URL.Query().Get("format"))
		if format == "" {
			format = "csv"
		}
		export, ok := exportFormats[format]
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported export format %q", format))
			return
		}
		w.Header().Set("Content-Type", export.contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ledger.%s"`, format))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(export.body())
	}
}

func (s *Server) AttachmentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
			return
		}
		defer file.Close()
		size, err := io.Copy(io.Discard, file)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		upload := Upload{TicketID: mux.Vars(r)["id"], Filename: header.Filename, Size: size}
		s.mu.Lock()
		s.uploads = append(s.uploads, upload)
		s.mu.Unlock()

		writeJSON(w, http.StatusCreated, map[string]any{
			"id":       uuid.NewString(),
			"ticketId": upload.TicketID,
			"filename": upload.Filename,
			"size":     upload.Size,
		})
	}
}

func (s *Server) NotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "n-1", "type": "payroll", "message": "January payroll run is ready for approval", "read": false},
			{"id": "n-2", "type": "tax", "message": "Quarterly VAT filing due in 5 days", "read": true},
		})
	}
}
