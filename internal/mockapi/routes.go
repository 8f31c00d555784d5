package mockapi

import "net/http"

const prefix = "/v1"

func (s *Server) initRoutes() {
	auth := s.RequireAuth()

	// AUTH
	s.handle(http.MethodPost, prefix+"/auth/login", s.LoginHandler())
	s.handle(http.MethodPost, prefix+"/auth/register", s.RegisterHandler())
	s.handle(http.MethodPost, prefix+"/auth/refresh", s.RefreshHandler())
	s.handle(http.MethodPost, prefix+"/auth/2fa/verify", s.TwoFactorVerifyHandler())
	s.handle(http.MethodGet, prefix+"/auth/me", s.MeHandler(), auth)
	s.handle(http.MethodPost, prefix+"/auth/2fa/setup", s.TwoFactorSetupHandler(), auth)
	s.handle(http.MethodPost, prefix+"/auth/2fa/enable", s.TwoFactorEnableHandler(), auth)
	s.handle(http.MethodPost, prefix+"/auth/password/change", s.PasswordChangeHandler(), auth)
	s.handle(http.MethodPost, prefix+"/auth/password/verify", s.PasswordVerifyHandler(), auth)

	// RESOURCES
	s.handle(http.MethodGet, prefix+"/accounts", s.AccountsHandler(), auth)
	s.handle(http.MethodPost, prefix+"/accounting/journal", s.JournalPostHandler(), auth)
	s.handle(http.MethodGet, prefix+"/accounting/ledger/{id}", s.LedgerHandler(), auth)
	s.handle(http.MethodGet, prefix+"/ledger/transactions", s.TransactionsHandler(), auth)
	s.handle(http.MethodGet, prefix+"/ledger/export", s.ExportHandler(), auth)
	s.handle(http.MethodPost, prefix+"/support/tickets/{id}/attachments", s.AttachmentHandler(), auth)
	s.handle(http.MethodGet, prefix+"/notifications", s.NotificationsHandler(), auth)
}
