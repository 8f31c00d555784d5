package gateway

// Backend routes, relative to the /v1 prefix.
// All paths the client calls are defined here to prevent typos
const (
	// Auth
	RouteAuthLogin          = "/auth/login"
	RouteAuthRegister       = "/auth/register"
	RouteAuthRefresh        = "/auth/refresh"
	RouteAuthMe             = "/auth/me"
	RouteAuth2FASetup       = "/auth/2fa/setup"
	RouteAuth2FAEnable      = "/auth/2fa/enable"
	RouteAuth2FAVerify      = "/auth/2fa/verify"
	RouteAuthPasswordChange = "/auth/password/change"
	RouteAuthPasswordVerify = "/auth/password/verify"

	// Accounting
	RouteAccounts           = "/accounts"
	RouteJournal            = "/accounting/journal"
	RouteLedger             = "/accounting/ledger/" // + ledger id
	RouteLedgerTransactions = "/ledger/transactions"
	RouteLedgerExport       = "/ledger/export"
	RoutePayables           = "/ap/bills"
	RouteReceivables        = "/ar/invoices"
	RouteRules              = "/rules"
	RouteAudit              = "/audit"

	// Payroll, tax and compliance
	RoutePayrollRuns    = "/payroll/runs"
	RouteTaxFilings     = "/tax/filings"
	RouteCompliance     = "/compliance/classifications"
	RouteTreasury       = "/treasury/positions"
	RouteAICashForecast = "/ai-cash/forecast"

	// Legal and contracts
	RouteLegalQuery = "/legal/query"
	RouteContracts  = "/contracts"
	RouteCustomers  = "/customers"

	// Support, billing and payments
	RouteSupportTickets = "/support/tickets"
	RouteNotifications  = "/notifications"
	RouteSubscription   = "/subscription"
	RouteDisputes       = "/disputes"
	RouteRefunds        = "/refunds"
)

// SupportAttachmentsRoute returns the upload route for a ticket.
func SupportAttachmentsRoute(ticketID string) string {
	return RouteSupportTickets + "/" + ticketID + "/attachments"
}

// RouteFamilies maps the short names used on the command line to the
// collection route of each resource family.
var RouteFamilies = map[string]string{
	"accounts":      RouteAccounts,
	"journal":       RouteJournal,
	"transactions":  RouteLedgerTransactions,
	"payables":      RoutePayables,
	"receivables":   RouteReceivables,
	"rules":         RouteRules,
	"audit":         RouteAudit,
	"payroll":       RoutePayrollRuns,
	"tax":           RouteTaxFilings,
	"compliance":    RouteCompliance,
	"treasury":      RouteTreasury,
	"forecast":      RouteAICashForecast,
	"legal":         RouteLegalQuery,
	"contracts":     RouteContracts,
	"customers":     RouteCustomers,
	"tickets":       RouteSupportTickets,
	"notifications": RouteNotifications,
	"subscription":  RouteSubscription,
	"disputes":      RouteDisputes,
	"refunds":       RouteRefunds,
}
