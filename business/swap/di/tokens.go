// Package di contains dependency injection tokens for the swap context.
package di

import (
	"github.com/zk-web3/darknodedex-sub000/business/swap/app"
	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/di"
)

// Public service tokens - exposed to other modules
var (
	QuoteService    = di.NewToken[*app.QuoteService]("swap.QuoteService")
	Orchestrator    = di.NewToken[*app.Orchestrator]("swap.Orchestrator")
	Whitelist       = di.NewToken[*domain.Whitelist]("swap.Whitelist")
	ReferencePrices = di.NewToken[app.ReferencePrices]("swap.ReferencePrices")
)

// Private dependency tokens - internal to the swap module
var (
	Quoter       = di.NewToken[app.Quoter]("swap:quoter")
	Approver     = di.NewToken[app.Approver]("swap:approver")
	Allowances   = di.NewToken[app.AllowanceReader]("swap:allowances")
	Router       = di.NewToken[app.SwapRouter]("swap:router")
	Balances     = di.NewToken[app.BalanceReader]("swap:balances")
	HistoryStore = di.NewToken[app.HistoryStore]("swap:historyStore")
)

func GetQuoteService(c di.ServiceRegistry) *app.QuoteService {
	return di.GetToken(c, QuoteService)
}

func GetOrchestrator(c di.ServiceRegistry) *app.Orchestrator {
	return di.GetToken(c, Orchestrator)
}

func GetWhitelist(c di.ServiceRegistry) *domain.Whitelist {
	return di.GetToken(c, Whitelist)
}

func GetReferencePrices(c di.ServiceRegistry) app.ReferencePrices {
	return di.GetToken(c, ReferencePrices)
}

func GetQuoter(c di.ServiceRegistry) app.Quoter {
	return di.GetToken(c, Quoter)
}

func GetApprover(c di.ServiceRegistry) app.Approver {
	return di.GetToken(c, Approver)
}

func GetAllowances(c di.ServiceRegistry) app.AllowanceReader {
	return di.GetToken(c, Allowances)
}

func GetRouter(c di.ServiceRegistry) app.SwapRouter {
	return di.GetToken(c, Router)
}

func GetBalances(c di.ServiceRegistry) app.BalanceReader {
	return di.GetToken(c, Balances)
}

func GetHistoryStore(c di.ServiceRegistry) app.HistoryStore {
	return di.GetToken(c, HistoryStore)
}
