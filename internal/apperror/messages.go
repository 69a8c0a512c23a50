package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Wallet / provider errors
	CodeProviderUnavailable: "No wallet provider available",
	CodeProviderError:       "Wallet provider error",
	CodeWrongChain:          "Connected to the wrong chain",
	CodeUserRejected:        "Transaction rejected by user",
	CodeInsufficientFunds:   "Insufficient funds for transaction",

	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeGasEstimationFailed:      "Gas estimation failed",
	CodeContractCallFailed:       "Smart contract call failed",
	CodeExecutionReverted:        "Transaction execution reverted",
	CodeTransactionFailed:        "Transaction failed",

	// Quote errors
	CodeQuoteFailed:           "Failed to get swap quote",
	CodeInsufficientLiquidity: "No liquidity for this pair",
	CodeStaleQuote:            "Quote is stale, refresh before swapping",

	// Swap intent errors
	CodeUnsupportedPair: "This token pair is not supported",
	CodeInvalidAmount:   "Invalid swap amount",
	CodeDeadlinePassed:  "Swap deadline has passed",

	// Approval errors
	CodeAllowanceReadFailed: "Failed to read token allowance",
	CodeApprovalFailed:      "Token approval failed",

	// Price feed errors
	CodePriceFeedUnavailable: "Reference price feed unavailable",
	CodePriceStale:           "Reference price is stale",

	// History errors
	CodeHistoryReadFailed:  "Failed to read swap history",
	CodeHistoryWriteFailed: "Failed to record swap history",

	// Cache errors
	CodeCacheMiss:    "Cache miss",
	CodeCacheExpired: "Cache entry expired",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
