package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Swap-specific error codes
const (
	// Wallet / provider errors
	CodeProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
	CodeProviderError       Code = "PROVIDER_ERROR"
	CodeWrongChain          Code = "WRONG_CHAIN"
	CodeUserRejected        Code = "USER_REJECTED"
	CodeInsufficientFunds   Code = "INSUFFICIENT_FUNDS"

	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"
	CodeExecutionReverted        Code = "EXECUTION_REVERTED"
	CodeTransactionFailed        Code = "TRANSACTION_FAILED"

	// Quote errors
	CodeQuoteFailed           Code = "QUOTE_FAILED"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeStaleQuote            Code = "STALE_QUOTE"

	// Swap intent errors
	CodeUnsupportedPair Code = "UNSUPPORTED_PAIR"
	CodeInvalidAmount   Code = "INVALID_AMOUNT"
	CodeDeadlinePassed  Code = "DEADLINE_PASSED"

	// Approval errors
	CodeAllowanceReadFailed Code = "ALLOWANCE_READ_FAILED"
	CodeApprovalFailed      Code = "APPROVAL_FAILED"

	// Price feed errors
	CodePriceFeedUnavailable Code = "PRICE_FEED_UNAVAILABLE"
	CodePriceStale           Code = "PRICE_STALE"

	// History errors
	CodeHistoryReadFailed  Code = "HISTORY_READ_FAILED"
	CodeHistoryWriteFailed Code = "HISTORY_WRITE_FAILED"

	// Cache errors
	CodeCacheMiss    Code = "CACHE_MISS"
	CodeCacheExpired Code = "CACHE_EXPIRED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
