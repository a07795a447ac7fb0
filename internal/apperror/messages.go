package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Provider pool errors
	CodeProviderDialFailed:  "Failed to dial provider endpoint",
	CodeProvidersExhausted:  "All providers exhausted",
	CodeEthereumRPCError:    "Ethereum RPC call failed",
	CodeBlockNotFound:       "Block not found",
	CodeGasPriceUnavailable: "Gas price unavailable from every source",
	CodeHeadFeedFailed:      "Block head feed failed",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// Price source errors
	CodePriceSourceError:  "Price source request failed",
	CodePriceFieldMissing: "Price field missing from source response",

	// Venue scan errors
	CodeContractCallFailed:  "Smart contract call failed",
	CodePoolNotFound:        "Liquidity pool not found",
	CodeReserveFetchFailed:  "Failed to fetch pool reserves",
	CodeTokenMetadataFailed: "Failed to fetch token metadata",
	CodeVenueScanFailed:     "Venue scan failed",

	// Detection and sizing errors
	CodePriceCalculationFailed: "Price calculation failed",
	CodeInsufficientLiquidity:  "Insufficient liquidity for trade size",
	CodeInvalidTradeSize:       "Invalid trade size",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
