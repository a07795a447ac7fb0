package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Scanner-specific error codes
const (
	// Provider pool errors
	CodeProviderDialFailed  Code = "PROVIDER_DIAL_FAILED"
	CodeProvidersExhausted  Code = "PROVIDERS_EXHAUSTED"
	CodeEthereumRPCError    Code = "ETHEREUM_RPC_ERROR"
	CodeBlockNotFound       Code = "BLOCK_NOT_FOUND"
	CodeGasPriceUnavailable Code = "GAS_PRICE_UNAVAILABLE"
	CodeHeadFeedFailed      Code = "HEAD_FEED_FAILED"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Price source errors
	CodePriceSourceError  Code = "PRICE_SOURCE_ERROR"
	CodePriceFieldMissing Code = "PRICE_FIELD_MISSING"

	// Venue scan errors
	CodeContractCallFailed  Code = "CONTRACT_CALL_FAILED"
	CodePoolNotFound        Code = "POOL_NOT_FOUND"
	CodeReserveFetchFailed  Code = "RESERVE_FETCH_FAILED"
	CodeTokenMetadataFailed Code = "TOKEN_METADATA_FAILED"
	CodeVenueScanFailed     Code = "VENUE_SCAN_FAILED"

	// Detection and sizing errors
	CodePriceCalculationFailed Code = "PRICE_CALCULATION_FAILED"
	CodeInsufficientLiquidity  Code = "INSUFFICIENT_LIQUIDITY"
	CodeInvalidTradeSize       Code = "INVALID_TRADE_SIZE"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
