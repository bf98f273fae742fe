package errors

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal server error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"
	// GeneralNotFoundError represents a generic not found error.
	GeneralNotFoundError ErrorCode = "general_not_found_error"

	// Validation is a bad-argument error: unknown token, zero amount,
	// negative-interpreted value. Rejected before any mutation.
	Validation ErrorCode = "validation_error"
	// InsufficientLiquidity is raised when a caller's liquid balance
	// cannot cover the requested lock. Rejected before any mutation.
	InsufficientLiquidity ErrorCode = "insufficient_liquidity"
	// Ledger wraps a failure from the external fungible-ledger contract:
	// transport error or ledger-level error (insufficient funds, bad
	// recipient, rate limit, duplicate).
	Ledger ErrorCode = "ledger_error"
	// InvariantViolation is raised when the post-mutation invariant
	// check in pkg H fails; the triggering operation is reverted.
	InvariantViolation ErrorCode = "invariant_violation"
	// NotListed is raised when an operation names a token that has no
	// TokenRecord.
	NotListed ErrorCode = "not_listed"
	// AlreadyListed is raised by list_token on a duplicate id.
	AlreadyListed ErrorCode = "already_listed"
	// ResourceExhausted is raised when a trade's walk exceeds its
	// configured step budget; the pre-trade snapshot is restored.
	ResourceExhausted ErrorCode = "resource_exhausted"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisDelError represents an error when deleting a value from Redis.
	RedisDelError ErrorCode = "redis_del_error"
	// RedisSetNXError represents an error when setting a value in Redis with SetNX.
	RedisSetNXError ErrorCode = "redis_setnx_error"
	// RedisHGetError represents an error when getting a field from a hash in Redis.
	RedisHGetError ErrorCode = "redis_hget_error"
	// RedisHSetError represents an error when setting fields in a hash in Redis.
	RedisHSetError ErrorCode = "redis_hset_error"
	// RedisHDelError represents an error when deleting fields from a hash in Redis.
	RedisHDelError ErrorCode = "redis_hdel_error"

	// KafkaWriteError represents an error publishing to Kafka.
	KafkaWriteError ErrorCode = "kafka_write_error"
)

// Severity represents the severity level of an error.
type Severity string

const (
	// SeverityCritical indicates a critical error that requires immediate attention.
	SeverityCritical Severity = "critical"
	// SeverityHigh indicates a high severity error that should be addressed promptly.
	SeverityHigh Severity = "high"
	// SeverityMedium indicates a medium severity error that should be addressed in due course.
	SeverityMedium Severity = "medium"
	// SeverityLow indicates a low severity error that can be addressed at a later time.
	SeverityLow Severity = "low"
)

// Category represents the category of an error.
type Category string

const (
	// CategoryDatabase indicates an error related to database operations.
	CategoryDatabase Category = "database"
	// CategoryNetwork indicates an error related to network operations.
	CategoryNetwork Category = "network"
	// CategoryValidation indicates an error related to validation of input data.
	CategoryValidation Category = "validation"
	// CategoryBusinessLogic indicates an error related to business logic processing.
	CategoryBusinessLogic Category = "business_logic"
	// CategoryExternal indicates an error related to external services or APIs.
	CategoryExternal Category = "external"
)
