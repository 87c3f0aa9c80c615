package history

import "codeberg.org/mutker/deviceapi/internal/errors"

const (
	ErrInvalidDBPath = errors.ErrorCode("history_invalid_db_path")

	ErrSchemaInitFailed       = errors.ErrorCode("history_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("history_schema_validation_failed")
	ErrTransactionFailed      = errors.ErrorCode("history_transaction_failed")

	ErrStorageAccess = errors.ErrorCode("history_storage_access_failed")
	ErrStorageInit   = errors.ErrInitFailed
	ErrStorageClose  = errors.ErrShutdownFailed
)
