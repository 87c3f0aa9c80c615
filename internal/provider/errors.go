package provider

import "codeberg.org/mutker/deviceapi/internal/errors"

const (
	ErrCollectFailed = errors.ErrProviderFailed
	ErrCommandFailed = errors.ErrorCode("provider_command_failed")
	ErrParseFailed   = errors.ErrorCode("provider_parse_failed")
)
