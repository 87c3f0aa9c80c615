package registry

import "codeberg.org/mutker/deviceapi/internal/errors"

const (
	ErrDuplicateRegistration = errors.ErrDuplicateBinding
	ErrUnresolvedDependency  = errors.ErrUnresolved
	ErrMissingBindings       = errors.ErrMissingBindings
	ErrFactoryFailed         = errors.ErrorCode("registry_factory_failed")
	ErrWrongType             = errors.ErrorCode("registry_wrong_binding_type")
)
