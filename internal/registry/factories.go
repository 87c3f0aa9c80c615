package registry

import (
	"codeberg.org/mutker/deviceapi/internal/platform"
	"codeberg.org/mutker/deviceapi/internal/provider"
)

// platformFactories maps each platform identity to its binding set. An
// unknown platform falls back to the generic set, where only the health
// contract is guaranteed; everything else is surfaced as capability
// unavailable at the API boundary.
var platformFactories = map[platform.Platform]func(*Registry) error{
	platform.MacOS:    registerMacOS,
	platform.OrangePi: registerOrangePi,
	platform.Generic:  registerGeneric,
}

// requiredContracts is the baseline a platform must have bound before the
// process may serve requests.
func requiredContracts(p platform.Platform) []Contract {
	switch p {
	case platform.MacOS:
		return []Contract{ContractHealth, ContractCamera, ContractAction}
	case platform.OrangePi:
		return []Contract{ContractHealth, ContractScreenshot, ContractPlayer, ContractAction}
	default:
		return []Contract{ContractHealth}
	}
}

// Populate registers the factory set for the registry's platform.
func Populate(r *Registry) error {
	register, ok := platformFactories[r.platform]
	if !ok {
		register = registerGeneric
	}

	return register(r)
}

func registerMacOS(r *Registry) error {
	if err := r.Register(ContractHealth, func() (any, error) {
		return provider.NewMacHealth(), nil
	}, Singleton); err != nil {
		return err
	}

	if err := r.Register(ContractCamera, func() (any, error) {
		return provider.NewMacCamera(), nil
	}, Singleton); err != nil {
		return err
	}

	return r.Register(ContractAction, func() (any, error) {
		return provider.NewSystemActions(platform.MacOS), nil
	}, Singleton)
}

func registerOrangePi(r *Registry) error {
	if err := r.Register(ContractHealth, func() (any, error) {
		return provider.NewOrangePiHealth(), nil
	}, Singleton); err != nil {
		return err
	}

	// Screenshot capture holds no state worth keeping between requests
	if err := r.Register(ContractScreenshot, func() (any, error) {
		return provider.NewOrangePiScreenshot(), nil
	}, Transient); err != nil {
		return err
	}

	if err := r.Register(ContractPlayer, func() (any, error) {
		return provider.NewOrangePiPlayer(""), nil
	}, Singleton); err != nil {
		return err
	}

	return r.Register(ContractAction, func() (any, error) {
		return provider.NewSystemActions(platform.OrangePi), nil
	}, Singleton)
}

func registerGeneric(r *Registry) error {
	return r.Register(ContractHealth, func() (any, error) {
		return provider.NewGenericHealth(), nil
	}, Singleton)
}
