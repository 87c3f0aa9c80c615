package registry

import (
	"sort"
	"sync"

	"codeberg.org/mutker/deviceapi/internal/errors"
	"codeberg.org/mutker/deviceapi/internal/platform"
)

// Registry binds capability contracts to concrete per-platform providers.
// Bindings are write-once at bootstrap; after Validate succeeds the registry
// is only ever read, so Resolve takes no lock on the binding map itself.
type Registry struct {
	platform platform.Platform
	mu       sync.RWMutex
	bindings map[Contract]*binding
}

type binding struct {
	lifecycle Lifecycle
	factory   Factory
	once      sync.Once
	instance  any
	err       error
}

func New(p platform.Platform) *Registry {
	return &Registry{
		platform: p,
		bindings: make(map[Contract]*binding),
	}
}

// Platform returns the platform this registry was populated for.
func (r *Registry) Platform() platform.Platform {
	return r.platform
}

// Register binds a contract to a factory. Registering the same contract twice
// without WithOverride fails.
func (r *Registry) Register(contract Contract, factory Factory, lifecycle Lifecycle, opts ...Option) error {
	options := registerOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if factory == nil {
		return errors.New().WithData(errors.ErrInvalidArgument, "nil factory for contract "+contract.String())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[contract]; exists && !options.override {
		return errors.New().WithData(ErrDuplicateRegistration, contract.String())
	}

	r.bindings[contract] = &binding{
		lifecycle: lifecycle,
		factory:   factory,
	}

	return nil
}

// RegisterInstance binds a contract to an already-constructed singleton.
func (r *Registry) RegisterInstance(contract Contract, instance any, opts ...Option) error {
	return r.Register(contract, func() (any, error) {
		return instance, nil
	}, Singleton, opts...)
}

// Resolve returns the instance bound to the contract. An unbound contract is
// a normal capability-unavailable condition, not an internal failure; callers
// at the API boundary translate it into a not-available response.
func (r *Registry) Resolve(contract Contract) (any, error) {
	r.mu.RLock()
	b, ok := r.bindings[contract]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.New().WithData(ErrUnresolvedDependency, contract.String())
	}

	if b.lifecycle == Transient {
		instance, err := b.factory()
		if err != nil {
			return nil, errors.New().Wrap(ErrFactoryFailed, err)
		}

		return instance, nil
	}

	b.once.Do(func() {
		b.instance, b.err = b.factory()
	})
	if b.err != nil {
		return nil, errors.New().Wrap(ErrFactoryFailed, b.err)
	}

	return b.instance, nil
}

// Has reports whether a contract is bound.
func (r *Registry) Has(contract Contract) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.bindings[contract]

	return ok
}

// Contracts lists all bound contracts in stable order.
func (r *Registry) Contracts() []Contract {
	r.mu.RLock()
	defer r.mu.RUnlock()

	contracts := make([]Contract, 0, len(r.bindings))
	for c := range r.bindings {
		contracts = append(contracts, c)
	}
	sort.Slice(contracts, func(i, j int) bool { return contracts[i] < contracts[j] })

	return contracts
}

// Validate returns the baseline-required contracts that are missing for the
// active platform. A non-empty result is a fatal bootstrap condition; the
// process must not serve traffic in an inconsistent binding state.
func (r *Registry) Validate() []Contract {
	var missing []Contract
	for _, contract := range requiredContracts(r.platform) {
		if !r.Has(contract) {
			missing = append(missing, contract)
		}
	}

	return missing
}

// Resolve is the typed lookup helper. It resolves the contract and asserts
// the binding implements T.
func Resolve[T any](r *Registry, contract Contract) (T, error) {
	var zero T

	instance, err := r.Resolve(contract)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, errors.New().WithData(ErrWrongType, contract.String())
	}

	return typed, nil
}
