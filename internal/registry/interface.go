package registry

// Contract names an abstract capability independent of platform.
type Contract string

const (
	ContractHealth     Contract = "health"
	ContractCamera     Contract = "camera"
	ContractScreenshot Contract = "screenshot"
	ContractPlayer     Contract = "player"
	ContractAction     Contract = "action"
)

func (c Contract) String() string {
	return string(c)
}

// Lifecycle controls how a binding hands out instances.
type Lifecycle int

const (
	// Singleton constructs the instance once and returns it on every
	// Resolve within the process.
	Singleton Lifecycle = iota
	// Transient constructs a new instance per Resolve.
	Transient
)

// Factory constructs a concrete provider for a contract.
type Factory func() (any, error)

// Option adjusts registration behavior.
type Option func(*registerOptions)

type registerOptions struct {
	override bool
}

// WithOverride allows replacing an existing binding, primarily so tests can
// substitute doubles without touching call sites.
func WithOverride() Option {
	return func(o *registerOptions) {
		o.override = true
	}
}
