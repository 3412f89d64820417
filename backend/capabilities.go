package backend

// Capabilities describes the features supported by an interception backend.
// Use this to introspect what operations are available at runtime.
type Capabilities struct {
	// SupportsSuppression indicates pre-hooks can cancel the original call
	// by returning false. When false, pre-hook return values are ignored.
	SupportsSuppression bool

	// SupportsResults indicates post-hooks receive the original call's
	// result. When false, post-hooks are invoked with a nil result.
	SupportsResults bool

	// SupportsRemoval indicates registrations can be closed at runtime.
	// When false, hooks stay installed until the backend is discarded.
	SupportsRemoval bool

	// SupportsConcurrentInstall indicates Install may be called from
	// multiple goroutines.
	SupportsConcurrentInstall bool

	// Name is the human-readable name of the backend.
	Name string

	// Version is the backend version.
	Version string
}

// ObserveOnly returns true when the backend can watch calls but never
// suppress them.
func (c Capabilities) ObserveOnly() bool {
	return !c.SupportsSuppression
}

// Predefined capability sets for bundled backends.
var (
	// FuncGateCapabilities for the in-process function gate backend.
	FuncGateCapabilities = Capabilities{
		Name:                      "funcgate",
		SupportsSuppression:       true,
		SupportsResults:           true,
		SupportsRemoval:           true,
		SupportsConcurrentInstall: true,
	}
)

// GetCapabilities returns the capabilities for a backend by name.
// Uses the registry to look up capabilities registered by each backend package.
// Returns a zero Capabilities struct if the backend is unknown.
func GetCapabilities(backendName string) Capabilities {
	return DefaultRegistry.GetCapabilities(backendName)
}
