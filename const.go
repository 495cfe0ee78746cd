package lobby

const (
	// EngineVersion is the current version of the matching core
	EngineVersion = "v1.0.0"

	// DefaultPriceDigits is the number of decimal digits used for tick
	// conversion when no override is given.
	DefaultPriceDigits = 3
)
