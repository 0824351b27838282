package schema

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Outcome classifies a settled transfer
type Outcome int

// TransferResult is the settled state of one transfer
type TransferResult struct {
	Outcome Outcome
	Status  int   // HTTP status, zero when no response was received
	Bytes   int64 // bytes read from the source
	Err     error // nil on success
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	TransferSuccess Outcome = iota
	TransferCancelled
	TransferFailed
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (o Outcome) String() string {
	switch o {
	case TransferSuccess:
		return "success"
	case TransferCancelled:
		return "cancelled"
	case TransferFailed:
		return "failed"
	default:
		return "unknown"
	}
}
