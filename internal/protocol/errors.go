package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Scheduling layer.
	ErrQueueFull  = "E_QUEUE_FULL"
	ErrUnknownJob = "E_UNKNOWN_JOB"

	// Query layer.
	ErrOffGrid  = "E_OFF_GRID"
	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrQueueFull:       {},
	ErrUnknownJob:      {},
	ErrOffGrid:         {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
