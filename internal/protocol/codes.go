package protocol

// Application close codes. They live in the 4000-4999 range reserved for
// private use by RFC 6455. CloseDuplicate is reserved and currently never sent.
const (
	CloseMissingIdentity = 4001
	CloseRoomFull        = 4002
	CloseDuplicate       = 4003
	CloseSuperseded      = 4004
	CloseUpstreamError   = 4005
	CloseBackpressure    = 4008
	CloseRateLimited     = 4029
)

const (
	ReasonMissingIdentity = "missing required identifier"
	ReasonRoomFull        = "room is full"
	ReasonDuplicate       = "duplicate identity"
	ReasonSuperseded      = "superseded by reconnect"
	ReasonUpstreamError   = "upstream relay error"
	ReasonBackpressure    = "send buffer overflow"
	ReasonRateLimited     = "too many connection attempts"
)

// CloseGoingAway is the standard RFC 6455 code sent on server shutdown.
const CloseGoingAway = 1001
