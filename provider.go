package relay

// Protocol identifies the wire protocol an endpoint implements.
type Protocol string

// String returns the protocol identifier.
func (p Protocol) String() string { return string(p) }

// Supported protocols.
const (
	ProtocolOpenAI    Protocol = "openai"
	ProtocolAnthropic Protocol = "anthropic"
)
