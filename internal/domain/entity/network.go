package entity

// NetworkKind selects the client family used to reach a network.
type NetworkKind string

const (
	NetworkEVM    NetworkKind = "evm"
	NetworkSolana NetworkKind = "solana"
	NetworkSui    NetworkKind = "sui"
)

// NetworkDefinition holds the configuration for one blockchain network.
type NetworkDefinition struct {
	Chain           ChainID     `json:"chainId" yaml:"chainId"`
	Kind            NetworkKind `json:"kind" yaml:"kind"`
	Name            string      `json:"name" yaml:"name"`
	NativeSymbol    string      `json:"nativeSymbol" yaml:"nativeSymbol"`
	NativeDecimals  uint8       `json:"nativeDecimals" yaml:"nativeDecimals"`
	PrimaryRPCURL   string      `json:"primaryRpcUrl" yaml:"primaryRpcUrl"`
	FallbackRPCURLs []string    `json:"fallbackRpcUrls,omitempty" yaml:"fallbackRpcUrls,omitempty"`
}

// Endpoints returns the primary RPC URL followed by the ordered fallbacks.
func (n NetworkDefinition) Endpoints() []string {
	return append([]string{n.PrimaryRPCURL}, n.FallbackRPCURLs...)
}
