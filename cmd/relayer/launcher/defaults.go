package launcher

import (
	"time"

	"github.com/rony4d/go-ismp-bsc/ismp"
	"github.com/rony4d/go-ismp-bsc/logging"
)

// Defaults bundles the baseline configuration values the launcher uses
// before config files and flags override them.
type Defaults struct {
	Node    NodeDefaults
	Chain   ChainDefaults
	Host    HostDefaults
	Metrics MetricsDefaults
	Logging logging.Config
}

// NodeDefaults captures the connection to the BSC node.
type NodeDefaults struct {
	RPCURL  string        //	JSON-RPC endpoint headers are read from. Empty means the endpoint of the network preset.
	Timeout time.Duration //	Upper bound of a single header request; a stalled node fails the request instead of blocking the command.
}

// ChainDefaults selects the network. Zero values defer to the preset.
type ChainDefaults struct {
	Network       string //	Preset name (main, chapel, fake). Decides chain ID, hard forks and the default endpoint.
	EpochLength   uint64 //	Blocks per epoch. BSC has used 200 since genesis; only change it for private networks.
	MaxAncestry   int    //	Upper bound on the epoch ancestry of one update. Updates needing more headers fail instead of growing without bound.
	ValidatorSize int    //	Size of the active validator set. Decides where the rotation window of an epoch ends.
	Bohr          bool   //	Force the Bohr epoch-header layout (turn length byte after the validator list).
}

// HostDefaults locates the ISMP host contract.
type HostDefaults struct {
	Address string //	Hex address of the host contract on the counterparty chain. Empty means the preset's deployment.
	Layout  ismp.HostLayout
}

// MetricsDefaults configures the Prometheus endpoint.
type MetricsDefaults struct {
	Enable    bool   //	Expose metrics on HTTPAddr:HTTPPort/metrics.
	HTTPAddr  string //	Interface the metrics server binds to (127.0.0.1 for local scraping only).
	HTTPPort  int    //	TCP port of the metrics server.
	Namespace string //	Prefix of every exported metric name.
}

// DefaultConfig returns a fully populated Defaults instance.
func DefaultConfig() Defaults {
	return Defaults{
		Node: NodeDefaults{
			Timeout: 30 * time.Second,
		},
		Chain: ChainDefaults{
			Network: "main",
		},
		Host: HostDefaults{
			Layout: ismp.DefaultHostLayout(),
		},
		Metrics: MetricsDefaults{
			Enable:    false,
			HTTPAddr:  "127.0.0.1",
			HTTPPort:  6060,
			Namespace: "ismp_bsc",
		},
		Logging: logging.DefaultConfig(),
	}
}
