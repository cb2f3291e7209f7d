package flags

import (
	"time"

	"gopkg.in/urfave/cli.v1"
)

// NodeFlags holds the connection to the BSC node headers are read from.
func NodeFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "rpc",
			Usage: "JSON-RPC endpoint of a BSC node (defaults to the network preset)",
		},
		cli.DurationFlag{
			Name:  "rpc.timeout",
			Usage: "Timeout of a single JSON-RPC request",
			Value: 30 * time.Second,
		},
	}
}

// HostFlags locate the ISMP host contract and its commitment mappings.
func HostFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "host",
			Usage: "Address of the ISMP host contract",
		},
		cli.Uint64Flag{
			Name:  "host.requestslot",
			Usage: "Storage slot of the request commitments mapping",
		},
		cli.Uint64Flag{
			Name:  "host.responseslot",
			Usage: "Storage slot of the response commitments mapping",
			Value: 1,
		},
		cli.Uint64Flag{
			Name:  "host.senderoffset",
			Usage: "Offset of the sender field inside a commitment entry",
			Value: 1,
		},
	}
}
