package flags

import (
	"time"

	"gopkg.in/urfave/cli.v1"
)

// ChainFlags select the network preset and tune its consensus parameters.
func ChainFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "network",
			Usage: "Network preset (main|chapel|fake)",
			Value: "main",
		},
		cli.Uint64Flag{
			Name:  "epoch.length",
			Usage: "Number of blocks per epoch (defaults to the network preset)",
		},
		cli.IntFlag{
			Name:  "epoch.maxancestry",
			Usage: "Maximum number of epoch ancestry headers in one update (defaults to the network preset)",
		},
		cli.IntFlag{
			Name:  "validators",
			Usage: "Size of the active validator set (defaults to the network preset)",
		},
		cli.BoolFlag{
			Name:  "bohr",
			Usage: "Decode epoch headers with the Bohr turn-length byte",
		},
	}
}

// Command flags.
var (
	EpochFlag = cli.Uint64Flag{
		Name:  "epoch",
		Usage: "Epoch index (defaults to the epoch of the chain head)",
	}
	BlockFlag = cli.Uint64Flag{
		Name:  "block",
		Usage: "Number of the attested header (defaults to the chain head)",
	}
	ForceFlag = cli.BoolFlag{
		Name:  "force",
		Usage: "Attach the epoch ancestry outside the rotation window",
	}
	InputFlag = cli.StringFlag{
		Name:  "input",
		Usage: "JSON file with the state root, proof and messages to verify",
	}
	IntervalFlag = cli.DurationFlag{
		Name:  "interval",
		Usage: "Polling interval of the watch command",
		Value: 3 * time.Second,
	}
)
