package flags

import (
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

// NewApp returns the bare CLI application; the launcher adds commands and flags.
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "ismp-bsc"
	app.Usage = "BSC consensus prover and ISMP state proof verifier"
	app.Version = "0.1.0"
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr
	return app
}

// AllFlags returns every configuration flag, in help order.
func AllFlags() []cli.Flag {
	var all []cli.Flag
	all = append(all, CommonFlags()...)
	all = append(all, NodeFlags()...)
	all = append(all, ChainFlags()...)
	all = append(all, HostFlags()...)
	return all
}
