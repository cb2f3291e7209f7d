// This file maps the config file and CLI context to the Config struct.

package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-ismp-bsc/integration"
	"github.com/rony4d/go-ismp-bsc/ismp"
	"github.com/rony4d/go-ismp-bsc/logging"
	"github.com/rony4d/go-ismp-bsc/parlia"
)

// Config aggregates every subsystem's configuration the launcher needs.
type Config struct {
	Node    NodeConfig
	Chain   ChainConfig
	Host    HostConfig
	Logging logging.Config
	Metrics MetricsConfig
}

type NodeConfig struct {
	RPCURL  string
	Timeout Duration
}

type ChainConfig struct {
	Network       string
	EpochLength   uint64
	MaxAncestry   int
	ValidatorSize int
	Bohr          bool
}

type HostConfig struct {
	Address string
	Layout  ismp.HostLayout
}

type MetricsConfig struct {
	Enabled   bool
	Addr      string
	Port      int
	Namespace string
}

// Duration is a time.Duration written as "30s" in config files.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// -----------------------------------------------------------------------------
// Default config + builders
// -----------------------------------------------------------------------------

// defaultConfig builds the Config from DefaultConfig in defaults.go so both
// stay in sync.
func defaultConfig() Config {
	d := DefaultConfig()
	return Config{
		Node: NodeConfig{
			RPCURL:  d.Node.RPCURL,
			Timeout: Duration{d.Node.Timeout},
		},
		Chain: ChainConfig{
			Network:       d.Chain.Network,
			EpochLength:   d.Chain.EpochLength,
			MaxAncestry:   d.Chain.MaxAncestry,
			ValidatorSize: d.Chain.ValidatorSize,
			Bohr:          d.Chain.Bohr,
		},
		Host: HostConfig{
			Address: d.Host.Address,
			Layout:  d.Host.Layout,
		},
		Logging: d.Logging,
		Metrics: MetricsConfig{
			Enabled:   d.Metrics.Enable,
			Addr:      d.Metrics.HTTPAddr,
			Port:      d.Metrics.HTTPPort,
			Namespace: d.Metrics.Namespace,
		},
	}
}

// MakeAllConfigs merges defaults, the optional config file and CLI overrides
// into a single config struct.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()

	if file := ctx.GlobalString("config"); file != "" {
		if err := loadConfigFile(resolvePath(file), &cfg); err != nil {
			return cfg, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
	}

	if err := applyCLIOverrides(ctx, &cfg); err != nil {
		return cfg, err
	}
	if _, err := cfg.Preset(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Preset resolves the network preset and applies the chain and host settings.
func (c Config) Preset() (integration.ChainPreset, error) {
	preset, err := integration.GetPresetByName(c.Chain.Network)
	if err != nil {
		return preset, err
	}
	override := integration.ChainPreset{
		Rules: parlia.Rules{
			Epochs: parlia.EpochsRules{
				EpochLength: c.Chain.EpochLength,
				MaxAncestry: c.Chain.MaxAncestry,
			},
			Upgrades: parlia.Upgrades{Bohr: c.Chain.Bohr},
		},
		ValidatorSize: c.Chain.ValidatorSize,
		RPCURL:        c.Node.RPCURL,
		Layout:        c.Host.Layout,
	}
	if c.Host.Address != "" {
		if !common.IsHexAddress(c.Host.Address) {
			return preset, fmt.Errorf("invalid host address %q", c.Host.Address)
		}
		override.Host = common.HexToAddress(c.Host.Address)
	}
	integration.ApplyPreset(&preset, override)
	if err := preset.Validate(); err != nil {
		return preset, fmt.Errorf("network %s: %w", preset.Name, err)
	}
	return preset, nil
}

// -----------------------------------------------------------------------------
// Config-file / CLI wiring
// -----------------------------------------------------------------------------

func loadConfigFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown fields: %s", strings.Join(keys, ", "))
	}
	return nil
}

func applyCLIOverrides(ctx *cli.Context, cfg *Config) error {
	if ctx.GlobalIsSet("rpc") {
		cfg.Node.RPCURL = ctx.GlobalString("rpc")
	}
	if ctx.GlobalIsSet("rpc.timeout") {
		cfg.Node.Timeout = Duration{ctx.GlobalDuration("rpc.timeout")}
	}

	if ctx.GlobalIsSet("network") {
		cfg.Chain.Network = ctx.GlobalString("network")
	}
	if ctx.GlobalIsSet("epoch.length") {
		cfg.Chain.EpochLength = ctx.GlobalUint64("epoch.length")
	}
	if ctx.GlobalIsSet("epoch.maxancestry") {
		cfg.Chain.MaxAncestry = ctx.GlobalInt("epoch.maxancestry")
	}
	if ctx.GlobalIsSet("validators") {
		cfg.Chain.ValidatorSize = ctx.GlobalInt("validators")
	}
	if ctx.GlobalIsSet("bohr") {
		cfg.Chain.Bohr = ctx.GlobalBool("bohr")
	}

	if ctx.GlobalIsSet("host") {
		addr := ctx.GlobalString("host")
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("--host: invalid address %q", addr)
		}
		cfg.Host.Address = addr
	}
	if ctx.GlobalIsSet("host.requestslot") {
		cfg.Host.Layout.RequestCommitmentsSlot = ctx.GlobalUint64("host.requestslot")
	}
	if ctx.GlobalIsSet("host.responseslot") {
		cfg.Host.Layout.ResponseCommitmentsSlot = ctx.GlobalUint64("host.responseslot")
	}
	if ctx.GlobalIsSet("host.senderoffset") {
		cfg.Host.Layout.SenderOffset = ctx.GlobalUint64("host.senderoffset")
	}

	if ctx.GlobalIsSet("log.format") {
		cfg.Logging.Format = ctx.GlobalString("log.format")
	}
	if ctx.GlobalIsSet("log.verbosity") {
		cfg.Logging.Verbosity = ctx.GlobalInt("log.verbosity")
	}
	if ctx.GlobalIsSet("log.color") {
		cfg.Logging.Color = ctx.GlobalBool("log.color")
	}
	if ctx.GlobalIsSet("log.sentry") {
		cfg.Logging.SentryDSN = ctx.GlobalString("log.sentry")
	}

	if ctx.GlobalBool("metrics") {
		cfg.Metrics.Enabled = true
	}
	if ctx.GlobalIsSet("metrics.addr") {
		cfg.Metrics.Addr = ctx.GlobalString("metrics.addr")
	}
	if ctx.GlobalIsSet("metrics.port") {
		cfg.Metrics.Port = ctx.GlobalInt("metrics.port")
	}
	if ctx.GlobalIsSet("metrics.namespace") {
		cfg.Metrics.Namespace = ctx.GlobalString("metrics.namespace")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
