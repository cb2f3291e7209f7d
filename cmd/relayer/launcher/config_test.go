package launcher

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-ismp-bsc/flags"
	"github.com/rony4d/go-ismp-bsc/ismp"
	"github.com/rony4d/go-ismp-bsc/parlia"
)

// runConfigFromArgs runs MakeAllConfigs inside a synthetic CLI context.
func runConfigFromArgs(t *testing.T, args []string) (Config, error) {
	t.Helper()

	app := cli.NewApp()
	app.HideHelp = true
	app.HideVersion = true
	app.Flags = flags.AllFlags()

	var (
		got    Config
		cfgErr error
	)
	app.Action = func(c *cli.Context) error {
		got, cfgErr = MakeAllConfigs(c)
		return nil
	}
	if err := app.Run(append([]string{"ismp-bsc"}, args...)); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
	return got, cfgErr
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMakeAllConfigs_defaults(t *testing.T) {
	cfg, err := runConfigFromArgs(t, nil)
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), cfg)

	preset, err := cfg.Preset()
	require.NoError(t, err)
	require.Equal(t, parlia.MainNetRules(), preset.Rules)
	require.Equal(t, 21, preset.ValidatorSize)
}

// TestMakeAllConfigs_flagOverrides verifies that every flag overrides the
// corresponding field of the aggregated Config.
func TestMakeAllConfigs_flagOverrides(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want func(t *testing.T, cfg Config)
	}{
		{
			name: "node",
			args: []string{"--rpc", "http://10.0.0.1:8545", "--rpc.timeout", "5s"},
			want: func(t *testing.T, cfg Config) {
				require.Equal(t, "http://10.0.0.1:8545", cfg.Node.RPCURL)
				require.Equal(t, 5*time.Second, cfg.Node.Timeout.Duration)
			},
		},
		{
			name: "chain",
			args: []string{"--network", "chapel", "--epoch.length", "100", "--epoch.maxancestry", "64", "--validators", "45", "--bohr"},
			want: func(t *testing.T, cfg Config) {
				require.Equal(t, ChainConfig{Network: "chapel", EpochLength: 100, MaxAncestry: 64, ValidatorSize: 45, Bohr: true}, cfg.Chain)

				preset, err := cfg.Preset()
				require.NoError(t, err)
				require.Equal(t, parlia.TestNetworkID, preset.Rules.NetworkID)
				require.EqualValues(t, 100, preset.Rules.Epochs.EpochLength)
				require.Equal(t, 64, preset.Rules.Epochs.MaxAncestry)
				require.Equal(t, 45, preset.ValidatorSize)
			},
		},
		{
			name: "host",
			args: []string{"--host", "0x843b131BD76419934dae248F6e5a195c0A3C324D", "--host.requestslot", "5", "--host.responseslot", "6", "--host.senderoffset", "2"},
			want: func(t *testing.T, cfg Config) {
				require.Equal(t, ismp.HostLayout{RequestCommitmentsSlot: 5, ResponseCommitmentsSlot: 6, SenderOffset: 2}, cfg.Host.Layout)

				preset, err := cfg.Preset()
				require.NoError(t, err)
				require.Equal(t, common.HexToAddress("0x843b131BD76419934dae248F6e5a195c0A3C324D"), preset.Host)
				require.Equal(t, cfg.Host.Layout, preset.Layout)
			},
		},
		{
			name: "logging and metrics",
			args: []string{"--log.format", "json", "--log.verbosity", "5", "--metrics", "--metrics.addr", "0.0.0.0", "--metrics.port", "9100", "--metrics.namespace", "relayer"},
			want: func(t *testing.T, cfg Config) {
				require.Equal(t, "json", cfg.Logging.Format)
				require.Equal(t, 5, cfg.Logging.Verbosity)
				require.Equal(t, MetricsConfig{Enabled: true, Addr: "0.0.0.0", Port: 9100, Namespace: "relayer"}, cfg.Metrics)
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := runConfigFromArgs(t, test.args)
			require.NoError(t, err)
			test.want(t, cfg)
		})
	}
}

func TestMakeAllConfigs_invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown network", []string{"--network", "ropsten"}},
		{"bad host", []string{"--host", "0x1234"}},
		{"validator set too large", []string{"--validators", "400"}},
		{"missing config file", []string{"--config", filepath.Join(t.TempDir(), "absent.toml")}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := runConfigFromArgs(t, test.args)
			require.Error(t, err)
		})
	}
}

func TestMakeAllConfigs_configFile(t *testing.T) {
	path := writeConfigFile(t, `
[Node]
RPCURL = "http://127.0.0.1:8575"
Timeout = "45s"

[Chain]
Network = "fake"
ValidatorSize = 7

[Host]
Address = "0x7b27ab4C64cdc30d219cEa9aC3Dd442Fd4D00E50"

[Logging]
Verbosity = 4
Format = "json"
`)

	cfg, err := runConfigFromArgs(t, []string{"--config", path, "--validators", "9"})
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8575", cfg.Node.RPCURL)
	require.Equal(t, 45*time.Second, cfg.Node.Timeout.Duration)
	require.Equal(t, "fake", cfg.Chain.Network)
	// flags win over the file
	require.Equal(t, 9, cfg.Chain.ValidatorSize)
	require.Equal(t, 4, cfg.Logging.Verbosity)
	// untouched sections keep their defaults
	require.Equal(t, ismp.DefaultHostLayout(), cfg.Host.Layout)
	require.Equal(t, defaultConfig().Metrics, cfg.Metrics)

	// Case 1: unknown keys are rejected
	path = writeConfigFile(t, "[Chain]\nNetwerk = \"fake\"\n")
	_, err = runConfigFromArgs(t, []string{"--config", path})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Chain.Netwerk")
}

func TestConfigTOMLRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	cfg.Chain.Network = "chapel"
	cfg.Node.Timeout = Duration{90 * time.Second}
	cfg.Host.Address = "0x7b27ab4C64cdc30d219cEa9aC3Dd442Fd4D00E50"

	var buf bytes.Buffer
	require.NoError(t, toml.NewEncoder(&buf).Encode(&cfg))
	require.Contains(t, buf.String(), `Timeout = "1m30s"`)

	var got Config
	require.NoError(t, loadConfigFile(writeConfigFile(t, buf.String()), &got))
	require.Equal(t, cfg, got)
}
