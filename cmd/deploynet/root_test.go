package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// run executes the CLI with args and returns combined output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ResetFlags()
	var buf bytes.Buffer
	SetOutput(&buf)
	err := ExecuteWithArgs(args)
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// freshConfig forces a table of its own so provider caches are not shared
// between tests.
func freshConfig(t *testing.T, extra string) string {
	t.Helper()
	return writeFile(t, "deploynet.yaml", "networks:\n  scratch:\n    host: scratch\n    port: 1\n"+extra)
}

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantContain []string
	}{
		{
			name:        "basic version",
			args:        []string{"version"},
			wantContain: []string{"deploynet dev"},
		},
		{
			name:        "verbose version",
			args:        []string{"--verbose", "version"},
			wantContain: []string{"deploynet", "commit:", "built:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := run(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.wantContain {
				assert.Contains(t, output, want)
			}
		})
	}
}

func TestRootCommand_Help(t *testing.T) {
	output, err := run(t, "--help")
	require.NoError(t, err)

	for _, expected := range []string{
		"deploynet",
		"--network",
		"--env-file",
		"--config",
		"ETHEREUM_DEPLOYER_PRIVATE_KEY",
		"ETHEREUM_URL",
	} {
		assert.Contains(t, output, expected)
	}
}

func TestNetworksList(t *testing.T) {
	output, err := run(t, "networks", "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "development")
	assert.Contains(t, lines[1], "http://localhost:8546")
	assert.Contains(t, lines[2], "main")
	assert.Contains(t, lines[2], "$ETHEREUM_URL")
	assert.Contains(t, lines[3], "http://172.17.0.4:8545")
	assert.Contains(t, lines[4], "http://ethnode:8545")
}

func TestNetworksList_JSON(t *testing.T) {
	output, err := run(t, "networks", "list", "--json")
	require.NoError(t, err)

	var result NetworkListResult
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	require.Len(t, result.Networks, 4)
	assert.Equal(t, NetworkOutput{
		Name:      "testnet",
		Kind:      "direct",
		Endpoint:  "http://ethnode:8545",
		NetworkID: "*",
	}, result.Networks[3])
}

func TestNetworksList_WithConfig(t *testing.T) {
	path := writeFile(t, "deploynet.yaml", `
networks:
  sepolia:
    network_id: "11155111"
    private_key_env: SEPOLIA_KEY
    url_env: SEPOLIA_URL
`)
	output, err := run(t, "--config", path, "networks", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "sepolia")
	assert.Contains(t, output, "11155111")
	assert.Contains(t, output, "$SEPOLIA_URL")
}

func TestNetworksShow(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantContain []string
	}{
		{
			name:        "default network",
			args:        []string{"networks", "show"},
			wantContain: []string{"Name:        development", "Endpoint:    http://localhost:8546", "Network ID:  *"},
		},
		{
			name:        "positional name",
			args:        []string{"networks", "show", "parity"},
			wantContain: []string{"Name:        parity", "http://172.17.0.4:8545"},
		},
		{
			name:        "network flag",
			args:        []string{"--network", "testnet", "networks", "show"},
			wantContain: []string{"Name:        testnet", "http://ethnode:8545"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := run(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.wantContain {
				assert.Contains(t, output, want)
			}
		})
	}
}

func TestNetworksShow_NotFound(t *testing.T) {
	output, err := run(t, "networks", "show", "nonexistent")
	require.Error(t, err)
	assert.Contains(t, output, `unknown network "nonexistent"`)
	assert.Contains(t, output, "development, main, parity, testnet")
}

func TestNetworksShow_MainWithEnv(t *testing.T) {
	t.Setenv("ETHEREUM_DEPLOYER_PRIVATE_KEY", testPrivateKey)
	t.Setenv("ETHEREUM_URL", "https://rpc.example.com")

	output, err := run(t, "--config", freshConfig(t, ""), "networks", "show", "main", "--json")
	require.NoError(t, err)

	var out NetworkOutput
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, "remote-signing", out.Kind)
	assert.Equal(t, "https://rpc.example.com", out.Endpoint)
	assert.Equal(t, testAddress, out.DeployerAddress)
	assert.Empty(t, out.ProviderError)
	assert.NotContains(t, output, testPrivateKey[2:])
}

func TestNetworksShow_MainWithoutKey(t *testing.T) {
	t.Setenv("ETHEREUM_DEPLOYER_PRIVATE_KEY", "")
	t.Setenv("ETHEREUM_URL", "https://rpc.example.com")

	output, err := run(t, "--config", freshConfig(t, ""), "networks", "show", "main")
	require.NoError(t, err)
	assert.Contains(t, output, "Deployer:    (unavailable:")
	assert.Contains(t, output, "ETHEREUM_DEPLOYER_PRIVATE_KEY is empty")
}

func TestEnvFile(t *testing.T) {
	dotenv := writeFile(t, ".env", "DEPLOYNET_TEST_KEY="+testPrivateKey+"\nDEPLOYNET_TEST_URL=https://rpc.example.com\n")
	cfg := writeFile(t, "deploynet.yaml", `
networks:
  staging:
    private_key_env: DEPLOYNET_TEST_KEY
    url_env: DEPLOYNET_TEST_URL
`)
	t.Cleanup(func() {
		_ = os.Unsetenv("DEPLOYNET_TEST_KEY")
		_ = os.Unsetenv("DEPLOYNET_TEST_URL")
	})

	output, err := run(t, "--config", cfg, "--env-file", dotenv, "networks", "show", "staging")
	require.NoError(t, err)
	assert.Contains(t, output, "Deployer:    "+testAddress)
}

func TestEnvFile_AppliesSettings(t *testing.T) {
	for _, key := range []string{"DEPLOYNET_NETWORK", "DEPLOYNET_LOG_LEVEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	dotenv := writeFile(t, ".env", "DEPLOYNET_NETWORK=testnet\nDEPLOYNET_LOG_LEVEL=debug\n")

	output, err := run(t, "--env-file", dotenv, "networks", "show")
	require.NoError(t, err)
	assert.Contains(t, output, "Name:        testnet")
	assert.Contains(t, output, "configuration loaded")
}

func TestEnvFile_ExplicitMissing(t *testing.T) {
	output, err := run(t, "--env-file", filepath.Join(t.TempDir(), "nope.env"), "networks", "list")
	require.Error(t, err)
	assert.Contains(t, output, "env file")
}

func TestNetworksExport(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		output, err := run(t, "networks", "export", "--format", "yaml")
		require.NoError(t, err)
		assert.Contains(t, output, "networks:")
		assert.Contains(t, output, "host: ethnode")
		assert.Contains(t, output, "private_key_env: ETHEREUM_DEPLOYER_PRIVATE_KEY")
	})

	t.Run("json", func(t *testing.T) {
		output, err := run(t, "networks", "export", "--format", "json")
		require.NoError(t, err)

		var doc map[string]map[string]map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(output), &doc))
		assert.Equal(t, "172.17.0.4", doc["networks"]["parity"]["host"])
		assert.Equal(t, "*", doc["networks"]["main"]["network_id"])
	})

	t.Run("unsupported", func(t *testing.T) {
		output, err := run(t, "networks", "export", "--format", "toml")
		require.Error(t, err)
		assert.Contains(t, output, `unsupported format "toml"`)
	})
}

func newRPCStub(t *testing.T, chainID string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_chainId":
			resp["result"] = chainID
		case "eth_getBalance":
			resp["result"] = "0xde0b6b3a7640000"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCheck_RemoteSigning(t *testing.T) {
	server := newRPCStub(t, "0x539")
	t.Setenv("ETHEREUM_DEPLOYER_PRIVATE_KEY", testPrivateKey)
	t.Setenv("ETHEREUM_URL", server.URL)

	output, err := run(t, "--config", freshConfig(t, ""), "check", "main")
	require.NoError(t, err)
	assert.Contains(t, output, "Network:  main ("+server.URL+")")
	assert.Contains(t, output, "rpc_reachable")
	assert.Contains(t, output, "Ganache")
	assert.Contains(t, output, "deployer_balance")
	assert.NotContains(t, output, "✗")
}

func TestCheck_NetworkIDMismatch(t *testing.T) {
	server := newRPCStub(t, "0x1")
	t.Setenv("DEPLOYNET_CHECK_KEY", testPrivateKey)
	t.Setenv("DEPLOYNET_CHECK_URL", server.URL)
	cfg := freshConfig(t, `  pinned:
    network_id: "5"
    private_key_env: DEPLOYNET_CHECK_KEY
    url_env: DEPLOYNET_CHECK_URL
`)

	output, err := run(t, "--config", cfg, "check", "pinned", "--json")
	require.Error(t, err)
	assert.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, output, "Chain ID mismatch: expected 5, got 1")
}

func TestCheck_MissingKey(t *testing.T) {
	t.Setenv("ETHEREUM_DEPLOYER_PRIVATE_KEY", "")
	t.Setenv("ETHEREUM_URL", "http://localhost:8545")

	output, err := run(t, "--config", freshConfig(t, ""), "check", "main")
	require.Error(t, err)
	assert.Contains(t, output, "Error: ETHEREUM_DEPLOYER_PRIVATE_KEY is empty")
}
