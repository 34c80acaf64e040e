package deploynet

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ProviderTypePrivateKey describes a provider built from a private key and
// an RPC URL read from the environment.
const ProviderTypePrivateKey = "private_key"

// ProviderSpec describes a remote-signing provider without building it.
type ProviderSpec struct {
	Type          string `json:"type" yaml:"type"`
	PrivateKeyEnv string `json:"private_key_env" yaml:"private_key_env"`
	URLEnv        string `json:"url_env" yaml:"url_env"`
}

// ManifestEntry is one network in the shape the deployment tool consumes.
type ManifestEntry struct {
	Provider  *ProviderSpec `json:"provider,omitempty" yaml:"provider,omitempty"`
	Host      string        `json:"host,omitempty" yaml:"host,omitempty"`
	Port      int           `json:"port,omitempty" yaml:"port,omitempty"`
	NetworkID NetworkID     `json:"network_id" yaml:"network_id"`
}

// Manifest is the whole table keyed by network name.
type Manifest map[string]ManifestEntry

// Manifest renders the table. Providers are described, never constructed.
func (t *Table) Manifest() Manifest {
	m := make(Manifest, len(t.profiles))
	for name, p := range t.profiles {
		m[name] = entryFor(p)
	}
	return m
}

func entryFor(p Profile) ManifestEntry {
	if p.RemoteSigning() {
		return ManifestEntry{
			Provider: &ProviderSpec{
				Type:          ProviderTypePrivateKey,
				PrivateKeyEnv: p.PrivateKeyEnv,
				URLEnv:        p.URLEnv,
			},
			NetworkID: p.NetworkID,
		}
	}
	return ManifestEntry{
		Host:      p.Host,
		Port:      p.Port,
		NetworkID: p.NetworkID,
	}
}

// JSON encodes the manifest with two-space indentation.
func (m Manifest) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(map[string]Manifest{"networks": m}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return data, nil
}

// YAML encodes the manifest.
func (m Manifest) YAML() ([]byte, error) {
	data, err := yaml.Marshal(map[string]Manifest{"networks": m})
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return data, nil
}
