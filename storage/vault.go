package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/balancer-helper-registry/interfaces"
)

const vaultSnapshotField = "snapshot"

// VaultStore keeps the snapshot in a HashiCorp Vault KV v2 secret.
type VaultStore struct {
	client      *api.Client
	mountPath   string
	secretPath  string
	log         *slog.Logger
	locationURI string
}

// NewVaultStore creates a Vault snapshot store using token authentication.
// An empty token falls back to VAULT_TOKEN.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount (e.g. "secret")
//   - secretPath: path of the secret within the mount (e.g. "registry/snapshot")
//   - token: Vault token
func NewVaultStore(address, mountPath, secretPath, token string, log *slog.Logger) (*VaultStore, error) {
	config := api.DefaultConfig()
	if config.Error != nil {
		return nil, fmt.Errorf("failed to read Vault environment: %w", config.Error)
	}
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	secretPath = strings.Trim(secretPath, "/")
	if mountPath == "" || secretPath == "" {
		return nil, errors.New("vault snapshot store needs a mount and a secret path")
	}

	return &VaultStore{
		client:      client,
		mountPath:   mountPath,
		secretPath:  secretPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://"), mountPath, secretPath),
	}, nil
}

// Load reads the latest secret version. Returns ErrSnapshotNotFound if the secret doesn't exist.
func (s *VaultStore) Load(ctx context.Context) (*interfaces.RegistrySnapshot, error) {
	start := time.Now()

	secret, err := s.client.KVv2(s.mountPath).Get(ctx, s.secretPath)
	if errors.Is(err, api.ErrSecretNotFound) {
		s.log.Debug("Snapshot not found in Vault", slog.String("path", s.secretPath))
		return nil, interfaces.ErrSnapshotNotFound
	}
	if err != nil {
		s.log.Error("Failed to read from Vault",
			slog.String("path", s.secretPath),
			"err", err)
		return nil, fmt.Errorf("failed to read snapshot from Vault: %w", err)
	}

	content, ok := secret.Data[vaultSnapshotField].(string)
	if !ok {
		return nil, fmt.Errorf("%s key not found in Vault data", vaultSnapshotField)
	}

	s.log.Debug("Loaded snapshot from Vault",
		slog.String("path", s.secretPath),
		slog.Duration("duration", time.Since(start)))

	return DecodeSnapshot([]byte(content))
}

// Save writes the snapshot as a new secret version.
func (s *VaultStore) Save(ctx context.Context, snapshot *interfaces.RegistrySnapshot) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	_, err = s.client.KVv2(s.mountPath).Put(ctx, s.secretPath, map[string]interface{}{
		vaultSnapshotField: string(data),
	})
	if err != nil {
		s.log.Error("Failed to write to Vault",
			slog.String("path", s.secretPath),
			"err", err)
		return fmt.Errorf("failed to write snapshot to Vault: %w", err)
	}

	s.log.Debug("Stored snapshot in Vault",
		slog.String("path", s.secretPath),
		slog.Int("pools", len(snapshot.Pools)))

	return nil
}

// LocationURI returns the URI that identifies this store.
func (s *VaultStore) LocationURI() string {
	return s.locationURI
}
