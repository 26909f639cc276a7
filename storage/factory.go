package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/balancer-helper-registry/interfaces"
)

// ErrInvalidLocationURI is returned for snapshot URIs that can't be parsed.
var ErrInvalidLocationURI = errors.New("invalid snapshot location URI")

// SnapshotStoreFactory creates snapshot stores from URI strings.
type SnapshotStoreFactory struct {
	log *slog.Logger
}

func NewSnapshotStoreFactory(logger *slog.Logger) *SnapshotStoreFactory {
	return &SnapshotStoreFactory{log: logger}
}

// StoreFor creates a snapshot store from a location URI.
//
// Supported schemes:
//   - file:// - a local file
//   - s3:// - an object in Amazon S3 or a compatible service
//   - vault:// - a HashiCorp Vault KV v2 secret
func (sf *SnapshotStoreFactory) StoreFor(locationURI string) (interfaces.SnapshotStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return sf.createFileStore(u)
	case "s3":
		return sf.createS3Store(u)
	case "vault":
		return sf.createVaultStore(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, u.Scheme)
	}
}

// CreateMultiStore creates a store for every URI. A single URI yields its
// store directly. Unlike loading, construction fails on the first bad URI.
func (sf *SnapshotStoreFactory) CreateMultiStore(locationURIs []string) (interfaces.SnapshotStore, error) {
	if len(locationURIs) == 0 {
		return nil, fmt.Errorf("%w: no snapshot locations", ErrInvalidLocationURI)
	}

	stores := make([]interfaces.SnapshotStore, 0, len(locationURIs))
	for _, uri := range locationURIs {
		store, err := sf.StoreFor(uri)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", uri, err)
		}
		stores = append(stores, store)
	}

	if len(stores) == 1 {
		return stores[0], nil
	}
	return NewMultiSnapshotStore(stores, sf.log), nil
}

// createFileStore handles file:///absolute/path.json and file://./relative/path.json.
func (sf *SnapshotStoreFactory) createFileStore(u *url.URL) (interfaces.SnapshotStore, error) {
	sf.log.Debug("Creating file snapshot store", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in %s", ErrInvalidLocationURI, u.String())
	}

	return NewFileStore(path, sf.log)
}

// createS3Store handles s3://[ACCESS_KEY:SECRET_KEY@]bucket/key?region=&endpoint=&path_style=true.
func (sf *SnapshotStoreFactory) createS3Store(u *url.URL) (interfaces.SnapshotStore, error) {
	sf.log.Debug("Creating S3 snapshot store", slog.String("bucket", u.Host))

	query := u.Query()
	cfg := S3Config{
		Bucket:    u.Host,
		Key:       strings.TrimPrefix(u.Path, "/"),
		Region:    query.Get("region"),
		Endpoint:  query.Get("endpoint"),
		PathStyle: query.Get("path_style") == "true",
	}
	if u.User != nil {
		cfg.AccessKey = u.User.Username()
		cfg.SecretKey, _ = u.User.Password()
	}

	return NewS3Store(cfg, sf.log)
}

// createVaultStore handles vault://[TOKEN@]host:port/mount/secret/path?tls=false.
// TLS is on unless tls=false.
func (sf *SnapshotStoreFactory) createVaultStore(u *url.URL) (interfaces.SnapshotStore, error) {
	sf.log.Debug("Creating Vault snapshot store", slog.String("host", u.Host))

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: expected vault://host/mount/path", ErrInvalidLocationURI)
	}

	scheme := "https"
	if u.Query().Get("tls") == "false" {
		scheme = "http"
	}

	var token string
	if u.User != nil {
		token = u.User.Username()
	}

	return NewVaultStore(fmt.Sprintf("%s://%s", scheme, u.Host), parts[0], parts[1], token, sf.log)
}
