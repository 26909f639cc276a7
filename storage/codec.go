package storage

import (
	"encoding/json"
	"fmt"

	"github.com/ruteri/balancer-helper-registry/interfaces"
)

const snapshotFormatVersion = 1

type snapshotDocument struct {
	Version int `json:"version"`
	*interfaces.RegistrySnapshot
}

// EncodeSnapshot serializes a snapshot as versioned JSON.
func EncodeSnapshot(snapshot *interfaces.RegistrySnapshot) ([]byte, error) {
	return json.MarshalIndent(snapshotDocument{
		Version:          snapshotFormatVersion,
		RegistrySnapshot: snapshot,
	}, "", "  ")
}

// DecodeSnapshot parses data produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) (*interfaces.RegistrySnapshot, error) {
	doc := snapshotDocument{RegistrySnapshot: &interfaces.RegistrySnapshot{}}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	if doc.Version != snapshotFormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", doc.Version)
	}
	return doc.RegistrySnapshot, nil
}
