// Package storage persists registry snapshots to pluggable backends.
//
// Backends are selected by URI:
//
//   - file:///var/lib/registry/snapshot.json
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket/path/snapshot.json?region=us-west-2&endpoint=http://minio:9000&path_style=true
//   - vault://[TOKEN@]vault.example.com:8200/secret/registry/snapshot?tls=true
//
// Several URIs can be combined into a MultiSnapshotStore, which saves to
// every backend and loads from the first one holding a snapshot.
//
// A Snapshotter subscribes to registry events and saves a fresh snapshot
// after every committed mutation.
package storage
