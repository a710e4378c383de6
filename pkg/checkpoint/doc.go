// Package checkpoint reads and writes the checkpoint marker that defines the
// recovery floor.
//
// The marker is a small YAML file written by the database after each
// checkpoint:
//
//	log_version: 42
//	transaction_id: 18231
//	written_at: 2024-06-01T03:00:00Z
//
// Recovery replays the log from log_version onward, so FileFloor reports it
// as the lowest required version. A missing or unreadable marker is an
// error, which makes a prune pass delete nothing.
package checkpoint
