// Package retention decides which write-ahead log segments may be deleted
// and deletes them.
//
// An Engine holds the active retention strategy, compiled from policy text
// by the strategy package. Apply swaps in a new policy atomically; readers
// never observe a half-applied configuration. PruneLogs runs one prune pass:
// it asks the strategy for candidates below a boundary, withholds every
// version the recovery floor still needs, and deletes the rest oldest first,
// stopping at the first failure. Passes are serialized.
//
// A Scheduler drives passes from a cron expression and from on-demand
// triggers. An Archiver optionally compresses each segment into an archive
// directory before it is deleted.
//
//	engine, err := retention.NewEngine(retention.Config{
//	    Policy:    "7 days+10 files",
//	    Directory: catalog,
//	    Floor:     checkpoint.NewFileFloor(path),
//	})
//	result, err := engine.PruneLogs(ctx, highest)
package retention
