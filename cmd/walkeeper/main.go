// walkeeper keeps the write-ahead log of a database within its retention
// policy.
//
// It deletes the oldest log segments the policy no longer needs, never
// touching a segment crash recovery still requires, and can archive each
// segment before deleting it.
//
// Usage:
//
//	# Run the retention daemon (scheduler, admin server, config watcher)
//	walkeeper run --config walkeeper.yaml
//
//	# Run one prune pass now, or preview it
//	walkeeper prune
//	walkeeper prune --dry-run
//
//	# Check a policy
//	walkeeper validate --policy "7 days+10 files"
//
//	# Register existing segment files in the catalog
//	walkeeper segments scan
//
//	# Record a checkpoint, which moves the recovery floor
//	walkeeper checkpoint set 42
package main

func main() {
	Execute()
}
