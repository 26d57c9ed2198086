// Package coordinator ties file selection, the upload engine and the
// linkage write together for one requirement slot at a time.
//
// PickAndUpload runs strictly in order: resolve the slot, pick a file,
// check its type, upload it under a fresh object key, then write the
// public URL into the slot's table and column exactly once. At most one
// call per (appointment, requirement) runs at a time; a second call while
// one is active returns StatusIgnored without side effects.
//
// Every upload is recorded in the local linkage ledger before the write, so
// an object whose write failed is never lost and RetryLinkages can link it
// later without uploading again.
package coordinator
