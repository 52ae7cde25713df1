// Package vfs bridges asynchronous change notifications from a native watch
// source into the build tool's change-tracking model. It owns the stream
// health statistics for a watch session and computes, from snapshot tree
// mutations, the minimal set of watch roots to register or release.
//
// Callbacks from the native source may arrive on any thread; everything else
// (tree mutation notifications, statistics reads, Close) runs on the
// application's own goroutines. The statistics accumulator is the only state
// shared between the two sides without external synchronization.
package vfs
