// ABOUTME: Simulated external collaborators: ledger, TEE jobs, notifier, feeds.
// ABOUTME: Stand-ins for services the gateway calls but does not implement.

// Package collab holds the gateway's external collaborators.
//
// The marketplace demo treats the on-chain ledger, the TEE scoring
// service, the notification channels, and the market/news feeds as
// opaque external services with known request/response shapes. The
// implementations here simulate them in-process with plausible
// latencies and deterministic arithmetic; swapping in real clients
// means satisfying the same method sets.
package collab
