// ABOUTME: In-memory stores owning the gateway's shared mutable state.
// ABOUTME: PriceStore, AlertStore, and HealthStore are the only mutation paths.

// Package store holds the gateway's shared in-memory state.
//
// Each store is the sole owner of one piece of mutable state: tranche
// prices (PriceStore), the bounded alert log (AlertStore), and key
// health status (HealthStore). Every read and write goes through the
// owning store; no component reaches into another's internals. Stores
// never call into each other, and no external I/O happens while a
// store's mutex is held, so one coarse mutex per store is enough.
//
// Nothing here survives a restart. Persistence is deliberately out of
// scope for this gateway.
package store
