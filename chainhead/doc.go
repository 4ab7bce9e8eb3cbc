// Package chainhead implements the pinned-block subscription manager
// backing a chainHead-style streaming RPC: it tracks which blocks each
// subscription has asked the backend to keep reachable, reference-counts
// those pins globally, bounds per-subscription concurrent operations, and
// evicts misbehaving subscriptions to uphold a global pinned-block cap.
package chainhead
