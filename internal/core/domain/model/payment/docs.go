// Package payment models provider payment events as they enter the
// idempotency ledger. At most one event per provider reference is ever applied
// to an order; replays are recognized by the ledger and surfaced as duplicates.
package payment
