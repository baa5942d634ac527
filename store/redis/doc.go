// Package redisstore backs the dedup markers and the ledger with Redis.
// Markers use SET NX with a TTL, so expiry is native and the retention sweep
// is a no-op. The running total uses INCRBY, which is atomic on the server;
// no compare-and-swap loop is needed.
package redisstore
