// Package session manages the storefront's server-side login sessions:
// opaque tokens mapped to identity snapshots with absolute expiry, idle
// timeout, per-user concurrency capping and a bounded grace window for
// renewing recently expired sessions.
//
// # Architecture
//
// A Manager orchestrates the lifecycle on top of a Store. The default
// MemoryStore keeps everything in-process — a restart logs everyone out,
// which is the intended trade-off for single-instance deployments. A
// RedisStore is available for deployments that need sessions to survive
// restarts or to be shared across instances; choosing it is an explicit
// behavioral change, not a drop-in swap.
//
// Tokens travel through a Transport: a signed cookie for browsers or a
// header for API clients.
//
//	manager := session.New(
//	    session.WithConfig(cfg),
//	    session.WithLogger(log),
//	)
//	transport := session.NewCookieTransport(cookies, cfg)
//
//	r.Use(session.Authenticate(manager, transport))
//
// # Expiry semantics
//
// Validate destroys sessions that fail either the absolute or the idle
// check and reports both as an expired-session error; HTTP callers
// collapse that and a missing record into one 401. Peek bypasses expiry
// so the renew flow can read a session that expired less than the grace
// period ago; Renew then mints a fresh session under the same identity,
// bounded by the record's refresh expiry.
package session
