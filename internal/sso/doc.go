/*
Package sso implements the client core for administering a remote
single-sign-on directory service: session lifecycle, typed administrative
operations, and uniform error reporting.

# Architecture Overview

The package is organized into three cooperating parts:

  - Registry: tracks authenticated connections keyed by (host, port,
    user), deduplicating repeat connects through reference counting
  - Client: the per-connection operation surface (principal CRUD, group
    membership, policy get/set, identity-source federation)
  - Error normalizer: translates every failure into a stable taxonomy

# Session Lifecycle

Connections are opened through a Transport and tracked by an explicit
Registry instance owned by the caller. Connecting twice to the same
(host, port, user) identity returns the same handle with its reference
count incremented; the underlying session is closed only when the final
holder disconnects. Handles expose their liveness, and every operation dispatched
through a disconnected handle fails with a not-connected error before any
remote call.

# Name Matching

Name-based lookups run client-side over the full remote listing. A
pattern containing '*' or '?' selects glob matching; any other non-empty
pattern requires exact equality; the empty pattern returns everything.

# Policy Updates

Policy writes take a base object plus a sparse update whose nil fields
fall back to the base values, so a single-field change never disturbs the
other fields. The combined policy replaces the server copy wholesale.

# Error Handling

Every operation returns either nil or *Error carrying one ErrorKind:
authentication, connectivity, not_connected, not_found, validation or
remote_operation. Wrapped causes are unwrapped to their innermost error
for the surfaced message. Fan-out across connections isolates failures
per connection and never short-circuits. Nothing is retried here; retry
policy belongs to the transport.

# Concurrency

One session per connection; callers issue operations on a single
connection sequentially. Reference-count mutation is atomic with respect
to concurrent connect/disconnect calls on the same identity.
*/
package sso
