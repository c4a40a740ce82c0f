package supervisor

// Package supervisor implements the launch logic of aictl.
//
// Overview
// A Supervisor is created once per invocation. On the first launch call
// (foreground or background, whichever comes first) it runs the external
// preparation step and activates the runtime environment; both happen
// exactly once for the lifetime of the invocation.
//
// Foreground launches inherit the caller's streams, block until the child
// exits and surface its exit status. Background launches detach (new
// session), append stdout and stderr to <log-dir>/<service>.log, record
// the pid in the registry and return right after the spawn. A running
// same-named instance is stopped first via the probe; the conflict is
// informational, not an error.
//
// Control flow:
//
//	cmd/aictl              Supervisor             probe.Probe
//	    |                     |                       |
//	    | Background(name) -->| ensureInit (once)     |
//	    |                     | Resolve(name)         |
//	    |                     |---- Running? -------->|
//	    |                     |<--- pid/none ---------|
//	    |                     |---- Stop (if any) --->|
//	    |                     | spawn, Setsid, log    |
//	    |                     |---- Record(pid) ----->|
//	    |<---- nil -----------|                       |
//
// Invariants:
//   - Initialization runs at most once per invocation and never re-runs.
//   - Each resolved name maps to exactly one target.
//   - After a background launch at most one instance per name is alive
//     (stop-then-start; small race windows remain, no OS level locking).
//   - Background spawns are not waited on, the child outlives the
//     invocation.
