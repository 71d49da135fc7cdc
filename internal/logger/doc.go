// Package logger wraps zap for the build tool:
//   - a global sugared logger with a plain console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for the --log-level flag.
//
// Components take a context and log through it, so per-service fields set by
// the orchestrator show up on every line a component writes.
package logger
