// Package esengine is the embedding API spec §6.1 describes in design
// terms (Context::new(host_hooks), Context::eval, Context::parse_module,
// Context::register_global, Value/Object predicates and internal-method
// wrappers). It is the one package every other internal/* package
// exists to serve: a host links this package, builds a Context, and
// drives source text through it without ever importing internal/vm,
// internal/compiler, or internal/module directly.
//
// Grounded on how the teacher's mcp/server.go and mcp/handlers.go sit in
// front of internal/core/pipeline.go — a narrow, public, request-facing
// facade dispatching into packages the host never imports on its own —
// and on cmd/morfx/main.go + internal/cli/runner.go for the CLI
// counterpart in cmd/esengine.
package esengine
