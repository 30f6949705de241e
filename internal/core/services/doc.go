// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services depend on domain, the ports and the logger; adapters are
// injected through a RunContext.
package services
