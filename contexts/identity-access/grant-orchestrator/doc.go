// Package grantorchestrator implements the time-bounded access grant
// orchestrator inside gatepass: it admits grant requests through a
// sliding-window rate limiter, runs the invite -> group -> policy sequence
// against the external identity/authorization service with duplicate-policy
// detection, and sweeps group memberships past their TTL.
//
// Layering:
// - domain: core entities, outcome classification, errors
// - application: commands/workers using explicit ports
// - ports: stable boundaries for the external collaborators
// - adapters: concrete cloud HTTP, memory, postgres, and inbound HTTP implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - The only shared mutable state is the injected rate limiter; everything
//   else is a stateless call against the external service.
// - Group IDs and policies are re-resolved per request, never cached.
package grantorchestrator
