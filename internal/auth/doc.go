// Package auth provides authentication and authorization primitives
// for authgate.
//
// This package implements:
//   - Role policy with a total privilege order (basic < user < admin)
//   - HS256 token verification and claim decoding
//   - The authentication gate: revocation, signature/expiry,
//     identity resolution and token-version checks, in that order
//   - The authorization gate comparing a principal's role to a route requirement
//   - Request-scoped principal propagation through context.Context
//
// Collaborators (revocation registry, identity resolver) are consumed as
// interfaces and implemented under repositories/.
package auth
