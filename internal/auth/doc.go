// Package auth signs and verifies the bearer tokens that guard the registry.
//
// Tokens are HS256 JWTs with issuer "roomclimate", a subject naming the
// calling client and a random jti. When security.jwt.secret is empty the
// registry runs open and nothing here is used.
//
// Service clients listed under security.clients exchange their id and secret
// for a token at POST {api_prefix}/auth/token. Secrets are stored only as
// Argon2id PHC strings; generate one with "roomclimate -hash-secret".
//
// The in-process control loop signs its own short-lived token with
// IssueToken rather than going through the client exchange.
package auth
