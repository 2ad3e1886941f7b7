// Package hash provides helpers for hashing and verifying secrets.
//
// Typical usage is for one-time codes: store only the hash, then verify user
// input by comparing the plaintext against the stored hash. Implementations
// (bcrypt and argon2id) live in this package behind the Hash interface and are
// picked by name through New.
package hash
