// Package clock lets expiry and lockout logic read the current time through an
// interface, so tests can pin it.
package clock
