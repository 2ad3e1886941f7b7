// Package otp provides the numeric one-time code generator.
//
// Codes are drawn uniformly from a cryptographically strong source and keep
// their leading zeros, so a 6 digit code can be "000417".
package otp
