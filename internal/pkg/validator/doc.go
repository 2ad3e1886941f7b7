// Package validator checks use case inputs against struct tags.
//
// The v10 implementation adds the identifier, purpose and numeric_code tags.
package validator
