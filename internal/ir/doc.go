// Package ir provides the semantic value layer shared by the query packages.
//
// This package contains the type lattice for expressions, the closed set of
// literal values a query may carry, and the canonical encoding used to derive
// structural identity. All other internal packages import ir; ir imports
// nothing internal.
//
// Key design constraints:
//   - Literal values are normalized at construction (int64, float64, string,
//     bool, time, null); anything else is rejected
//   - Canonical encoding is RFC 8785 with NFC-normalized strings
//   - Fingerprints are domain-separated SHA-256 over canonical bytes
package ir
