package exchange

import "strconv"

// parseFloatOrZero parses a Bybit wire-format numeric string, returning 0
// on any parse failure rather than propagating an error — these fields
// are always present and well-formed in practice; a malformed one is
// treated the same as "unknown" would be.
func parseFloatOrZero(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
