package domain

import "unicode/utf16"

// Hash32 is a 32-bit rolling hash (h = h*31 + c over UTF-16 code units, wrapping at
// 32 bits) returned as its absolute value. It is stable, not collision resistant.
func Hash32(raw string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(raw)) {
		h = h*31 + int32(c)
	}
	// widen before negating so math.MinInt32 stays positive
	v := int64(h)
	if v < 0 {
		return -v
	}
	return v
}
