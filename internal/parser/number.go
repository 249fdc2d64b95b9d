package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	decimalRe = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)
	hexRe     = regexp.MustCompile(`^0[xX][0-9a-fA-F]+$`)
)

// coerceAttr returns a float64 when raw is an unambiguous number and raw
// unchanged otherwise. A plain decimal only counts as unambiguous when its
// float64 form prints back to the same digits, so large integers and long
// fractions stay strings.
func coerceAttr(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw
	}

	if hexRe.MatchString(s) {
		v, err := strconv.ParseUint(s[2:], 16, 53)
		if err != nil {
			return raw
		}
		return float64(v)
	}

	if !decimalRe.MatchString(s) {
		return raw
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return raw
	}
	if strings.ContainsAny(s, "eE") {
		return f
	}
	if canonicalDecimal(s) != strconv.FormatFloat(f, 'f', -1, 64) {
		return raw
	}
	return f
}

// canonicalDecimal drops a plus sign, leading integer zeros and trailing
// fraction zeros: "+007.50" -> "7.5".
func canonicalDecimal(s string) string {
	sign := ""
	switch s[0] {
	case '-':
		sign = "-"
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	if hasFrac {
		frac = strings.TrimRight(frac, "0")
	}
	if frac == "" {
		return sign + intPart
	}
	return sign + intPart + "." + frac
}
