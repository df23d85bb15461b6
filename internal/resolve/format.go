package resolve

import (
	"fmt"
	"strings"

	"github.com/cyw0ng95/savreader/internal/model"
)

// formatPrefixes maps a packed format's type code to its SPSS print-format
// prefix. Covers the full SPSS format-type enumeration; unlisted codes
// round-trip fine since they share the same "prefix+width[.decimals]"
// rendering rule.
var formatPrefixes = map[int]string{
	1:  "A",
	2:  "AHEX",
	3:  "COMMA",
	4:  "DOLLAR",
	5:  "F",
	6:  "IB",
	7:  "PIBHEX",
	8:  "P",
	9:  "PIB",
	10: "PK",
	11: "RB",
	12: "RBHEX",
	15: "Z",
	16: "N",
	17: "E",
	20: "DATE",
	21: "TIME",
	22: "DATETIME",
	23: "ADATE",
	24: "JDATE",
	25: "DTIME",
	26: "WKDAY",
	27: "MONTH",
	28: "MOYR",
	29: "QYR",
	30: "WKYR",
	31: "PCT",
	32: "DOT",
	33: "CCA",
	34: "CCB",
	35: "CCC",
	36: "CCD",
	37: "CCE",
	38: "EDATE",
	39: "SDATE",
	40: "MTIME",
	41: "YMDHMS",
}

// isStringFormat reports whether a format type code denotes string data
// (A or AHEX) rather than a numeric rendering.
func isStringFormat(typeCode int) bool {
	return typeCode == 1 || typeCode == 2
}

// formatString renders a packed format spec as a human-readable SPSS
// format string like "F8.2" or "A50". Unknown type codes round-trip as
// the bare numeric code.
func formatString(pf model.PackedFormat) string {
	prefix, ok := formatPrefixes[pf.TypeCode]
	if !ok {
		prefix = fmt.Sprintf("%d", pf.TypeCode)
	}
	if isStringFormat(pf.TypeCode) || pf.Decimals == 0 {
		return fmt.Sprintf("%s%d", prefix, pf.Width)
	}
	return fmt.Sprintf("%s%d.%d", prefix, pf.Width, pf.Decimals)
}

// vlsFormatString renders the user-visible format for a non-ghost VLS
// variable: "A" followed by the recovered true width, overriding whatever
// the packed format spec (capped at 255) would otherwise produce.
func vlsFormatString(width int) string {
	return fmt.Sprintf("A%d", width)
}

func normalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
