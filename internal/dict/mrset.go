package dict

import (
	"strconv"
	"strings"

	"github.com/cyw0ng95/savreader/internal/model"
)

// RawMrSet is one subtype-7 multiple-response set with its variable names
// still in SHORT form; the resolver maps them to long names.
type RawMrSet struct {
	Name         string
	Kind         model.MrType
	CountedValue string // only set for dichotomy sets
	Label        string
	VarNames     []string
}

// parseMrSetLine parses one line of the form:
//
//	$NAME=Dn countedvalue label_len label var1 var2 ...   (dichotomy)
//	$NAME=C label_len label var1 var2 ...                  (category)
func parseMrSetLine(line string) (RawMrSet, bool) {
	rest, ok := strings.CutPrefix(line, "$")
	if !ok {
		return RawMrSet{}, false
	}
	name, rest, ok := strings.Cut(rest, "=")
	if !ok || rest == "" {
		return RawMrSet{}, false
	}

	kindChar := rest[0]
	rest = rest[1:]

	var kind model.MrType
	var countedValue string

	switch kindChar {
	case 'D', 'E':
		kind = model.MrDichotomy
		cvLen, tail, ok := parseLeadingInt(rest)
		if !ok {
			return RawMrSet{}, false
		}
		tail = strings.TrimPrefix(tail, " ")
		if len(tail) < cvLen {
			return RawMrSet{}, false
		}
		countedValue = tail[:cvLen]
		rest = tail[cvLen:]

	case 'C':
		kind = model.MrCategory

	default:
		return RawMrSet{}, false
	}

	rest = strings.TrimLeft(rest, " ")
	labelLen, rest, ok := parseLeadingInt(rest)
	if !ok {
		return RawMrSet{}, false
	}
	rest = strings.TrimPrefix(rest, " ")

	var label string
	var remainder string
	if len(rest) < labelLen {
		label = strings.TrimSpace(rest)
		remainder = ""
	} else {
		label = rest[:labelLen]
		remainder = rest[labelLen:]
	}

	varNames := strings.Fields(remainder)

	return RawMrSet{
		Name:         name,
		Kind:         kind,
		CountedValue: countedValue,
		Label:        label,
		VarNames:     varNames,
	}, true
}

// parseLeadingInt reads a run of ASCII digits from the start of s, returning
// the parsed value and the remaining text.
func parseLeadingInt(s string) (int, string, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, s, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, s, false
	}
	return n, s[end:], true
}
