package row

import (
	"strings"
	"sync"
)

const (
	// DefaultDateMask is used for Date fields without a conversion mask.
	DefaultDateMask = "yyyy/MM/dd HH:mm:ss.SSS"
	// DefaultTimestampMask is used for Timestamp fields without a conversion mask.
	DefaultTimestampMask = "yyyy/MM/dd HH:mm:ss.SSSSSSSSS"
)

var layoutCache sync.Map // mask -> Go layout

// GoLayout translates a Java-style date pattern (yyyy/MM/dd HH:mm:ss.SSS)
// into a Go reference-time layout. Text inside single quotes is literal.
func GoLayout(mask string) string {
	if v, ok := layoutCache.Load(mask); ok {
		return v.(string)
	}
	var sb strings.Builder
	runes := []rune(mask)
	for i := 0; i < len(runes); {
		c := runes[i]
		if c == '\'' {
			j := i + 1
			for j < len(runes) && runes[j] != '\'' {
				sb.WriteRune(runes[j])
				j++
			}
			i = j + 1
			continue
		}
		j := i
		for j < len(runes) && runes[j] == c {
			j++
		}
		sb.WriteString(translateRun(c, j-i))
		i = j
	}
	layout := sb.String()
	layoutCache.Store(mask, layout)
	return layout
}

func translateRun(c rune, n int) string {
	switch c {
	case 'y':
		if n == 2 {
			return "06"
		}
		return "2006"
	case 'M':
		switch {
		case n >= 4:
			return "January"
		case n == 3:
			return "Jan"
		case n == 2:
			return "01"
		}
		return "1"
	case 'd':
		if n >= 2 {
			return "02"
		}
		return "2"
	case 'H', 'k':
		return "15"
	case 'h', 'K':
		if n >= 2 {
			return "03"
		}
		return "3"
	case 'm':
		if n >= 2 {
			return "04"
		}
		return "4"
	case 's':
		if n >= 2 {
			return "05"
		}
		return "5"
	case 'S':
		return strings.Repeat("0", n)
	case 'a':
		return "PM"
	case 'E':
		if n >= 4 {
			return "Monday"
		}
		return "Mon"
	case 'z':
		return "MST"
	case 'Z':
		return "-0700"
	case 'X':
		if n >= 3 {
			return "-07:00"
		}
		return "-07"
	}
	return strings.Repeat(string(c), n)
}
