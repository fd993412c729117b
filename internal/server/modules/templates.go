package modules

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
)

//go:embed templates/*.html
var templatesFS embed.FS

var funcMap = template.FuncMap{
	"stars": stars,
	"money": money,
	"score": score,
}

// stars returns five flags, the first rating of them set.
func stars(rating int) []bool {
	out := make([]bool, 5)
	for i := range out {
		out[i] = i < rating
	}
	return out
}

func money(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func score(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type fallbackRow struct {
	Key   string
	Value string
}

type fallbackView struct {
	Kind string
	Rows []fallbackRow
}

func displayValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
