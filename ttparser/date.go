package ttparser

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

var ErrDateFormat = errors.New("invalid date format")

var months = map[string]string{
	"января":   "01",
	"февраля":  "02",
	"марта":    "03",
	"апреля":   "04",
	"мая":      "05",
	"июня":     "06",
	"июля":     "07",
	"августа":  "08",
	"сентября": "09",
	"октября":  "10",
	"ноября":   "11",
	"декабря":  "12",
}

const dateLayout = "2.1.2006"

// ParseDate accepts "15 января 2024 г." (anything after the year is ignored)
// as well as plain "15.01.2024".
func ParseDate(text string) (time.Time, error) {
	if normalized, ok := substituteMonth(text); ok {
		if t, err := time.Parse(dateLayout, normalized); err == nil {
			return t, nil
		}
	}

	t, err := time.Parse(dateLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrDateFormat, "%q", text)
	}
	return t, nil
}

func substituteMonth(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return "", false
	}
	month, ok := months[strings.ToLower(fields[1])]
	if !ok {
		return "", false
	}
	return fields[0] + "." + month + "." + fields[2], true
}
