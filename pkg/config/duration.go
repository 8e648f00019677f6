package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/common/model"
	"github.com/sosodev/duration"
)

// ParseDuration accepts the duration spellings users are likely to copy from
// dashboards and docs: Go syntax ("90s", "1h30m"), Prometheus units ("2d",
// "1w"), ISO 8601 ("PT15M") and bare integer seconds ("300").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if d, err := model.ParseDuration(s); err == nil {
		return time.Duration(d), nil
	}
	if s[0] == 'P' || s[0] == 'p' {
		d, err := duration.Parse(strings.ToUpper(s))
		if err != nil {
			return 0, fmt.Errorf("invalid ISO 8601 duration %q: %w", s, err)
		}
		return d.ToTimeDuration(), nil
	}

	return 0, fmt.Errorf("invalid duration %q", s)
}

// parseOptionalDuration treats an empty string as "use the default"
func parseOptionalDuration(field, s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	d, err := ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}
