package timezone

import (
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
)

var airportTimezones = map[string]string{
	// Europe
	"LHR": "Europe/London",
	"LGW": "Europe/London",
	"MAN": "Europe/London",
	"DUB": "Europe/Dublin",
	"CDG": "Europe/Paris",
	"ORY": "Europe/Paris",
	"AMS": "Europe/Amsterdam",
	"FRA": "Europe/Berlin",
	"MUC": "Europe/Berlin",
	"BER": "Europe/Berlin",
	"DUS": "Europe/Berlin",
	"HAM": "Europe/Berlin",
	"ZRH": "Europe/Zurich",
	"VIE": "Europe/Vienna",
	"BRU": "Europe/Brussels",
	"MAD": "Europe/Madrid",
	"BCN": "Europe/Madrid",
	"PMI": "Europe/Madrid",
	"LIS": "Europe/Lisbon",
	"FCO": "Europe/Rome",
	"MXP": "Europe/Rome",
	"CPH": "Europe/Copenhagen",
	"ARN": "Europe/Stockholm",
	"OSL": "Europe/Oslo",
	"HEL": "Europe/Helsinki",
	"WAW": "Europe/Warsaw",
	"PRG": "Europe/Prague",
	"ATH": "Europe/Athens",
	"IST": "Europe/Istanbul",

	// Americas
	"JFK": "America/New_York",
	"EWR": "America/New_York",
	"BOS": "America/New_York",
	"ORD": "America/Chicago",
	"ATL": "America/New_York",
	"MIA": "America/New_York",
	"LAX": "America/Los_Angeles",
	"SFO": "America/Los_Angeles",
	"SEA": "America/Los_Angeles",
	"YYZ": "America/Toronto",

	// Middle East / Asia
	"DXB": "Asia/Dubai",
	"DOH": "Asia/Qatar",
	"SIN": "Asia/Singapore",
	"HKG": "Asia/Hong_Kong",
	"NRT": "Asia/Tokyo",
	"HND": "Asia/Tokyo",
	"CGK": "Asia/Jakarta",
	"DPS": "Asia/Makassar",
	"SYD": "Australia/Sydney",
}

// GetTimezoneByAirport returns the IANA zone of a known airport, or "".
func GetTimezoneByAirport(code string) string {
	return airportTimezones[strings.ToUpper(strings.TrimSpace(code))]
}

// GetLocationByName resolves an IANA zone name, falling back to fallback.
func GetLocationByName(name string, fallback *time.Location) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if strings.EqualFold(name, "local") {
		return time.Local
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return fallback
}

var zonedFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05-0700", // Without colon
	"2006-01-02T15:04Z07:00",
}

var naiveFormats = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp parses a date-time string with time-of-day. Strings without a
// zone are read in loc (UTC when loc is nil). Bare dates are rejected.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, format := range zonedFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	if loc == nil {
		loc = time.UTC
	}
	for _, format := range naiveFormats {
		if t, err := time.ParseInLocation(format, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &time.ParseError{
		Value:   s,
		Message: "unable to parse time string",
	}
}

// HasTimeOfDay reports whether s is a full timestamp rather than a bare date.
func HasTimeOfDay(s string) bool {
	_, err := ParseTimestamp(s, nil)
	return err == nil
}

var (
	isoDateRe      = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	dottedDateRe   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
	datePrefixRe   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[T ]`)
	dateTimeZoneRe = regexp.MustCompile(`(Z|[+-]\d{2}:?\d{2})$`)
)

// IsZoned reports whether s is a timestamp carrying an explicit offset or Z.
func IsZoned(s string) bool {
	s = strings.TrimSpace(s)
	return dateTimeZoneRe.MatchString(s) && HasTimeOfDay(s)
}

// IsValidDateFormat accepts YYYY-MM-DD, DD.MM.YYYY, YYYY-MM-DD HH:MM:SS and ISO date-times.
func IsValidDateFormat(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if isoDateRe.MatchString(s) {
		_, err := time.Parse("2006-01-02", s)
		return err == nil
	}
	if dottedDateRe.MatchString(s) {
		_, err := time.Parse("2.1.2006", s)
		return err == nil
	}
	return HasTimeOfDay(s)
}

// NormalizeDate converts any accepted date format to YYYY-MM-DD. Zoned
// timestamps are converted to the calendar date in loc, not the UTC date.
func NormalizeDate(s string, loc *time.Location) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &time.ParseError{Value: s, Message: "empty date"}
	}

	if isoDateRe.MatchString(s) {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return "", err
		}
		return t.Format("2006-01-02"), nil
	}

	if dottedDateRe.MatchString(s) {
		t, err := time.Parse("2.1.2006", s)
		if err != nil {
			return "", err
		}
		return t.Format("2006-01-02"), nil
	}

	if loc == nil {
		loc = time.Local
	}
	if dateTimeZoneRe.MatchString(s) {
		t, err := ParseTimestamp(s, loc)
		if err != nil {
			return "", err
		}
		return t.In(loc).Format("2006-01-02"), nil
	}

	// No zone: the wall-clock date is already the calendar date.
	t, err := ParseTimestamp(s, loc)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

// DatePortion returns the calendar date written in s without any zone
// conversion, or "" when s carries no recognisable date.
func DatePortion(s string) string {
	s = strings.TrimSpace(s)
	if isoDateRe.MatchString(s) {
		return s
	}
	if m := datePrefixRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if dottedDateRe.MatchString(s) {
		if t, err := time.Parse("2.1.2006", s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}
