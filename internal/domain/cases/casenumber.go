package cases

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthAbbrevs = [12]string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

var caseNumberPattern = regexp.MustCompile(
	`^[A-Z]{2,5}-[A-Z]{2,5}-(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)-\d{4}$`)

// MonthAbbrev returns the three-letter month tag used in case numbers.
func MonthAbbrev(m time.Month) string {
	return monthAbbrevs[m-1]
}

// FormatCaseNumber renders ORG-PROJ-MMM-NNNN.
func FormatCaseNumber(orgCode, projectCode string, month time.Month, serial int) string {
	return fmt.Sprintf("%s-%s-%s-%04d", orgCode, projectCode, MonthAbbrev(month), serial)
}

// ValidCaseNumber reports whether s matches the case number format.
func ValidCaseNumber(s string) bool {
	return caseNumberPattern.MatchString(s)
}

// ParseCaseNumber splits a well-formed case number into its parts.
func ParseCaseNumber(s string) (orgCode, projectCode string, month time.Month, serial int, err error) {
	if !ValidCaseNumber(s) {
		return "", "", 0, 0, fmt.Errorf("malformed case number %q", s)
	}
	parts := strings.Split(s, "-")
	for i, abbrev := range monthAbbrevs {
		if parts[2] == abbrev {
			month = time.Month(i + 1)
			break
		}
	}
	serial, _ = strconv.Atoi(parts[3])
	return parts[0], parts[1], month, serial, nil
}
