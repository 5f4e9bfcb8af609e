package services

// MonthOptions lists the month abbreviations offered by the period selectors.
var MonthOptions = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// YearOptions lists the selectable billing years.
var YearOptions = yearRange(2020, 2030)

// Default billing and FPA period selection.
const (
	DefaultPeriodMonth = "Jul"
	DefaultPeriodYear  = 2024
)

// AbsentPolicyOptions lists the absent-reading policies in form order.
var AbsentPolicyOptions = []AbsentReadingPolicy{AbsentAsZero, AbsentFails}

func yearRange(from, to int) []int {
	years := make([]int, 0, to-from+1)
	for y := from; y <= to; y++ {
		years = append(years, y)
	}
	return years
}

// IsValidMonth reports whether m is one of MonthOptions.
func IsValidMonth(m string) bool {
	for _, opt := range MonthOptions {
		if opt == m {
			return true
		}
	}
	return false
}
