package lsf

import (
	"fmt"
	"time"
)

// CurrentTerm derives the name of the academic term containing `now`,
// as the portal prints it. The summer term runs April through
// September, the winter term October through March spanning two
// calendar years.
func CurrentTerm(now time.Time) string {
	year := now.Year()
	month := now.Month()

	if month >= 4 && month <= 9 {
		return fmt.Sprintf("Sommersemester %d", year)
	}

	// encompasses Oct-Dec of the starting year
	if month >= 10 {
		return fmt.Sprintf("Wintersemester %d/%02d", year, (year+1)%100)
	}

	// Jan-Mar belong to the winter term started the previous year
	return fmt.Sprintf("Wintersemester %d/%02d", year-1, year%100)
}
