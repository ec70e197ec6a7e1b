package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Berlin")
	if err != nil {
		panic(err)
	}
}

// force timezone to be the portal's because the servers sometimes
// end up in other regions which will cause disturbances when
// deriving semester names from <time.Time>.Year()/Month()
func Now() time.Time {
	return time.Now().In(Location)
}
