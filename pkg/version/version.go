package version

import (
	"strconv"
	"time"
)

// Set at link time:
// go build -ldflags "-X github.com/craigwongva/pz-access/pkg/version.version=1.2.3 -X github.com/craigwongva/pz-access/pkg/version.buildTime=1661772694"
var (
	version   = "unknown"
	buildTime = ""
)

func Version() string {
	return version
}

func BuildTime() (time.Time, error) {
	seconds, err := strconv.ParseInt(buildTime, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(seconds, 0), nil
}
