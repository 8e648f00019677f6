// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Version holds the application version information
const Version = "2.0-" + runtime.GOOS + "/" + runtime.GOARCH

// UserAgent identifies outbound HTTP requests to devices
const UserAgent = "airguard/" + Version
