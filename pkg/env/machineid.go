package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const appID = "keymatrix"

// MachineID returns a short stable ID of this machine, derived from the
// OS machine ID without exposing it. The hostname is used when the
// machine ID is unavailable.
func MachineID() string {
	id, err := machineid.ProtectedID(appID)
	if err == nil && len(id) >= 12 {
		return id[:12]
	}
	glog.V(2).Infof("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return appID
}
