// Package all registers every shell command.
package all

import (
	_ "github.com/robotalks/keymatrix/pkg/cli/cmds/firmware"
	_ "github.com/robotalks/keymatrix/pkg/cli/cmds/telemetry"
)
