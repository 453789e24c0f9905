package main

import (
	"github.com/robotalks/keymatrix/pkg/cli/sh"
	"github.com/robotalks/keymatrix/pkg/env"

	_ "github.com/robotalks/keymatrix/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
