package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	fx "github.com/robotalks/keymatrix/pkg/framework"
	"github.com/robotalks/keymatrix/pkg/env"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	env := env.NewConfig().MustNewEnv()
	defer env.Close()
	fx.NewLoop().Add(env).RunOrFail()
}
