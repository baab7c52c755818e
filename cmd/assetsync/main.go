// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/assetsync/cmd/assetsync/cmd"
)

func main() {
	cmd.Execute()
}
