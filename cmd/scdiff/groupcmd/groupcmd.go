// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package groupcmd is a metapackage for commands
// that dealt with cell groups.
package groupcmd

import (
	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cmd/scdiff/groupcmd/add"
	"github.com/js-arias/scdiff/cmd/scdiff/groupcmd/set"
)

var Command = &command.Command{
	Usage: "groups <command> [<argument>...]",
	Short: "commands for cell groups",
}

func init() {
	Command.Add(add.Command)
	Command.Add(set.Command)
}
