// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package countcmd is a metapackage for commands
// that dealt with count matrices.
package countcmd

import (
	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cmd/scdiff/countcmd/add"
	"github.com/js-arias/scdiff/cmd/scdiff/countcmd/cellscmd"
	"github.com/js-arias/scdiff/cmd/scdiff/countcmd/filter"
)

var Command = &command.Command{
	Usage: "counts <command> [<argument>...]",
	Short: "commands for count matrices",
}

func init() {
	Command.Add(add.Command)
	Command.Add(cellscmd.Command)
	Command.Add(filter.Command)
}
