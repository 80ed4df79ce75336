// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package normcmd is a metapackage for commands
// that dealt with expression normalization.
package normcmd

import (
	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cmd/scdiff/normcmd/express"
	"github.com/js-arias/scdiff/cmd/scdiff/normcmd/factors"
)

var Command = &command.Command{
	Usage: "norm <command> [<argument>...]",
	Short: "commands for expression normalization",
}

func init() {
	Command.Add(express.Command)
	Command.Add(factors.Command)
}
