// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package model is a metapackage for commands
// that dealt with single cell error models.
package model

import (
	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cmd/scdiff/model/fit"
)

var Command = &command.Command{
	Usage: "model <command> [<argument>...]",
	Short: "commands for single cell error models",
}

func init() {
	Command.Add(fit.Command)
}
