// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Scdiff is a tool for differential gene expression analysis
// of single cell RNA-seq data.
package main

import (
	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cmd/scdiff/countcmd"
	"github.com/js-arias/scdiff/cmd/scdiff/diffcmd"
	"github.com/js-arias/scdiff/cmd/scdiff/groupcmd"
	"github.com/js-arias/scdiff/cmd/scdiff/model"
	"github.com/js-arias/scdiff/cmd/scdiff/normcmd"
	"github.com/js-arias/scdiff/cmd/scdiff/prj"
	"github.com/js-arias/scdiff/cmd/scdiff/report"
	"github.com/js-arias/scdiff/cmd/scdiff/sim"
)

var app = &command.Command{
	Usage: "scdiff <command> [<argument>...]",
	Short: "a tool for single cell differential expression analysis",
}

func init() {
	app.Add(countcmd.Command)
	app.Add(diffcmd.Command)
	app.Add(groupcmd.Command)
	app.Add(model.Command)
	app.Add(normcmd.Command)
	app.Add(prj.Command)
	app.Add(report.Command)
	app.Add(sim.Command)
}

func main() {
	app.Main()
}
