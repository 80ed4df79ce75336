// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package diffcmd is a metapackage for commands
// that dealt with differential expression tests.
package diffcmd

import (
	"github.com/js-arias/command"
	"github.com/js-arias/scdiff/cmd/scdiff/diffcmd/batch"
	"github.com/js-arias/scdiff/cmd/scdiff/diffcmd/run"
)

var Command = &command.Command{
	Usage: "diff <command> [<argument>...]",
	Short: "commands for differential expression tests",
}

func init() {
	Command.Add(batch.Command)
	Command.Add(run.Command)

	// help topics
	Command.Add(diffFilesGuide)
}

var diffFilesGuide = &command.Command{
	Usage: "diff-files",
	Short: "differential expression files",
	Long: `
Differential expression files are used in scdiff to store the results of the
expression test between the two cell groups of a project. The files are
created by the commands 'scdiff diff run' and 'scdiff diff batch'.

A differential expression file is a tab-delimited file with the following
columns:

	-gene  the gene identifier
	-diff  the observed expression difference of the gene, as the mean
	       expression of the first group minus the mean of the second
	       group, in log scale
	-z     the score of the difference: the observed difference divided
	       by the spread of the differences obtained after shuffling the
	       group labels of the cells
	-p     the two-tailed probability of the score under a standard
	       normal distribution
	-padj  the probability corrected for multiple testing with the
	       Benjamini-Hochberg procedure
	-cz    the corrected score: the score that corresponds to the
	       corrected probability, with the sign of the original score

A gene is reported as differentially expressed when the absolute value of the
corrected score is greater than the significance threshold (by default 1.96,
that is, a 95% level). Genes with a negative corrected score are up-regulated
on the second group.

Here is an example file:

	# differential expression
	gene	diff	z	p	padj	cz
	Dppa5	5.872341	6.293102	0.000000000311318	0.000000080942680	5.365031
	Pou5f1	6.027645	6.410244	0.000000000145384	0.000000056700224	5.427841
	Thy1	-4.893022	-5.851529	0.000000004873210	0.000000844679737	-4.921189
	Actb	0.103511	0.512022	0.608570311240217	1.000000000000000	0.000000
	`,
}
