// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package main

import "github.com/js-arias/command"

func init() {
	app.Add(countsFilesGuide)
	app.Add(groupsFilesGuide)
	app.Add(modelFilesGuide)
	app.Add(projectsGuide)
}

var projectsGuide = &command.Command{
	Usage: "projects",
	Short: "about project files",
	Long: `
Scdiff requires several files to read and process single cell expression data.
To reduce the burden of keeping track of many files, a single project file is
used to hold the reference of all files required in the analysis. This guide
explains the structure of the file, but most of the time, the best and most
secure way to edit or view this file is by using scdiff commands.

A project file is a tab-delimited file with the following fields:

	- dataset  for the kind of file
	- path     for the path of the file

Here is an example file:

	# scdiff project files
	dataset	path
	counts	counts.tab
	groups	groups.tab
	models-grouped	models-grouped.tab
	models-pooled	models-pooled.tab
	diff-grouped	diff-grouped.tab

The valid file types are:

- Count matrices. Defined by the dataset keyword "counts". This file contains
  the read counts of each gene on each cell in the form of a tab-delimited
  file. The recommended way to add a count matrix is by using the command
  'scdiff counts add'.
- Cell groups. Defined by the dataset keyword "groups". This file contains
  the group assigned to each cell in the form of a tab-delimited file. The
  recommended way to set the groups is by using the commands
  'scdiff groups set' or 'scdiff groups add'.
- Error models. Defined by the dataset keywords "models-grouped" (for models
  fitted with the cell groups) and "models-pooled" (for models fitted with
  all cells pooled). These files contain the fitted error model of each cell
  in the form of a tab-delimited file, and are created by the command
  'scdiff model fit'.
- Size factors. Defined by the dataset keyword "factors". This file contains
  the size factors of each cell under different estimation methods, and is
  created by the command 'scdiff norm factors'.
- Expression magnitudes. Defined by the dataset keyword "express". This file
  contains the normalized expression magnitude of each gene on each cell,
  and is created by the command 'scdiff norm express'.
- Differential expression results. Defined by the dataset keywords
  "diff-grouped" and "diff-pooled" (for tests using the error models fitted
  with, and without, the cell groups), and "diff-batch" (for a test using a
  batch confounded with the groups). These files are created by the commands
  'scdiff diff run' and 'scdiff diff batch'.
	`,
}

var countsFilesGuide = &command.Command{
	Usage: "counts-files",
	Short: "about count matrix files",
	Long: `
A count matrix stores the number of reads of each gene on each cell of a
single cell RNA-seq experiment. In an scdiff project, the count matrix is
stored in a tab-delimited file.

The first column of the file must be the field "gene" with the gene
identifier. Any other field is read as a cell, with the field name as the
cell identifier, and the values as the number of reads of each gene on that
cell. Read counts must be non-negative integers.

Here is an example file:

	# single cell read counts
	gene	ESC.1	ESC.2	MEF.1	MEF.2
	Dppa5	432	602	5	8
	Pou5f1	401	529	0	0
	Thy1	2	0	359	314
	Actb	385	481	417	366

Gene and cell identifiers must be unique and non-empty.

Usually a count matrix is imported from the output of an alignment pipeline
with the command 'scdiff counts add', and then reduced to the cells and genes
with enough reads with the command 'scdiff counts filter'.
	`,
}

var groupsFilesGuide = &command.Command{
	Usage: "groups-files",
	Short: "about cell group files",
	Long: `
A cell group file assigns each cell of an experiment to a biological group,
for example a cell type or a treatment. In an scdiff project, the group
assignment is stored in a tab-delimited file.

The file must contain the following fields:

	- cell   the cell identifier
	- group  the name of the group of the cell

Here is an example file:

	# cell groups
	cell	group
	ESC.1	ESC
	ESC.2	ESC
	MEF.1	MEF
	MEF.2	MEF

A cell can only be assigned to a single group. The order in which the groups
appear in the file is kept, as the differential expression results are
reported as the expression of the first group with respect to the second.

When the cell identifiers carry the group as a name prefix (as in the example
above), the fastest way to build the file is the command 'scdiff groups set',
which assigns each cell to the first matching prefix. The command
'scdiff groups add' imports explicit assignments from a file.
	`,
}

var modelFilesGuide = &command.Command{
	Usage: "model-files",
	Short: "about error model files",
	Long: `
An error model file stores the fitted error model of each cell of an scdiff
project. The models are created by the command 'scdiff model fit' and stored
as a tab-delimited file.

The file contains the following fields:

	- cell       the cell identifier
	- group      the group used for the fit
	             (empty if the fit pooled all the cells)
	- slope      the slope of the fit,
	             relating observed counts to the expected expression
	- intercept  the intercept of the fit, in log scale;
	             the exponential of the intercept is the size factor
	             of the cell
	- dropout    the fraction of the reference genes
	             without reads on the cell
	- sd         the standard deviation of the residuals of the fit

Here is an example file:

	# single cell error models
	# cells: 4
	cell	group	slope	intercept	dropout	sd
	ESC.1	ESC	1.026781	0.288896	0.041667	0.451020
	ESC.2	ESC	0.981102	-0.319980	0.083333	0.500125
	MEF.1	MEF	1.005713	0.030977	0.062500	0.480441
	MEF.2	MEF	0.966215	-0.613522	0.104167	0.513625

A cell in which the fit failed is stored with "NaN" values; such cells are
ignored by the commands that use the models.

The expression magnitude file created by 'scdiff norm express' has the same
layout as a count matrix (see 'scdiff help counts-files'), but the values are
the normalized expression magnitudes of each gene, as non-negative real
numbers.
	`,
}
