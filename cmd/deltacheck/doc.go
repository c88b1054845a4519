// Deltacheck runs code checks over a Python project and reports only the
// findings that land on lines changed relative to a target branch.
//
// On the target branch itself every file is checked in full. Results are
// printed and written to a result file in the project.
//
// Usage:
//
//	deltacheck run                        # check changed lines against master
//	deltacheck run --target main -C ./svc # another branch and project
//	deltacheck changes --json             # show the resolved change-sets
//	pylint app | deltacheck filter        # keep output on changed lines
//	deltacheck hook install               # run before every push
package main
