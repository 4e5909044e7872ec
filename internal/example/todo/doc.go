// Package todo is a small application built on strictflux: a TodoStore that
// owns the list, a StatsStore that waits for it and derives counts, and a
// TodoActions creator set declared in CUE.
//
// It backs the CLI run command and the harness golden scenarios.
package todo
