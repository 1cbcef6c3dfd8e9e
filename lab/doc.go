// Package lab runs the tutorial's sections against a scratch directory and
// collects what each snippet measured.
//
// Sections are independent: each one writes the files it reads, so any
// subset can run in any order. Timing lines go to the lab's output writer as
// they happen; the Report gathers the same numbers for a summary table.
package lab
