// Package preflight provides readiness checks for the tools and filesystem
// paths a batch depends on.
//
// The extract command runs RunAll before touching any input so a missing
// binary or unwritable output directory is reported once, up front. The check
// command displays the same results as a table.
package preflight
