// Package output formats deltacheck reports for display or machine
// consumption.
//
// Four formats are supported:
//   - text: section banners with plain dashed tables (default)
//   - json: full structured JSON report
//   - markdown: PR-comment-friendly with a summary table and collapsible sections
//   - sarif: SARIF v2.1.0, one result per changed line with a finding
//
// [WriteReport] renders once and writes to both the terminal and the result
// file.
package output
