// Package redact masks secrets in raw tool output before it is printed or
// written to the result file.
//
// Detection uses regex heuristics for common secret shapes: API keys, JWTs,
// private key headers, AWS keys, bearer tokens, passwords in connection
// URLs and provider-specific tokens. For assignments only the value is
// masked so the report still shows which key leaked.
package redact
