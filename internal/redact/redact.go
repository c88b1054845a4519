package redact

import "regexp"

const placeholder = "[REDACTED]"

// rule is a secret heuristic. When value is non-zero only that capture
// group is masked, so the key name stays readable in reports.
type rule struct {
	re    *regexp.Regexp
	value int
}

var rules = []rule{
	// Generic API keys
	{regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`), 2},
	// AWS access key IDs
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), 0},
	// AWS secret access keys
	{regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`), 2},
	// Secrets, tokens and passwords in quoted assignments, including
	// python constants such as SECRET_KEY = "..."
	{regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)[a-z_]*\s*[:=]\s*["']([^"']{8,})["']`), 2},
	// Passwords embedded in connection URLs
	{regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.-]*://[^:/\s@]+:([^@\s]+)@`), 1},
	// Bearer tokens
	{regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`), 0},
	// JWTs
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`), 0},
	// Private key blocks, with their base64 body and footer when present
	{regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|DSA\s+|OPENSSH\s+|ENCRYPTED\s+)?PRIVATE KEY-----` +
		`(?:\r?\n[ \t]*(?:\d+[ \t]+)?[A-Za-z0-9+/=]{16,})*` +
		`(?:\r?\n[ \t]*(?:\d+[ \t]+)?-----END\s+(RSA\s+|EC\s+|DSA\s+|OPENSSH\s+|ENCRYPTED\s+)?PRIVATE KEY-----)?`), 0},
	// GitHub tokens
	{regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`), 0},
	// Slack tokens
	{regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`), 0},
	// Anthropic API keys
	{regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`), 0},
	// OpenAI API keys
	{regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`), 0},
	// Long hex strings assigned to key/secret/token names
	{regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?([0-9a-f]{32,})["']?`), 2},
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	for _, r := range rules {
		text = r.apply(text)
	}
	return text
}

func (r rule) apply(text string) string {
	if r.value == 0 {
		return r.re.ReplaceAllLiteralString(text, placeholder)
	}
	matches := r.re.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text
	}
	out := make([]byte, 0, len(text))
	last := 0
	for _, m := range matches {
		start, end := m[2*r.value], m[2*r.value+1]
		if start < 0 {
			continue
		}
		out = append(out, text[last:start]...)
		out = append(out, placeholder...)
		last = end
	}
	out = append(out, text[last:]...)
	return string(out)
}
