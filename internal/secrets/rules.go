package secrets

// assignmentValue matches a value token of at least 4 non-whitespace,
// non-bracket, non-quote characters after ':' or '='. Quoted example
// values and bare mentions of a key name never match it.
const assignmentValue = `\s*[:=]\s*[^\s{}\[\]#'"]{4,}`

// DefaultRules returns the default set of secret detection rules.
//
// Two kinds of rule: assignment heuristics, which require a
// credential-like key followed by a real value token, and
// self-identifying token formats (GitHub tokens, PEM headers) that are
// secrets wherever they appear.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "password-assignment",
			Description: "Password assignment",
			Pattern:     `(?i)(?:^|[;\s"'])(?:password|passwd|pwd)["']?` + assignmentValue,
			Severity:    "high",
		},
		{
			ID:          "secret-assignment",
			Description: "Secret assignment",
			Pattern:     `(?i)(?:^|[;\s"'])secret["']?` + assignmentValue,
			Severity:    "high",
		},
		{
			ID:          "api-key-assignment",
			Description: "API key assignment",
			Pattern:     `(?i)(?:^|[;\s"'])api[_-]?key["']?` + assignmentValue,
			Severity:    "high",
		},
		{
			ID:          "private-key-assignment",
			Description: "Private key assignment",
			Pattern:     `(?i)(?:^|[;\s"'])private[_-]?key["']?` + assignmentValue,
			Severity:    "high",
		},
		{
			ID:          "pem-private-key",
			Description: "PEM private key header",
			Pattern:     `-----BEGIN (?:RSA|EC|DSA|OPENSSH|PGP) PRIVATE KEY`,
			Severity:    "high",
		},
		{
			ID:          "github-token",
			Description: "GitHub personal access token",
			Pattern:     `ghp_[A-Za-z0-9]{36}`,
			Severity:    "high",
		},
		{
			ID:          "github-fine-grained",
			Description: "GitHub fine-grained personal access token",
			Pattern:     `github_pat_[A-Za-z0-9_]{22,}`,
			Severity:    "high",
		},
	}
}
