// Package secrets provides best-effort secret-leakage scanning over a
// repository file tree.
//
// The scan restricts itself to configuration-like files and flags lines
// that look like an assignment of a credential-like key (key, then ':'
// or '=', then a value token). It deliberately does not flag files that
// merely mention a forbidden keyword, so documentation and the scanner's
// own pattern sources do not trip it. This is a heuristic: obfuscated
// secrets slip through and occasional false positives happen; neither is
// a bug.
package secrets
