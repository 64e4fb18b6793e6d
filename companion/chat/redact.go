package chat

import "regexp"

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_\-]+`),
	regexp.MustCompile(`(?i)x-api-key[:=]\s*\S+`),
	regexp.MustCompile(`(?i)api[_-]?key[:=]\s*\S+`),
	regexp.MustCompile(`(?i)bearer\s+\S+`),
}

// Redact masks credential-shaped substrings before text reaches a log.
func Redact(s string) string {
	for _, p := range secretPatterns {
		s = p.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}

// MaskCredential keeps just enough of a token to tell keys apart.
func MaskCredential(credential string) string {
	if len(credential) <= 8 {
		return "****"
	}
	return credential[:4] + "****" + credential[len(credential)-4:]
}
