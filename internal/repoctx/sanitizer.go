package repoctx

import (
	"fmt"
	"regexp"
)

// SanitizationResult reports what the sanitizer changed in a piece of text.
type SanitizationResult struct {
	Text            string
	SecretsFound    int
	PatternsMatched []string
}

type secretPattern struct {
	re         *regexp.Regexp
	secretType string
}

// secretPatterns covers common API key formats, credential assignments and
// connection strings. Order matters for overlapping prefixes.
var secretPatterns = []secretPattern{
	{regexp.MustCompile(`sk-ant-[a-zA-Z0-9\-]{20,}`), "ANTHROPIC_KEY"},
	{regexp.MustCompile(`sk-proj-[a-zA-Z0-9\-]{20,}`), "OPENAI_PROJECT_KEY"},
	{regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`), "OPENAI_KEY"},
	{regexp.MustCompile(`xoxb-[a-zA-Z0-9\-]+`), "SLACK_BOT_TOKEN"},
	{regexp.MustCompile(`xoxp-[a-zA-Z0-9\-]+`), "SLACK_USER_TOKEN"},
	{regexp.MustCompile(`ghp_[a-zA-Z0-9]{36}`), "GITHUB_PAT"},
	{regexp.MustCompile(`github_pat_[a-zA-Z0-9_]{22,}`), "GITHUB_PAT_FINE"},
	{regexp.MustCompile(`gho_[a-zA-Z0-9]{36}`), "GITHUB_OAUTH"},
	{regexp.MustCompile(`glpat-[a-zA-Z0-9\-_]{20,}`), "GITLAB_PAT"},
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "AWS_ACCESS_KEY"},
	{regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`), "GOOGLE_API_KEY"},
	{regexp.MustCompile(`ya29\.[0-9A-Za-z\-_]+`), "GOOGLE_OAUTH_TOKEN"},
	{regexp.MustCompile(`sq0atp-[0-9A-Za-z\-_]{22}`), "SQUARE_ACCESS_TOKEN"},
	{regexp.MustCompile(`sq0csp-[0-9A-Za-z\-_]{43}`), "SQUARE_OAUTH_SECRET"},
	{regexp.MustCompile(`stripe[_-]?[a-z]+[_-]?[a-zA-Z0-9]{24,}`), "STRIPE_KEY"},
	{regexp.MustCompile(`rk_live_[0-9a-zA-Z]{24}`), "STRIPE_RESTRICTED_KEY"},
	{regexp.MustCompile(`pk_live_[0-9a-zA-Z]{24}`), "STRIPE_PUBLISHABLE_KEY"},
	{regexp.MustCompile(`whsec_[a-zA-Z0-9]{32,}`), "STRIPE_WEBHOOK_SECRET"},
	{regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-_.]+`), "BEARER_TOKEN"},
	{regexp.MustCompile(`(?i)(api[_-]?key|apikey|secret[_-]?key|auth[_-]?token|access[_-]?token|private[_-]?key|client[_-]?secret)\s*[=:]\s*["']?[a-zA-Z0-9\-_.]{16,}["']?`), "GENERIC_SECRET"},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*["']?[^\s"']{8,}["']?`), "PASSWORD"},
	{regexp.MustCompile(`(?i)(postgres|postgresql|mysql|mongodb|redis)://[^\s]+`), "DATABASE_URL"},
	{regexp.MustCompile(`eyJ[a-zA-Z0-9\-_]+\.eyJ[a-zA-Z0-9\-_]+\.[a-zA-Z0-9\-_]+`), "JWT_TOKEN"},
	{regexp.MustCompile(`-----BEGIN (RSA |EC |OPENSSH |DSA )?PRIVATE KEY-----`), "PRIVATE_KEY_HEADER"},
	{regexp.MustCompile(`(?i)(encryption[_-]?key|aes[_-]?key)\s*[=:]\s*["']?[a-fA-F0-9]{32,}["']?`), "ENCRYPTION_KEY"},
}

// dangerousFilePatterns match filenames that must never be loaded into
// context, regardless of content.
var dangerousFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.env($|\..*)`),
	regexp.MustCompile(`(?i)credentials\.json`),
	regexp.MustCompile(`(?i)service[_-]?account\.json`),
	regexp.MustCompile(`(?i).*\.pem$`),
	regexp.MustCompile(`(?i).*\.key$`),
	regexp.MustCompile(`(?i).*id_rsa.*`),
	regexp.MustCompile(`(?i).*id_ed25519.*`),
	regexp.MustCompile(`(?i)\.npmrc$`),
	regexp.MustCompile(`(?i)\.pypirc$`),
	regexp.MustCompile(`(?i)\.netrc$`),
	regexp.MustCompile(`(?i)\.htpasswd$`),
}

// SecretSanitizer redacts secrets from text before it reaches a model.
type SecretSanitizer struct{}

func NewSecretSanitizer() *SecretSanitizer {
	return &SecretSanitizer{}
}

// Sanitize replaces every recognized secret with a [REDACTED:TYPE] marker.
func (s *SecretSanitizer) Sanitize(text string) SanitizationResult {
	sanitized := text
	found := 0
	seen := make(map[string]bool)
	var matched []string

	for _, p := range secretPatterns {
		count := len(p.re.FindAllStringIndex(sanitized, -1))
		if count == 0 {
			continue
		}
		found += count
		if !seen[p.secretType] {
			seen[p.secretType] = true
			matched = append(matched, p.secretType)
		}
		sanitized = p.re.ReplaceAllString(sanitized, fmt.Sprintf("[REDACTED:%s]", p.secretType))
	}

	return SanitizationResult{
		Text:            sanitized,
		SecretsFound:    found,
		PatternsMatched: matched,
	}
}

// IsDangerousFile reports whether a filename looks like a credential store.
// Filename only, not the full path.
func (s *SecretSanitizer) IsDangerousFile(filename string) bool {
	for _, p := range dangerousFilePatterns {
		if p.MatchString(filename) {
			return true
		}
	}
	return false
}

// DetectedSecret is a single hit from ScanForSecrets.
type DetectedSecret struct {
	Match      string
	SecretType string
}

// ScanForSecrets finds secrets without replacing them. Long matches are
// truncated so they stay safe to print in warnings.
func (s *SecretSanitizer) ScanForSecrets(text string) []DetectedSecret {
	var found []DetectedSecret
	for _, p := range secretPatterns {
		for _, m := range p.re.FindAllString(text, -1) {
			if len(m) > 40 {
				m = m[:20] + "..." + m[len(m)-10:]
			}
			found = append(found, DetectedSecret{Match: m, SecretType: p.secretType})
		}
	}
	return found
}
