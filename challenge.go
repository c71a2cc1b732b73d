package propwatch

import "strings"

// Classification is the verdict of the bot-challenge detector.
type Classification int

// Classification values.
const (
	ClassNormal Classification = iota
	ClassChallenge
)

// String returns a human-readable name for the classification.
func (c Classification) String() string {
	if c == ClassChallenge {
		return "challenge"
	}
	return "normal"
}

// DefaultEssentialFields are the extracted fields whose joint absence
// signals a blocked or interstitial page rather than a real listing.
var DefaultEssentialFields = []string{"price", "bedrooms", "headline", "locality"}

// DefaultChallengeIndicators are case-insensitive substrings whose
// presence in a response body signals an anti-bot interstitial.
var DefaultChallengeIndicators = []string{
	"please verify you are human",
	"captcha",
	"robot",
	"cloudflare",
	"access denied",
	"blocked",
	"rate limit",
	"too many requests",
	"suspicious activity",
}

// DefaultMissingFieldThreshold is how many essential fields must be
// absent before a page is classified as a challenge.
const DefaultMissingFieldThreshold = 3

// ChallengeDetector classifies a fetched page as a bot challenge or
// normal content.
//
// This is a heuristic, not a guarantee: a legitimately sparse listing
// can be misclassified as a challenge, and a challenge page that
// happens to contain enough matching text can slip through as normal.
// Both are accepted risks.
type ChallengeDetector struct {
	// EssentialFields are checked against the extracted data.
	EssentialFields []string

	// MissingFieldThreshold is the number of absent essential fields that
	// triggers a Challenge verdict on its own.
	MissingFieldThreshold int

	// Indicators are lowercase substrings checked against the raw body.
	Indicators []string
}

// NewChallengeDetector returns a detector with the default field set,
// threshold, and indicator phrases.
func NewChallengeDetector() *ChallengeDetector {
	return &ChallengeDetector{
		EssentialFields:       DefaultEssentialFields,
		MissingFieldThreshold: DefaultMissingFieldThreshold,
		Indicators:            DefaultChallengeIndicators,
	}
}

// Classify inspects the raw body and the extracted fields. Either
// sufficient missing essential fields or any indicator substring alone
// yields ClassChallenge.
func (d *ChallengeDetector) Classify(body string, fields map[string]any) Classification {
	missing := 0
	for _, f := range d.EssentialFields {
		if isAbsent(fields[f]) {
			missing++
		}
	}
	if missing >= d.MissingFieldThreshold {
		return ClassChallenge
	}

	lower := strings.ToLower(body)
	for _, ind := range d.Indicators {
		if strings.Contains(lower, ind) {
			return ClassChallenge
		}
	}

	return ClassNormal
}

// isAbsent reports whether an extracted value counts as missing.
func isAbsent(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case int:
		return t == 0
	case bool:
		return !t
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}
