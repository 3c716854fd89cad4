package promptFilter

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

// DefaultMaxLength is the largest accepted message, counted in characters.
const DefaultMaxLength = 2000

const (
	ReasonTooLong    = "too_long"
	ReasonEmpty      = "empty"
	ReasonSuspicious = "suspicious_pattern"
)

// FilterResult is the verdict for one message. MatchedPattern is a stable
// diagnostic tag for logs and must not be returned to clients.
type FilterResult struct {
	IsClean        bool   `json:"isClean"`
	Reason         string `json:"reason,omitempty"`
	MatchedPattern string `json:"matchedPattern,omitempty"`
}

// Detector is one named predicate of the blocklist.
type Detector struct {
	Name  string
	Match func(message string) bool
}

// RegexDetector builds a Detector from a pattern. It panics on an invalid
// pattern, like regexp.MustCompile.
func RegexDetector(name, pattern string) Detector {
	re := regexp.MustCompile(pattern)
	return Detector{Name: name, Match: re.MatchString}
}

// Filter is an ordered blocklist classifier. False negatives are expected.
type Filter struct {
	maxLength int
	detectors []Detector
}

// NewFilter returns a Filter with the given detectors, evaluated in order.
// A non-positive maxLength uses DefaultMaxLength.
func NewFilter(maxLength int, detectors ...Detector) *Filter {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Filter{maxLength: maxLength, detectors: detectors}
}

// NewDefaultFilter returns a Filter with DefaultDetectors.
func NewDefaultFilter() *Filter {
	return NewFilter(DefaultMaxLength, DefaultDetectors()...)
}

// Filter classifies message. The first failing check wins.
func (f *Filter) Filter(message string) FilterResult {
	if utf8.RuneCountInString(message) > f.maxLength {
		return FilterResult{IsClean: false, Reason: ReasonTooLong}
	}
	if strings.TrimSpace(message) == "" {
		return FilterResult{IsClean: false, Reason: ReasonEmpty}
	}
	for _, d := range f.detectors {
		if d.Match(message) {
			return FilterResult{IsClean: false, Reason: ReasonSuspicious, MatchedPattern: d.Name}
		}
	}
	return FilterResult{IsClean: true}
}

// Detectors returns the configured detector names in evaluation order.
func (f *Filter) Detectors() []string {
	names := make([]string, 0, len(f.detectors))
	for _, d := range f.detectors {
		names = append(names, d.Name)
	}
	return names
}

var (
	zeroWidthRe  = regexp.MustCompile("[\u200B\u200C\u200D\uFEFF]")
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Sanitize strips zero-width characters, collapses whitespace runs and trims.
func Sanitize(message string) string {
	s := zeroWidthRe.ReplaceAllString(message, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Check adapts Filter to the types package error taxonomy.
func (f *Filter) Check(message string) error {
	res := f.Filter(message)
	if res.IsClean {
		return nil
	}
	switch res.Reason {
	case ReasonTooLong:
		ce := types.NewChatError(types.KindInvalidRequest, "error_message_too_long", nil)
		ce.Details = map[string]any{"maxLength": f.maxLength}
		return ce
	case ReasonEmpty:
		return types.NewChatError(types.KindInvalidRequest, "error_message_empty", nil)
	default:
		return types.NewChatError(types.KindContentFiltered, "error_content_filtered", &PatternError{Pattern: res.MatchedPattern})
	}
}

// PatternError carries the matched detector name for server-side logs.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string { return "matched injection pattern " + e.Pattern }
