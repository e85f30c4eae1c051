// Package spam flags comment content that should be held for moderation.
// Matching is deliberately aggressive: a false positive only delays a
// comment until an administrator approves it.
package spam

import (
	"fmt"
	"regexp"
	"strings"
)

var blockedKeywords = []string{
	// Pharmaceutical
	"viagra", "cialis", "pharmacy", "prescription", "pills", "medication", "drug",

	// Gambling
	"casino", "poker", "betting", "gambling", "slots", "jackpot", "lottery",

	// Crypto and finance scams
	"crypto", "bitcoin", "ethereum", "nft", "blockchain", "forex",
	"investment opportunity", "make money fast", "free money", "double your",
	"passive income", "get rich",

	// Adult content
	"xxx", "porn", "adult content", "18+", "nsfw",

	// Generic spam phrases
	"click here", "act now", "limited time", "order now", "buy now", "free trial",
	"no obligation", "winner", "congratulations", "you have been selected",
	"work from home", "earn extra",

	// SEO spam
	"backlink", "seo service", "rank higher", "google ranking",

	// Malware and phishing
	"download now", "install now", "update required", "verify your account",
	"confirm your identity",
}

type pattern struct {
	reason string
	re     *regexp.Regexp
}

var blockedPatterns = []pattern{
	{"Contains URL", regexp.MustCompile(`(?i)https?://\S+`)},
	{"Contains email address", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{"Contains phone number", regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)},
	{"Contains excessive capitals", regexp.MustCompile(`\b[A-Z]{4,}\b.*\b[A-Z]{4,}\b.*\b[A-Z]{4,}\b`)},
	{"Contains crypto wallet address", regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`)},
	{"Contains crypto wallet address", regexp.MustCompile(`\b[13][a-km-zA-HJ-NP-Z1-9]{25,34}\b`)},
}

// repeatRun is the run length at which a repeated character is flagged
const repeatRun = 5

// IsSpam reports whether content matches any keyword or pattern
func IsSpam(content string) bool {
	lower := strings.ToLower(content)
	for _, kw := range blockedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, p := range blockedPatterns {
		if p.re.MatchString(content) {
			return true
		}
	}
	return hasRepeatedRun(content, repeatRun)
}

// Reasons lists every rule that matched; it is empty iff IsSpam is false
func Reasons(content string) []string {
	var reasons []string
	lower := strings.ToLower(content)

	for _, kw := range blockedKeywords {
		if strings.Contains(lower, kw) {
			reasons = append(reasons, fmt.Sprintf("Contains blocked keyword: %q", kw))
		}
	}

	seen := make(map[string]bool)
	for _, p := range blockedPatterns {
		if !seen[p.reason] && p.re.MatchString(content) {
			seen[p.reason] = true
			reasons = append(reasons, p.reason)
		}
	}

	if hasRepeatedRun(content, repeatRun) {
		reasons = append(reasons, "Contains repeated characters")
	}
	return reasons
}

// hasRepeatedRun reports whether any rune occurs n or more times in a row.
// RE2 has no backreferences, so this replaces the (.)\1{4,} pattern.
// Like the dot in that pattern, a run never includes a newline.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for i, r := range s {
		if r == '\n' {
			run = 0
			prev = r
			continue
		}
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}
