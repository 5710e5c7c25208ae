// Package title normalizes media titles for fuzzy matching between feed
// entries, catalog assets, and user-supplied patterns.
package title

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// romanNumeralRegex matches Roman numerals II-IX when preceded by a space.
// Standalone "I" and "X" are excluded to avoid false positives such as
// "I Robot" or "American History X", and matches at the start of the string
// are excluded too.
var romanNumeralRegex = regexp.MustCompile(`(?i) (ii|iii|iv|v|vi|vii|viii|ix)\b`)

var romanToArabic = map[string]string{
	"II": "2", "III": "3", "IV": "4", "V": "5",
	"VI": "6", "VII": "7", "VIII": "8", "IX": "9",
}

// releaseTagRegex strips the quality and source decorations that trackers
// append to episode names, e.g. "1080p", "WEB-DL", "x265", "[Group]".
var releaseTagRegex = regexp.MustCompile(`(?i)\b(2160p|1080p|720p|480p|360p|bluray|web[-.]?dl|webrip|hdtv|hdr|x26[45]|h\.?26[45]|hevc|aac|ac3|dts|10bit|remux|proper|repack)\b|\[[^\]]*\]|\([^)]*\)`)

// normalizeRomanNumerals converts Roman numerals II-IX to Arabic digits.
func normalizeRomanNumerals(s string) string {
	return romanNumeralRegex.ReplaceAllStringFunc(s, func(match string) string {
		roman := strings.TrimSpace(match)
		if arabic, ok := romanToArabic[strings.ToUpper(roman)]; ok {
			return " " + arabic
		}
		return match
	})
}

// Normalize prepares a title for matching. It lowercases, converts Roman
// numerals, removes accents and articles, and collapses punctuation and
// whitespace so that variant spellings of the same work compare equal.
func Normalize(title string) string {
	s := strings.ToLower(title)

	// Roman numerals first, before accent stripping can touch the text.
	s = normalizeRomanNumerals(s)
	s = removeAccents(s)

	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, ".", " ")
	s = strings.ReplaceAll(s, "_", " ")

	// Subtitle handling: strip leading articles from each colon part.
	parts := strings.Split(s, ":")
	for i, part := range parts {
		parts[i] = stripLeadingArticle(strings.TrimSpace(part))
	}
	s = strings.Join(parts, " ")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// StripReleaseTags removes quality, source, and group decorations from a
// release name so only the underlying title remains.
func StripReleaseTags(name string) string {
	s := releaseTagRegex.ReplaceAllString(name, " ")
	s = strings.ReplaceAll(s, ".", " ")
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

func stripLeadingArticle(s string) string {
	s = strings.TrimSpace(s)
	for _, art := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(s, art) {
			return strings.TrimPrefix(s, art)
		}
	}
	return s
}

// SanitizeFilename replaces characters that are unsafe in file names with
// underscores and trims the result to a reasonable length. Dot runs are
// flattened so a name lifted from daemon output cannot spell a parent
// directory.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", "__")
	}
	s = strings.Trim(s, "._")
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		s = "untitled"
	}
	return s
}
