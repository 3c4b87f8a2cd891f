package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify lowercases s and replaces every whitespace run with "-"
// Slugify 转小写并把连续空白替换为 "-"
func Slugify(s string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(s), "-")
}

// Truncate keeps the first n runes of s and appends suffix when s was longer
// Truncate 超过 n 个字符时截断并追加 suffix
func Truncate(s string, n int, suffix string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + suffix
}

// MaskSecret hides everything but the first 3 and last 4 characters
// MaskSecret 仅保留前 3 位与后 4 位
func MaskSecret(s string) string {
	r := []rune(s)
	if len(r) <= 8 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:3]) + "..." + string(r[len(r)-4:])
}
