package textutil

import (
	"regexp"
	"strings"
)

// anything that is not a unicode letter/number, underscore, dash or dot
var unsafeFilenameRegex = regexp.MustCompile(`[^\p{L}\p{N}_.\-]`)

// SafeFilename replaces every character that is not a word character, dash
// or dot with an underscore. Each rune is replaced by exactly one underscore.
func SafeFilename(name string) string {
	return unsafeFilenameRegex.ReplaceAllString(name, "_")
}

// LegacyNames lists names an item may have been stored under by older
// releases, most recent first. Potions used to be called "Potent Potion".
func LegacyNames(name string) []string {
	if !strings.Contains(name, "Potion") || strings.Contains(name, "Potent Potion") {
		return nil
	}
	return []string{strings.ReplaceAll(name, "Potion", "Potent Potion")}
}
