// Package langdetect decides the response language for a user message.
// The assistant supports English and Arabic; anything containing Arabic
// script is answered in Arabic.
package langdetect

// Arabic script blocks: base Arabic, Arabic Supplement, Arabic Extended-A.
var arabicRanges = [][2]rune{
	{0x0600, 0x06FF},
	{0x0750, 0x077F},
	{0x08A0, 0x08FF},
}

// ContainsArabic reports whether text contains any Arabic-script rune.
func ContainsArabic(text string) bool {
	for _, r := range text {
		for _, rng := range arabicRanges {
			if r >= rng[0] && r <= rng[1] {
				return true
			}
		}
	}
	return false
}

// Language returns the i18n language tag for text: "ar" when Arabic
// script is present, "en" otherwise.
func Language(text string) string {
	if ContainsArabic(text) {
		return "ar"
	}
	return "en"
}
