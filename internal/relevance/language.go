package relevance

// Language codes returned by DetectLanguage.
const (
	LangChinese  = "zh"
	LangJapanese = "jp"
	LangEnglish  = "en"
)

// DetectLanguage makes a coarse guess from the scripts present in text: any
// CJK ideograph means Chinese, otherwise any kana means Japanese, otherwise
// English.
func DetectLanguage(text string) string {
	kana := false
	for _, r := range text {
		switch {
		case r >= 0x4E00 && r <= 0x9FFF:
			return LangChinese
		case r >= 0x3040 && r <= 0x30FF:
			kana = true
		}
	}
	if kana {
		return LangJapanese
	}
	return LangEnglish
}
