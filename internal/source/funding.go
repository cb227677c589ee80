package source

import (
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/model"
)

var (
	roundPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(种子轮|天使轮|天使\+|Pre-A\+?轮|A\+?轮|B\+?轮|C\+?轮|D轮|E轮|F轮|IPO|并购)`),
		regexp.MustCompile(`(?i)((?:天使|种子|Pre-A|A|B|C|D|E|F)轮\+?)`),
	}
	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+(?:\.\d+)?\s*[万亿]?\s*(?:人民币|美元|美金|元|CNY|USD))`),
		regexp.MustCompile(`((?:数|近|超)[十百千]?[万亿](?:人民币|美元|美金|元)?)`),
	}
	companyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`([\p{Han}A-Za-z0-9][\p{Han}A-Za-z0-9 .]{1,20}?)(?:公司|科技|智能|网络)?\s*(?:完成|宣布|获得)`),
		regexp.MustCompile(`(?:投资|融资)([\p{Han}]{2,10})(?:的|完成)`),
	}
)

const companyFallbackLimit = 50

// ExtractFunding builds a funding event from a news entry. Round, amount and
// company are pulled from the text with heuristics; when no company name is
// recognised the title stands in so distinct entries keep distinct keys.
func ExtractFunding(title, description, link, platform string, published *time.Time) model.FundingEvent {
	text := title + " " + description

	e := model.FundingEvent{
		Round:       firstMatch(roundPatterns, text),
		Amount:      firstMatch(amountPatterns, text),
		Company:     firstMatch(companyPatterns, text),
		Description: truncateRunes(description, feedDescriptionLimit),
		SourceURL:   link,
		Platform:    platform,
	}
	if e.Company == "" {
		e.Company = truncateRunes(title, companyFallbackLimit)
	}
	if published != nil {
		e.Date = published.Format(model.DateLayout)
	}
	return e
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := common.FindSubmatch(re, text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
