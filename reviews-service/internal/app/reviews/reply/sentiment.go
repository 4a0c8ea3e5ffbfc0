package reply

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"tastyreply/reviews-service/internal/app/reviews/entity"
)

const (
	MaxKeywords      = 5
	minKeywordLength = 4
)

var (
	positiveWords = []string{"good", "nice", "great", "excellent", "love", "delicious", "friendly"}
	negativeWords = []string{"bad", "poor", "terrible", "awful", "hate", "cold", "slow", "rude"}

	stopWords = map[string]struct{}{}

	punctuation = regexp.MustCompile(`[^\w\s]`)
)

func init() {
	for _, w := range strings.Fields("the a an and or but in on at to for of with by from was were been be have has had do does did will would could should may might must can is are am") {
		stopWords[w] = struct{}{}
	}
}

// Classify определяет тональность отзыва.
// Оценка решает всё, кроме 3 звёзд: там сравниваются попадания слов из списков.
func Classify(rating int, text string) entity.Sentiment {
	switch BandForRating(rating) {
	case BandHigh:
		return entity.SentimentPositive
	case BandLow:
		return entity.SentimentNegative
	}

	lower := strings.ToLower(text)
	positive := countHits(lower, positiveWords)
	negative := countHits(lower, negativeWords)

	switch {
	case positive > negative:
		return entity.SentimentPositive
	case negative > positive:
		return entity.SentimentNegative
	default:
		return entity.SentimentNeutral
	}
}

// countHits - сколько слов из списка встречается в тексте (подстрокой, каждое не больше раза)
func countHits(text string, words []string) int {
	hits := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			hits++
		}
	}
	return hits
}

type keywordStat struct {
	word  string
	count int
	first int
}

// ExtractKeywords возвращает до MaxKeywords самых частых слов.
// При равной частоте раньше идёт слово, встретившееся первым.
func ExtractKeywords(text string) []string {
	cleaned := punctuation.ReplaceAllString(strings.ToLower(text), "")

	stats := make(map[string]*keywordStat)
	order := make([]*keywordStat, 0)
	for i, token := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(token) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		if s, ok := stats[token]; ok {
			s.count++
			continue
		}
		s := &keywordStat{word: token, count: 1, first: i}
		stats[token] = s
		order = append(order, s)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	if len(order) > MaxKeywords {
		order = order[:MaxKeywords]
	}

	keywords := make([]string, 0, len(order))
	for _, s := range order {
		keywords = append(keywords, s.word)
	}
	return keywords
}
