package reply

import (
	"testing"

	"tastyreply/reviews-service/internal/app/reviews/entity"

	"github.com/stretchr/testify/assert"
)

func TestClassify_ByRating(t *testing.T) {
	text := "terrible awful rude but great"

	assert.Equal(t, entity.SentimentNegative, Classify(1, text))
	assert.Equal(t, entity.SentimentNegative, Classify(2, "great great"))
	assert.Equal(t, entity.SentimentPositive, Classify(4, text))
	assert.Equal(t, entity.SentimentPositive, Classify(5, text))
}

func TestClassify_MediumLexical(t *testing.T) {
	tests := []struct {
		name string
		text string
		want entity.Sentiment
	}{
		{"more positive", "Good food and friendly staff, but slow", entity.SentimentPositive},
		{"more negative", "Nice place, but the soup was COLD and the waiter RUDE", entity.SentimentNegative},
		{"tie", "Great dessert, terrible coffee", entity.SentimentNeutral},
		{"no hits", "It was fine", entity.SentimentNeutral},
		{"empty", "", entity.SentimentNeutral},
		{"substring match", "goodness, badly", entity.SentimentNeutral},
		{"word counted once", "good good good, bad, slow", entity.SentimentNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(3, tt.text))
		})
	}
}

func TestExtractKeywords_FrequencyFirst(t *testing.T) {
	keywords := ExtractKeywords("The pasta was amazing and the pasta was fresh")

	assert.Equal(t, []string{"pasta", "amazing", "fresh"}, keywords)
}

func TestExtractKeywords_TieBreakByFirstOccurrence(t *testing.T) {
	keywords := ExtractKeywords("zebra apple mango zebra apple kiwi banana cherry")

	assert.Equal(t, []string{"zebra", "apple", "mango", "kiwi", "banana"}, keywords)
}

func TestExtractKeywords_FiltersNoise(t *testing.T) {
	keywords := ExtractKeywords("Would you? Should we! It's the BEST, best food.")

	assert.Equal(t, []string{"best", "food"}, keywords)
}

func TestExtractKeywords_Empty(t *testing.T) {
	assert.Empty(t, ExtractKeywords(""))
	assert.Empty(t, ExtractKeywords("a an the, of!"))
}

func TestExtractKeywords_Limit(t *testing.T) {
	keywords := ExtractKeywords("alpha bravo charlie delta echoes foxtrot golfing hotel")

	assert.Len(t, keywords, MaxKeywords)
	assert.Equal(t, "alpha", keywords[0])
}
