package reply

import (
	"fmt"
	"strings"

	"tastyreply/reviews-service/internal/app/reviews/entity"
)

const (
	promptDefaultCustomer = "a valued customer"
	promptEmptyText       = "(no written comment)"
)

// contextualInstruction выбирает установку по оценке
func contextualInstruction(rating int) string {
	switch BandForRating(rating) {
	case BandHigh:
		return "Thank them for the positive feedback and invite them back."
	case BandMedium:
		return "Acknowledge their mixed experience and express desire to improve."
	default:
		return "Apologize sincerely and offer to make things right."
	}
}

// BuildPrompt собирает пользовательское сообщение для completion API.
// Чистая функция: пустые поля заменяются текстовыми значениями по умолчанию.
func BuildPrompt(review entity.Review, info entity.BusinessInfo, tone entity.Tone) string {
	info = info.WithDefaults()

	customer := strings.TrimSpace(review.CustomerName)
	if customer == "" {
		customer = promptDefaultCustomer
	}

	text := strings.TrimSpace(review.Text)
	if text == "" {
		text = promptEmptyText
	}

	if tone == "" {
		tone = entity.ToneProfessional
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s response to this %d-star review from %s:\n", tone, review.Rating, customer)
	fmt.Fprintf(&b, "\"%s\"\n\n", text)
	fmt.Fprintf(&b, "Business name: %s\n", info.BusinessName)
	fmt.Fprintf(&b, "Instructions: %s\n", contextualInstruction(review.Rating))
	return b.String()
}

// SystemInstruction - системное сообщение для конкретного тона
func SystemInstruction(tone entity.Tone, businessType string) string {
	if businessType == "" {
		businessType = entity.DefaultBusinessType
	}
	return fmt.Sprintf(
		"You are a helpful assistant that writes %s responses to customer reviews for a %s. "+
			"Keep responses concise (2-3 sentences), genuine, and address specific points mentioned in the review.",
		tone, businessType,
	)
}
