package reply

import (
	"math/rand"
	"strings"
	"sync"

	"tastyreply/reviews-service/internal/app/reviews/entity"
)

// RatingBand - грубая группа оценки для выбора шаблона
type RatingBand string

const (
	BandHigh   RatingBand = "high"
	BandMedium RatingBand = "medium"
	BandLow    RatingBand = "low"
)

func BandForRating(rating int) RatingBand {
	switch {
	case rating >= 4:
		return BandHigh
	case rating == 3:
		return BandMedium
	default:
		return BandLow
	}
}

const (
	customerPlaceholder = "{{customer}}"
	DefaultCustomerName = "Valued Customer"
)

// Chooser выбирает один из n вариантов шаблона
type Chooser interface {
	Choose(n int) int
}

type ChooserFunc func(n int) int

func (f ChooserFunc) Choose(n int) int { return f(n) }

// FirstVariant всегда берёт первый шаблон
var FirstVariant = ChooserFunc(func(int) int { return 0 })

type seededChooser struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSeededChooser - случайный выбор с фиксированным seed.
// rand.Rand не потокобезопасен, поэтому под мьютексом.
func NewSeededChooser(seed int64) Chooser {
	return &seededChooser{rnd: rand.New(rand.NewSource(seed))}
}

func (c *seededChooser) Choose(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rnd.Intn(n)
}

var fallbackTemplates = map[entity.Tone]map[RatingBand][]string{
	entity.ToneProfessional: {
		BandHigh: {
			"Thank you for your excellent review, {{customer}}. We're delighted you had a positive experience and look forward to serving you again soon.",
			"Thank you, {{customer}}, for taking the time to share such kind words. We truly appreciate your support and hope to welcome you back soon.",
		},
		BandMedium: {
			"Thank you for your feedback, {{customer}}. We appreciate your honest review and will use it to improve our service.",
		},
		BandLow: {
			"Dear {{customer}}, we sincerely apologize for not meeting your expectations. Please contact us directly so we can address your concerns.",
		},
	},
	entity.ToneFriendly: {
		BandHigh: {
			"Hi {{customer}}! Thanks so much for the amazing review! We're thrilled you enjoyed your visit and can't wait to see you again! 😊",
			"Hey {{customer}}, thank you for the lovely words! It made the whole team smile, and we hope to see you again very soon!",
		},
		BandMedium: {
			"Hi {{customer}}, thanks for taking the time to share your thoughts! We'd love the chance to turn your 3-star experience into a 5-star one next time!",
		},
		BandLow: {
			"Hi {{customer}}, we're really sorry to hear about your experience. This isn't like us at all and we want to make it right.",
		},
	},
	entity.ToneApologetic: {
		BandHigh: {
			"{{customer}}, we're grateful for your kind words and wonderful rating. Your satisfaction means everything to us.",
		},
		BandMedium: {
			"{{customer}}, we appreciate your feedback and apologize for any aspects that didn't meet your expectations. We're committed to doing better.",
		},
		BandLow: {
			"{{customer}}, we are deeply sorry for your disappointing experience. This falls far short of our standards, and we'd like to make amends.",
		},
	},
	entity.ToneEnthusiastic: {
		BandHigh: {
			"WOW! Thank you so much, {{customer}}! Your amazing review made our day! We're absolutely thrilled you loved your experience! 🌟",
		},
		BandMedium: {
			"Hey {{customer}}! Thanks for the honest feedback! We're pumped to have the chance to wow you next time - challenge accepted! 💪",
		},
		BandLow: {
			"{{customer}}, thank you for bringing this to our attention! We're sorry we let you down and we're incredibly motivated to fix it.",
		},
	},
}

// Catalog - статическая таблица запасных ответов {тон × группа оценки}.
// Таблица полная: для любой допустимой пары есть хотя бы один шаблон.
type Catalog struct {
	templates map[entity.Tone]map[RatingBand][]string
	chooser   Chooser
}

func NewCatalog(chooser Chooser) *Catalog {
	if chooser == nil {
		chooser = FirstVariant
	}
	return &Catalog{
		templates: fallbackTemplates,
		chooser:   chooser,
	}
}

// Lookup возвращает шаблон с подставленным именем клиента.
// Неизвестный тон трактуется как professional.
func (c *Catalog) Lookup(tone entity.Tone, band RatingBand, customerName string) string {
	variants := c.variants(tone, band)

	idx := 0
	if len(variants) > 1 {
		idx = c.chooser.Choose(len(variants))
		if idx < 0 || idx >= len(variants) {
			idx = 0
		}
	}

	name := strings.TrimSpace(customerName)
	if name == "" {
		name = DefaultCustomerName
	}

	return strings.ReplaceAll(variants[idx], customerPlaceholder, name)
}

// Variants - количество шаблонов в ячейке
func (c *Catalog) Variants(tone entity.Tone, band RatingBand) int {
	return len(c.variants(tone, band))
}

func (c *Catalog) variants(tone entity.Tone, band RatingBand) []string {
	byBand, ok := c.templates[tone]
	if !ok {
		byBand = c.templates[entity.ToneProfessional]
	}
	variants, ok := byBand[band]
	if !ok {
		variants = byBand[BandLow]
	}
	return variants
}
