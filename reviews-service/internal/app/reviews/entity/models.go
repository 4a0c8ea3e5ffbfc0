package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Platform - площадка, с которой пришёл отзыв
type Platform string

const (
	PlatformGoogle      Platform = "google"
	PlatformFacebook    Platform = "facebook"
	PlatformYelp        Platform = "yelp"
	PlatformTripAdvisor Platform = "tripadvisor"
)

var platforms = []Platform{PlatformGoogle, PlatformFacebook, PlatformYelp, PlatformTripAdvisor}

func (p Platform) Valid() bool {
	for _, known := range platforms {
		if p == known {
			return true
		}
	}
	return false
}

// Tone - стиль сгенерированного ответа
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
	ToneApologetic   Tone = "apologetic"
	ToneEnthusiastic Tone = "enthusiastic"
)

// Порядок важен: в нём же возвращаются варианты ответа
var tones = []Tone{ToneProfessional, ToneFriendly, ToneApologetic, ToneEnthusiastic}

func Tones() []Tone {
	return append([]Tone(nil), tones...)
}

func ParseTone(s string) (Tone, bool) {
	for _, t := range tones {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// CandidateSource - откуда взят текст варианта
type CandidateSource string

const (
	SourceAI       CandidateSource = "ai"
	SourceFallback CandidateSource = "fallback"
)

// Review - отзыв клиента, принадлежит одному пользователю сервиса.
// Тройка (platform, platform_review_id, user_id) уникальна.
type Review struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID           string             `json:"userId" bson:"user_id"`
	Platform         Platform           `json:"platform" bson:"platform"`
	PlatformReviewID string             `json:"platformReviewId" bson:"platform_review_id"`
	BusinessID       string             `json:"businessId,omitempty" bson:"business_id,omitempty"`
	CustomerName     string             `json:"customerName" bson:"customer_name"`
	Rating           int                `json:"rating" bson:"rating"`
	Text             string             `json:"text" bson:"text"`
	ReviewDate       time.Time          `json:"date" bson:"review_date"`
	Replied          bool               `json:"replied" bson:"replied"`
	Reply            *Reply             `json:"reply,omitempty" bson:"reply,omitempty"`
	Sentiment        Sentiment          `json:"sentiment,omitempty" bson:"sentiment,omitempty"`
	Keywords         []string           `json:"keywords,omitempty" bson:"keywords,omitempty"`
	SyncedAt         time.Time          `json:"syncedAt" bson:"synced_at"`
	CreatedAt        time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updated_at"`
}

type Reply struct {
	Text     string    `json:"text" bson:"text"`
	Date     time.Time `json:"timestamp" bson:"date"`
	PostedBy string    `json:"author" bson:"posted_by"`
}

type ReplyCandidate struct {
	Text        string          `json:"text" bson:"text"`
	Tone        Tone            `json:"tone" bson:"tone"`
	Source      CandidateSource `json:"source" bson:"source"`
	GeneratedAt time.Time       `json:"generatedAt" bson:"generated_at"`
}

// GenerationSession - сохранённая попытка генерации для отзыва.
// Не больше одной на пару (review_id, user_id): повторная генерация перезаписывает.
type GenerationSession struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReviewID         string             `json:"reviewId" bson:"review_id"`
	UserID           string             `json:"userId" bson:"user_id"`
	GeneratedReplies []ReplyCandidate   `json:"generatedReplies" bson:"generated_replies"`
	SelectedReply    string             `json:"selectedReply,omitempty" bson:"selected_reply,omitempty"`
	Edited           bool               `json:"edited" bson:"edited"`
	FinalReply       string             `json:"finalReply,omitempty" bson:"final_reply,omitempty"`
	Posted           bool               `json:"posted" bson:"posted"`
	PostedAt         *time.Time         `json:"postedAt,omitempty" bson:"posted_at,omitempty"`
	CreatedAt        time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updated_at"`
}

// User - владелец отзывов, входит через Google
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	GoogleID     string             `json:"-" bson:"google_id"`
	Email        string             `json:"email" bson:"email"`
	Name         string             `json:"name" bson:"name"`
	Picture      string             `json:"picture,omitempty" bson:"picture,omitempty"`
	GoogleTokens *OAuthTokens       `json:"-" bson:"google_tokens,omitempty"`
	LastLogin    time.Time          `json:"lastLogin" bson:"last_login"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
}

// GoogleProfile - данные userinfo после входа
type GoogleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type OAuthTokens struct {
	AccessToken  string    `bson:"access_token"`
	RefreshToken string    `bson:"refresh_token,omitempty"`
	TokenType    string    `bson:"token_type,omitempty"`
	Expiry       time.Time `bson:"expiry,omitempty"`
}

type Analytics struct {
	TotalReviews       int               `json:"totalReviews"`
	RepliedReviews     int               `json:"repliedReviews"`
	ResponseRate       float64           `json:"responseRate"`
	AverageRating      float64           `json:"averageRating"`
	PlatformBreakdown  map[Platform]int  `json:"platformBreakdown"`
	RatingDistribution map[string]int    `json:"ratingDistribution"`
	SentimentBreakdown map[Sentiment]int `json:"sentimentBreakdown"`
}

const (
	EventReviewSynced  = "REVIEW_SYNCED"
	EventReviewReplied = "REVIEW_REPLIED"
)

type ReviewEvent struct {
	EventType string    `json:"event_type"`
	ReviewID  string    `json:"review_id"`
	UserID    string    `json:"user_id"`
	Platform  Platform  `json:"platform"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}
