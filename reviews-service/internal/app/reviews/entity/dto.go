package entity

import "time"

const (
	DefaultBusinessName = "our restaurant"
	DefaultBusinessType = "restaurant"
)

// BusinessInfo - контекст бизнеса для промпта
type BusinessInfo struct {
	BusinessName string `json:"businessName" validate:"max=200"`
	BusinessType string `json:"businessType" validate:"max=100"`
}

// WithDefaults подставляет значения по умолчанию для пустых полей
func (b BusinessInfo) WithDefaults() BusinessInfo {
	if b.BusinessName == "" {
		b.BusinessName = DefaultBusinessName
	}
	if b.BusinessType == "" {
		b.BusinessType = DefaultBusinessType
	}
	return b
}

// ImportReviewItem - один отзыв во входящем пакете синхронизации
type ImportReviewItem struct {
	Platform         Platform   `json:"platform" validate:"required,oneof=google facebook yelp tripadvisor"`
	PlatformReviewID string     `json:"platformReviewId" validate:"required,max=512"`
	BusinessID       string     `json:"businessId" validate:"max=512"`
	CustomerName     string     `json:"customerName" validate:"max=200"`
	Rating           int        `json:"rating" validate:"required,min=1,max=5"`
	Text             string     `json:"text" validate:"max=5000"`
	ReviewDate       *time.Time `json:"reviewDate"`
}

type ImportReviewsRequest struct {
	Reviews []ImportReviewItem `json:"reviews" validate:"required,min=1,max=200,dive"`
}

type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ReplyRequest - ответ оператора на отзыв
type ReplyRequest struct {
	Reply string `json:"reply" validate:"required,max=4096"`
}

// GenerateReplyRequest - генерация по тексту отзыва без сохранённой записи
type GenerateReplyRequest struct {
	ReviewText   string `json:"reviewText" validate:"required,max=5000"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	CustomerName string `json:"customerName" validate:"required,max=200"`
	BusinessType string `json:"businessType" validate:"max=100"`
	BusinessName string `json:"businessName" validate:"max=200"`
	Tone         string `json:"tone" validate:"omitempty,oneof=professional friendly apologetic enthusiastic"`
	AllTones     bool   `json:"allTones"`
}

type GenerateForReviewRequest struct {
	BusinessInfo BusinessInfo `json:"businessInfo"`
}

type SaveReplyRequest struct {
	SelectedReply string `json:"selectedReply" validate:"max=4096"`
	Edited        bool   `json:"edited"`
	FinalReply    string `json:"finalReply" validate:"required,max=4096"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// DataResponse - стандартный ответ об успехе
type DataResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ReviewListResponse struct {
	Success bool     `json:"success"`
	Data    []Review `json:"data"`
	Total   int      `json:"total"`
	Source  string   `json:"source,omitempty"`
	Message string   `json:"message,omitempty"`
}

type GeneratedReply struct {
	Reply       string          `json:"reply"`
	Tone        Tone            `json:"tone"`
	Source      CandidateSource `json:"source"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

type RepliesResponse struct {
	Success   bool             `json:"success"`
	Replies   []ReplyCandidate `json:"replies"`
	AIReplyID string           `json:"aiReplyId,omitempty"`
}

type UserResponse struct {
	Success bool  `json:"success"`
	User    *User `json:"user"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}
