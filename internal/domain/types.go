package domain

import "time"

// CFA exam levels
const (
	LevelI   = "I"
	LevelII  = "II"
	LevelIII = "III"
)

// Question difficulties
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Blog post statuses
const (
	PostDraft     = "draft"
	PostPublished = "published"
)

// Generation job kinds and statuses
const (
	JobKindBlog      = "blog"
	JobKindQuestions = "questions"

	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// Subscription plans and statuses
const (
	PlanFree     = "free"
	PlanPro      = "pro"
	PlanLifetime = "lifetime"

	SubscriptionNone     = "none"
	SubscriptionTrialing = "trialing"
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// ValidLevel reports whether level is one of the three exam levels
func ValidLevel(level string) bool {
	switch level {
	case LevelI, LevelII, LevelIII:
		return true
	}
	return false
}

// ValidPlan reports whether plan is a known subscription plan
func ValidPlan(plan string) bool {
	switch plan {
	case PlanFree, PlanPro, PlanLifetime:
		return true
	}
	return false
}

// ValidSubscriptionStatus reports whether status is a known subscription status
func ValidSubscriptionStatus(status string) bool {
	switch status {
	case SubscriptionNone, SubscriptionTrialing, SubscriptionActive, SubscriptionPastDue, SubscriptionCanceled:
		return true
	}
	return false
}

// ValidDifficulty reports whether d is a known difficulty
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Category groups blog posts
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FAQ is a question/answer pair appended to a blog post
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// BlogPost is a generated or hand-written article
type BlogPost struct {
	ID                 string     `json:"id"`
	CategoryID         string     `json:"category_id"`
	Title              string     `json:"title"`
	Slug               string     `json:"slug"`
	Excerpt            string     `json:"excerpt"`
	Content            string     `json:"content"`
	ContentHTML        string     `json:"content_html"`
	MetaDescription    string     `json:"meta_description"`
	Keywords           []string   `json:"keywords"`
	FAQ                []FAQ      `json:"faq,omitempty"`
	WordCount          int        `json:"word_count"`
	ReadingTimeMinutes int        `json:"reading_time_minutes"`
	Status             string     `json:"status"`
	SourceURL          string     `json:"source_url,omitempty"`
	GenerationJobID    string     `json:"generation_job_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
}

// GenerationJob tracks one run of a content pipeline
type GenerationJob struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	Input       string     `json:"input"`
	ResultID    string     `json:"result_id,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Question is a three-option multiple choice item
type Question struct {
	ID              string    `json:"id"`
	Level           string    `json:"level"`
	Topic           string    `json:"topic"`
	Subtopic        string    `json:"subtopic,omitempty"`
	Difficulty      string    `json:"difficulty"`
	Stem            string    `json:"question"`
	OptionA         string    `json:"option_a"`
	OptionB         string    `json:"option_b"`
	OptionC         string    `json:"option_c"`
	CorrectAnswer   string    `json:"correct_answer"`
	Explanation     string    `json:"explanation"`
	LOS             string    `json:"los,omitempty"`
	Sources         []string  `json:"sources,omitempty"`
	GenerationJobID string    `json:"generation_job_id,omitempty"`
	CreatedBy       string    `json:"created_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Attempt records one answer a user gave to a question
type Attempt struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	QuestionID string    `json:"question_id"`
	Selected   string    `json:"selected"`
	Correct    bool      `json:"correct"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile is a user's account and subscription state
type Profile struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	FullName           string     `json:"full_name,omitempty"`
	Plan               string     `json:"plan"`
	SubscriptionStatus string     `json:"subscription_status"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	PaymentCustomerID  string     `json:"payment_customer_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Chunk is one embedded piece of study material in the vector index
type Chunk struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Source     string            `json:"source"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Model      string            `json:"model"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ScoredChunk is a chunk returned by a similarity search
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// TopicProgress aggregates a user's attempts on one topic
type TopicProgress struct {
	Topic    string  `json:"topic"`
	Attempts int     `json:"attempts"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// Progress is the dashboard summary for a user
type Progress struct {
	TotalAttempts int             `json:"total_attempts"`
	TotalCorrect  int             `json:"total_correct"`
	Accuracy      float64         `json:"accuracy"`
	Topics        []TopicProgress `json:"topics"`
}
