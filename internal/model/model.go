package model

import (
	"time"

	"github.com/google/uuid"
)

// ChatRole identifies who authored a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// SubscriptionPlan is the billing tier of a subscription.
type SubscriptionPlan string

const (
	PlanFreeTrial SubscriptionPlan = "free_trial"
	PlanBasic     SubscriptionPlan = "basic"
	PlanPro       SubscriptionPlan = "pro"
)

// SubscriptionTypeMCP is the subscription type issued by the admin MCP flow.
const SubscriptionTypeMCP = "mcp"

// User is an account in the relational store. Field names follow the
// product API, which serializes snake_case.
type User struct {
	ID              uuid.UUID `json:"id"                          gorm:"primaryKey;type:uuid"`
	Email           string    `json:"email"                       gorm:"not null;uniqueIndex"`
	FullName        *string   `json:"full_name,omitempty"`
	IsActive        bool      `json:"is_active"                   gorm:"not null;default:true"`
	OAuthProvider   *string   `json:"oauth_provider,omitempty"`
	ProfileImageURL *string   `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"                  gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

// Project is a job application workspace owned by a user. A non-nil
// DeletedAt soft-deletes the project: it disappears from default listings
// but its questions and chats stay until a cascade delete removes them.
type Project struct {
	ID            uuid.UUID  `json:"id"                       gorm:"primaryKey;type:uuid"`
	UserID        uuid.UUID  `json:"user_id"                  gorm:"not null;type:uuid;index"`
	Company       string     `json:"company"                  gorm:"not null"`
	JobPosition   string     `json:"job_position"             gorm:"not null"`
	RecruitNotice string     `json:"recruit_notice"`
	CompanyTalent *string    `json:"company_talent,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"               gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

func (Project) TableName() string { return "projects" }

// Question is one application question within a project, ordered by Order.
type Question struct {
	ID        uuid.UUID  `json:"id"                   gorm:"primaryKey;type:uuid"`
	ProjectID uuid.UUID  `json:"project_id"           gorm:"not null;type:uuid;index"`
	UserID    uuid.UUID  `json:"user_id"              gorm:"not null;type:uuid;index"`
	Order     int        `json:"order"                gorm:"column:order;not null;default:0"`
	Question  string     `json:"question"             gorm:"not null"`
	MaxLength *int       `json:"max_length,omitempty"`
	Answer    *string    `json:"answer,omitempty"`
	CreatedAt time.Time  `json:"created_at"           gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (Question) TableName() string { return "questions" }

// Chat is an immutable chat message tied to a question. IDs are UUIDv7 so
// that id ordering matches creation ordering, which the cursor pager relies on.
type Chat struct {
	ID            uuid.UUID `json:"id"             gorm:"primaryKey;type:uuid"`
	QuestionID    uuid.UUID `json:"question_id"    gorm:"not null;type:uuid;index"`
	ProjectID     uuid.UUID `json:"project_id"     gorm:"not null;type:uuid;index"`
	UserID        uuid.UUID `json:"user_id"        gorm:"not null;type:uuid;index"`
	Role          ChatRole  `json:"role"           gorm:"not null"`
	Content       string    `json:"content"        gorm:"not null"`
	ExperienceIDs []string  `json:"experience_ids" gorm:"type:jsonb;serializer:json"`
	IsDraft       bool      `json:"is_draft"       gorm:"not null;default:false"`
	IsSelected    bool      `json:"is_selected"    gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at"     gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Chat) TableName() string { return "chats" }

// Subscription is an entitlement row; at most one per (user_id, type),
// enforced by upsert-on-conflict.
type Subscription struct {
	ID        uuid.UUID        `json:"id"                   gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID        `json:"user_id"              gorm:"not null;type:uuid;uniqueIndex:idx_subscriptions_user_type"`
	Type      string           `json:"type"                 gorm:"not null;uniqueIndex:idx_subscriptions_user_type"`
	IsActive  bool             `json:"is_active"            gorm:"not null;default:true"`
	Plan      SubscriptionPlan `json:"plan"                 gorm:"not null;default:'free_trial'"`
	Token     *string          `json:"token,omitempty"`
	StartedAt *time.Time       `json:"started_at,omitempty"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"           gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
}

func (Subscription) TableName() string { return "subscriptions" }
