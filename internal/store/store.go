package store

import (
	"context"
	"time"

	"github.com/GoGangH/logit-admin/internal/model"
	"github.com/google/uuid"
)

// DefaultPageSize applies when a list request carries no pageSize.
const DefaultPageSize = 20

// MaxPageSize caps pageSize on every paged listing.
const MaxPageSize = 100

// Page is the envelope shared by all offset-paginated listings.
type Page[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// NewPage builds the envelope. An empty result still reports one page so
// clients always render page 1 of 1.
func NewPage[T any](data []T, total int64, page, pageSize int) Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 1
	if total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Page[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// ClampPaging normalizes page/pageSize to their allowed ranges.
func ClampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// UserQuery selects and pages the user listing.
type UserQuery struct {
	Page     int
	PageSize int
	Search   string
	IsActive *bool
}

// ProjectQuery selects and pages the project listing.
type ProjectQuery struct {
	Page     int
	PageSize int
	Search   string
}

// UserSummary is a user row with its activity counts.
type UserSummary struct {
	model.User
	ProjectCount int64 `json:"project_count"`
	ChatCount    int64 `json:"chat_count"`
}

// ProjectSummary is a project row joined with its owner identity.
type ProjectSummary struct {
	model.Project
	UserEmail     *string `json:"user_email,omitempty"`
	UserName      *string `json:"user_name,omitempty"`
	QuestionCount int64   `json:"question_count"`
}

// ProjectDetail is a project with its owner and ordered live questions.
type ProjectDetail struct {
	model.Project
	UserEmail *string          `json:"user_email,omitempty"`
	UserName  *string          `json:"user_name,omitempty"`
	Questions []model.Question `json:"questions"`
}

// ProjectUpdate carries the PATCHable project fields. Nil means unchanged.
type ProjectUpdate struct {
	Company       *string    `json:"company,omitempty"`
	JobPosition   *string    `json:"job_position,omitempty"`
	RecruitNotice *string    `json:"recruit_notice,omitempty"`
	CompanyTalent *string    `json:"company_talent,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
}

// QuestionSummary is a question the user has chatted on, with its project
// identity and chat activity.
type QuestionSummary struct {
	model.Question
	ProjectCompany  string     `json:"project_company"`
	ProjectPosition string     `json:"project_position"`
	ChatCount       int64      `json:"chat_count"`
	LastChatAt      *time.Time `json:"last_chat_at,omitempty"`
}

// ChatPage is a cursor-paged slice of chat messages, newest first.
type ChatPage struct {
	Data       []model.Chat `json:"data"`
	NextCursor *string      `json:"nextCursor"`
	HasMore    bool         `json:"hasMore"`
}

// SeriesPoint is one day of a 30-day time series.
type SeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// RoleSeriesPoint splits one day's chat volume by author role.
type RoleSeriesPoint struct {
	Date      string `json:"date"`
	User      int64  `json:"user"`
	Assistant int64  `json:"assistant"`
}

// RelationalStats aggregates the relational side of the dashboard.
type RelationalStats struct {
	TotalUsers       int64             `json:"totalUsers"`
	ActiveUsers      int64             `json:"activeUsers"`
	NewUsersToday    int64             `json:"newUsersToday"`
	NewUsersThisWeek int64             `json:"newUsersThisWeek"`
	ActiveProjects   int64             `json:"activeProjects"`
	DeletedProjects  int64             `json:"deletedProjects"`
	TotalChats       int64             `json:"totalChats"`
	UserGrowth       []SeriesPoint     `json:"userGrowth"`
	ChatUsage        []RoleSeriesPoint `json:"chatUsage"`
}

// AdminStore is the relational surface of the admin API.
type AdminStore interface {
	ListUsers(ctx context.Context, q UserQuery) (Page[UserSummary], error)
	GetUser(ctx context.Context, id uuid.UUID) (*UserSummary, error)
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error)
	UsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error

	ListProjects(ctx context.Context, q ProjectQuery) (Page[ProjectSummary], error)
	GetProject(ctx context.Context, id uuid.UUID) (*ProjectDetail, error)
	UpdateProject(ctx context.Context, id uuid.UUID, update ProjectUpdate) (*model.Project, error)
	SoftDeleteProject(ctx context.Context, id uuid.UUID) error
	ListUserProjects(ctx context.Context, userID uuid.UUID, page, pageSize int) (Page[ProjectSummary], error)
	DeleteProjects(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error)

	ListChatMessages(ctx context.Context, userID, questionID uuid.UUID, cursor *uuid.UUID, limit int) (ChatPage, error)
	ListQuestionSummaries(ctx context.Context, userID uuid.UUID, page, pageSize int) (Page[QuestionSummary], error)

	ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]model.Subscription, error)
	UpsertSubscription(ctx context.Context, sub model.Subscription) (*model.Subscription, error)

	Stats(ctx context.Context, now time.Time) (*RelationalStats, error)
}
