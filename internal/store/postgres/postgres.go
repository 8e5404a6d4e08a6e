package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/GoGangH/logit-admin/internal/config"
	"github.com/GoGangH/logit-admin/internal/model"
	"github.com/GoGangH/logit-admin/internal/store"
	"github.com/google/uuid"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Store implements store.AdminStore using GORM + PostgreSQL.
type Store struct {
	db *gorm.DB
}

// New connects to the environment's database.
func New(cfg *config.Config, env config.Env) (*Store, error) {
	url := cfg.DatabaseURL(env)
	if url == "" {
		return nil, fmt.Errorf("postgres: no database URL configured for %s", env)
	}
	db, err := gorm.Open(pgdriver.Open(url), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to get underlying db: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	return NewWithDB(db), nil
}

// NewWithDB wraps an already-open GORM handle. Tests use this with an
// in-memory sqlite database.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --- Users ---

func (s *Store) ListUsers(ctx context.Context, q store.UserQuery) (store.Page[store.UserSummary], error) {
	page, pageSize := store.ClampPaging(q.Page, q.PageSize)

	filtered := func() *gorm.DB {
		db := s.db.WithContext(ctx).Model(&model.User{})
		if search := strings.TrimSpace(q.Search); search != "" {
			if uuidPattern.MatchString(search) {
				uid, _ := uuid.Parse(search)
				db = db.Where("id = ?", uid)
			} else {
				pattern := "%" + strings.ToLower(search) + "%"
				db = db.Where("LOWER(email) LIKE ? OR LOWER(COALESCE(full_name, '')) LIKE ?", pattern, pattern)
			}
		}
		if q.IsActive != nil {
			db = db.Where("is_active = ?", *q.IsActive)
		}
		return db
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return store.Page[store.UserSummary]{}, fmt.Errorf("count users: %w", err)
	}

	var users []model.User
	if err := filtered().
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error; err != nil {
		return store.Page[store.UserSummary]{}, fmt.Errorf("list users: %w", err)
	}

	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	projectCounts, err := s.countByUser(ctx, &model.Project{}, ids, "deleted_at IS NULL")
	if err != nil {
		return store.Page[store.UserSummary]{}, err
	}
	chatCounts, err := s.countByUser(ctx, &model.Chat{}, ids, "")
	if err != nil {
		return store.Page[store.UserSummary]{}, err
	}

	summaries := make([]store.UserSummary, len(users))
	for i, u := range users {
		summaries[i] = store.UserSummary{
			User:         u,
			ProjectCount: projectCounts[u.ID],
			ChatCount:    chatCounts[u.ID],
		}
	}
	return store.NewPage(summaries, total, page, pageSize), nil
}

// countByUser groups rows of the given model by user_id for the listed users.
func (s *Store) countByUser(ctx context.Context, m any, ids []uuid.UUID, extraWhere string) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []struct {
		UserID uuid.UUID `gorm:"column:user_id"`
		N      int64     `gorm:"column:n"`
	}
	db := s.db.WithContext(ctx).Model(m).
		Select("user_id, COUNT(*) AS n").
		Where("user_id IN ?", ids)
	if extraWhere != "" {
		db = db.Where(extraWhere)
	}
	if err := db.Group("user_id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count by user: %w", err)
	}
	for _, r := range rows {
		counts[r.UserID] = r.N
	}
	return counts, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*store.UserSummary, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &store.NotFoundError{Resource: "user", ID: id.String()}
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	var projects, chats int64
	if err := s.db.WithContext(ctx).Model(&model.Project{}).
		Where("user_id = ? AND deleted_at IS NULL", id).Count(&projects).Error; err != nil {
		return nil, fmt.Errorf("count user projects: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.Chat{}).
		Where("user_id = ?", id).Count(&chats).Error; err != nil {
		return nil, fmt.Errorf("count user chats: %w", err)
	}
	return &store.UserSummary{User: user, ProjectCount: projects, ChatCount: chats}, nil
}

func (s *Store) SetUserActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error) {
	result := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return nil, fmt.Errorf("update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, &store.NotFoundError{Resource: "user", ID: id.String()}
	}
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return &user, nil
}

func (s *Store) UsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error) {
	users := make(map[uuid.UUID]model.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	var rows []model.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("users by ids: %w", err)
	}
	for _, u := range rows {
		users[u.ID] = u
	}
	return users, nil
}

// DeleteUser removes the user and everything they own in one transaction.
// Children go first so the cascade never leaves orphans behind on failure.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &store.NotFoundError{Resource: "user", ID: id.String()}
			}
			return fmt.Errorf("load user: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Chat{}).Error; err != nil {
			return fmt.Errorf("delete chats: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Project{}).Error; err != nil {
			return fmt.Errorf("delete projects: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Subscription{}).Error; err != nil {
			return fmt.Errorf("delete subscriptions: %w", err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}

// --- Projects ---

func (s *Store) ListProjects(ctx context.Context, q store.ProjectQuery) (store.Page[store.ProjectSummary], error) {
	page, pageSize := store.ClampPaging(q.Page, q.PageSize)

	filtered := func() *gorm.DB {
		db := s.db.WithContext(ctx).Model(&model.Project{}).
			Where("projects.deleted_at IS NULL")
		if search := strings.TrimSpace(q.Search); search != "" {
			if uuidPattern.MatchString(search) {
				uid, _ := uuid.Parse(search)
				db = db.Where("projects.id = ? OR projects.user_id = ?", uid, uid)
			} else {
				pattern := "%" + strings.ToLower(search) + "%"
				db = db.Joins("LEFT JOIN users ON users.id = projects.user_id").
					Where("LOWER(projects.company) LIKE ? OR LOWER(projects.job_position) LIKE ? OR LOWER(users.email) LIKE ?",
						pattern, pattern, pattern)
			}
		}
		return db
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return store.Page[store.ProjectSummary]{}, fmt.Errorf("count projects: %w", err)
	}

	var projects []model.Project
	if err := filtered().
		Order("projects.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&projects).Error; err != nil {
		return store.Page[store.ProjectSummary]{}, fmt.Errorf("list projects: %w", err)
	}

	summaries, err := s.projectSummaries(ctx, projects)
	if err != nil {
		return store.Page[store.ProjectSummary]{}, err
	}
	return store.NewPage(summaries, total, page, pageSize), nil
}

// projectSummaries joins in owner identity and live question counts.
func (s *Store) projectSummaries(ctx context.Context, projects []model.Project) ([]store.ProjectSummary, error) {
	if len(projects) == 0 {
		return []store.ProjectSummary{}, nil
	}
	ownerIDs := make([]uuid.UUID, 0, len(projects))
	projectIDs := make([]uuid.UUID, 0, len(projects))
	for _, p := range projects {
		ownerIDs = append(ownerIDs, p.UserID)
		projectIDs = append(projectIDs, p.ID)
	}
	owners, err := s.UsersByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ProjectID uuid.UUID `gorm:"column:project_id"`
		N         int64     `gorm:"column:n"`
	}
	if err := s.db.WithContext(ctx).Model(&model.Question{}).
		Select("project_id, COUNT(*) AS n").
		Where("project_id IN ? AND deleted_at IS NULL", projectIDs).
		Group("project_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	questionCounts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		questionCounts[r.ProjectID] = r.N
	}

	summaries := make([]store.ProjectSummary, len(projects))
	for i, p := range projects {
		summary := store.ProjectSummary{Project: p, QuestionCount: questionCounts[p.ID]}
		if owner, ok := owners[p.UserID]; ok {
			email := owner.Email
			summary.UserEmail = &email
			summary.UserName = owner.FullName
		}
		summaries[i] = summary
	}
	return summaries, nil
}

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*store.ProjectDetail, error) {
	var project model.Project
	err := s.db.WithContext(ctx).
		First(&project, "id = ? AND deleted_at IS NULL", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &store.NotFoundError{Resource: "project", ID: id.String()}
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	var questions []model.Question
	if err := s.db.WithContext(ctx).
		Where("project_id = ? AND deleted_at IS NULL", id).
		Order(`"order" ASC, created_at ASC`).
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("list project questions: %w", err)
	}

	detail := &store.ProjectDetail{Project: project, Questions: questions}
	var owner model.User
	if err := s.db.WithContext(ctx).First(&owner, "id = ?", project.UserID).Error; err == nil {
		email := owner.Email
		detail.UserEmail = &email
		detail.UserName = owner.FullName
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load project owner: %w", err)
	}
	return detail, nil
}

func (s *Store) UpdateProject(ctx context.Context, id uuid.UUID, update store.ProjectUpdate) (*model.Project, error) {
	updates := map[string]any{}
	if update.Company != nil {
		updates["company"] = *update.Company
	}
	if update.JobPosition != nil {
		updates["job_position"] = *update.JobPosition
	}
	if update.RecruitNotice != nil {
		updates["recruit_notice"] = *update.RecruitNotice
	}
	if update.CompanyTalent != nil {
		updates["company_talent"] = *update.CompanyTalent
	}
	if update.DueDate != nil {
		updates["due_date"] = *update.DueDate
	}
	if len(updates) == 0 {
		return nil, &store.ValidationError{Field: "body", Message: "no updatable fields provided"}
	}
	updates["updated_at"] = time.Now().UTC()

	result := s.db.WithContext(ctx).Model(&model.Project{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, &store.NotFoundError{Resource: "project", ID: id.String()}
	}
	var project model.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("reload project: %w", err)
	}
	return &project, nil
}

func (s *Store) SoftDeleteProject(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&model.Project{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now().UTC())
	if result.Error != nil {
		return fmt.Errorf("soft delete project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &store.NotFoundError{Resource: "project", ID: id.String()}
	}
	return nil
}

func (s *Store) ListUserProjects(ctx context.Context, userID uuid.UUID, page, pageSize int) (store.Page[store.ProjectSummary], error) {
	page, pageSize = store.ClampPaging(page, pageSize)

	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&model.Project{}).
			Where("user_id = ? AND deleted_at IS NULL", userID)
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return store.Page[store.ProjectSummary]{}, fmt.Errorf("count user projects: %w", err)
	}
	var projects []model.Project
	if err := base().
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&projects).Error; err != nil {
		return store.Page[store.ProjectSummary]{}, fmt.Errorf("list user projects: %w", err)
	}
	summaries, err := s.projectSummaries(ctx, projects)
	if err != nil {
		return store.Page[store.ProjectSummary]{}, err
	}
	return store.NewPage(summaries, total, page, pageSize), nil
}

// DeleteProjects hard-deletes the given projects (all of the user's projects
// when ids is nil) together with their questions and chats. Targets are
// always scoped to the owning user.
func (s *Store) DeleteProjects(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		db := tx.Model(&model.Project{}).Where("user_id = ?", userID)
		if ids != nil {
			db = db.Where("id IN ?", ids)
		}
		var targets []uuid.UUID
		if err := db.Pluck("id", &targets).Error; err != nil {
			return fmt.Errorf("resolve projects: %w", err)
		}
		if len(targets) == 0 {
			return nil
		}
		if err := tx.Where("project_id IN ?", targets).Delete(&model.Chat{}).Error; err != nil {
			return fmt.Errorf("delete chats: %w", err)
		}
		if err := tx.Where("project_id IN ?", targets).Delete(&model.Question{}).Error; err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		if err := tx.Where("id IN ?", targets).Delete(&model.Project{}).Error; err != nil {
			return fmt.Errorf("delete projects: %w", err)
		}
		deleted = int64(len(targets))
		return nil
	})
	return deleted, err
}

// --- Chats & questions ---

// ListChatMessages pages a question's chat history newest-first. Chat IDs
// are UUIDv7, so "id < cursor" walks strictly backwards in time.
func (s *Store) ListChatMessages(ctx context.Context, userID, questionID uuid.UUID, cursor *uuid.UUID, limit int) (store.ChatPage, error) {
	if limit < 1 {
		limit = 30
	}
	if limit > store.MaxPageSize {
		limit = store.MaxPageSize
	}
	db := s.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID)
	if cursor != nil {
		db = db.Where("id < ?", *cursor)
	}
	var chats []model.Chat
	if err := db.Order("id DESC").Limit(limit + 1).Find(&chats).Error; err != nil {
		return store.ChatPage{}, fmt.Errorf("list chats: %w", err)
	}
	hasMore := len(chats) > limit
	if hasMore {
		chats = chats[:limit]
	}
	page := store.ChatPage{Data: chats, HasMore: hasMore}
	if page.Data == nil {
		page.Data = []model.Chat{}
	}
	if hasMore {
		next := chats[len(chats)-1].ID.String()
		page.NextCursor = &next
	}
	return page, nil
}

func (s *Store) ListQuestionSummaries(ctx context.Context, userID uuid.UUID, page, pageSize int) (store.Page[store.QuestionSummary], error) {
	page, pageSize = store.ClampPaging(page, pageSize)

	var questions []model.Question
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("created_at DESC").
		Find(&questions).Error; err != nil {
		return store.Page[store.QuestionSummary]{}, fmt.Errorf("list questions: %w", err)
	}

	var chatRows []model.Chat
	if err := s.db.WithContext(ctx).
		Select("question_id", "created_at").
		Where("user_id = ?", userID).
		Find(&chatRows).Error; err != nil {
		return store.Page[store.QuestionSummary]{}, fmt.Errorf("list question chats: %w", err)
	}
	chatCounts := make(map[uuid.UUID]int64)
	lastChat := make(map[uuid.UUID]time.Time)
	for _, c := range chatRows {
		chatCounts[c.QuestionID]++
		if c.CreatedAt.After(lastChat[c.QuestionID]) {
			lastChat[c.QuestionID] = c.CreatedAt
		}
	}

	projectIDs := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		projectIDs = append(projectIDs, q.ProjectID)
	}
	projects := make(map[uuid.UUID]model.Project)
	if len(projectIDs) > 0 {
		var rows []model.Project
		if err := s.db.WithContext(ctx).Where("id IN ?", projectIDs).Find(&rows).Error; err != nil {
			return store.Page[store.QuestionSummary]{}, fmt.Errorf("load question projects: %w", err)
		}
		for _, p := range rows {
			projects[p.ID] = p
		}
	}

	// Only questions the user has actually chatted on make the list.
	all := make([]store.QuestionSummary, 0, len(questions))
	for _, q := range questions {
		count := chatCounts[q.ID]
		if count == 0 {
			continue
		}
		summary := store.QuestionSummary{Question: q, ChatCount: count}
		if last, ok := lastChat[q.ID]; ok {
			t := last
			summary.LastChatAt = &t
		}
		if p, ok := projects[q.ProjectID]; ok {
			summary.ProjectCompany = p.Company
			summary.ProjectPosition = p.JobPosition
		}
		all = append(all, summary)
	}

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return store.NewPage(all[start:end], total, page, pageSize), nil
}

// --- Subscriptions ---

func (s *Store) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]model.Subscription, error) {
	var subs []model.Subscription
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if subs == nil {
		subs = []model.Subscription{}
	}
	return subs, nil
}

func (s *Store) UpsertSubscription(ctx context.Context, sub model.Subscription) (*model.Subscription, error) {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	now := time.Now().UTC()
	sub.UpdatedAt = &now

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_active", "plan", "token", "started_at", "expires_at", "updated_at",
		}),
	}).Create(&sub).Error
	if err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}

	// Reload: on conflict the surviving row keeps its original id.
	var saved model.Subscription
	if err := s.db.WithContext(ctx).
		First(&saved, "user_id = ? AND type = ?", sub.UserID, sub.Type).Error; err != nil {
		return nil, fmt.Errorf("reload subscription: %w", err)
	}
	return &saved, nil
}

// --- Stats ---

func (s *Store) Stats(ctx context.Context, now time.Time) (*store.RelationalStats, error) {
	stats := &store.RelationalStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if err := db.Model(&model.User{}).Where("is_active = ?", true).Count(&stats.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}

	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if err := db.Model(&model.User{}).Where("created_at >= ?", dayStart).Count(&stats.NewUsersToday).Error; err != nil {
		return nil, fmt.Errorf("count new users today: %w", err)
	}
	if err := db.Model(&model.User{}).Where("created_at >= ?", dayStart.AddDate(0, 0, -6)).Count(&stats.NewUsersThisWeek).Error; err != nil {
		return nil, fmt.Errorf("count new users this week: %w", err)
	}

	if err := db.Model(&model.Project{}).Where("deleted_at IS NULL").Count(&stats.ActiveProjects).Error; err != nil {
		return nil, fmt.Errorf("count active projects: %w", err)
	}
	if err := db.Model(&model.Project{}).Where("deleted_at IS NOT NULL").Count(&stats.DeletedProjects).Error; err != nil {
		return nil, fmt.Errorf("count deleted projects: %w", err)
	}
	if err := db.Model(&model.Chat{}).Count(&stats.TotalChats).Error; err != nil {
		return nil, fmt.Errorf("count chats: %w", err)
	}

	// 30-day series are bucketed in Go to stay portable across drivers.
	seriesStart := dayStart.AddDate(0, 0, -29)

	var userDates []time.Time
	if err := db.Model(&model.User{}).
		Where("created_at >= ?", seriesStart).
		Pluck("created_at", &userDates).Error; err != nil {
		return nil, fmt.Errorf("user growth: %w", err)
	}
	growth := make(map[string]int64, 30)
	for _, d := range userDates {
		growth[d.UTC().Format("2006-01-02")]++
	}

	var chatRows []model.Chat
	if err := db.Model(&model.Chat{}).
		Select("role", "created_at").
		Where("created_at >= ?", seriesStart).
		Find(&chatRows).Error; err != nil {
		return nil, fmt.Errorf("chat usage: %w", err)
	}
	userChats := make(map[string]int64, 30)
	assistantChats := make(map[string]int64, 30)
	for _, c := range chatRows {
		day := c.CreatedAt.UTC().Format("2006-01-02")
		if c.Role == model.ChatRoleAssistant {
			assistantChats[day]++
		} else {
			userChats[day]++
		}
	}

	stats.UserGrowth = make([]store.SeriesPoint, 0, 30)
	stats.ChatUsage = make([]store.RoleSeriesPoint, 0, 30)
	for day := seriesStart; !day.After(dayStart); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		stats.UserGrowth = append(stats.UserGrowth, store.SeriesPoint{Date: key, Count: growth[key]})
		stats.ChatUsage = append(stats.ChatUsage, store.RoleSeriesPoint{
			Date:      key,
			User:      userChats[key],
			Assistant: assistantChats[key],
		})
	}
	return stats, nil
}
