package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/GoGangH/logit-admin/internal/model"
	"github.com/GoGangH/logit-admin/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.Question{},
		&model.Chat{},
		&model.Subscription{},
	))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		_ = sqlDB.Close()
	})
	return NewWithDB(db)
}

func seedUser(t *testing.T, s *Store, email string, active bool) model.User {
	t.Helper()
	name := "User " + email
	u := model.User{
		ID:        uuid.New(),
		Email:     email,
		FullName:  &name,
		IsActive:  active,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.db.Create(&u).Error)
	return u
}

func seedProject(t *testing.T, s *Store, userID uuid.UUID, company string) model.Project {
	t.Helper()
	p := model.Project{
		ID:          uuid.New(),
		UserID:      userID,
		Company:     company,
		JobPosition: "Backend Engineer",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.db.Create(&p).Error)
	return p
}

func seedQuestion(t *testing.T, s *Store, p model.Project, order int, text string) model.Question {
	t.Helper()
	q := model.Question{
		ID:        uuid.New(),
		ProjectID: p.ID,
		UserID:    p.UserID,
		Order:     order,
		Question:  text,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.db.Create(&q).Error)
	return q
}

func seedChat(t *testing.T, s *Store, q model.Question, role model.ChatRole, content string) model.Chat {
	t.Helper()
	c := model.Chat{
		ID:         uuid.Must(uuid.NewV7()),
		QuestionID: q.ID,
		ProjectID:  q.ProjectID,
		UserID:     q.UserID,
		Role:       role,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, s.db.Create(&c).Error)
	return c
}

func TestListUsersSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice@example.com", true)
	seedUser(t, s, "bob@example.com", true)
	seedUser(t, s, "carol@other.org", false)

	// Substring search matches email case-insensitively.
	page, err := s.ListUsers(ctx, store.UserQuery{Search: "ALICE"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, alice.ID, page.Data[0].ID)
	assert.EqualValues(t, 1, page.Total)

	// A well-formed UUID searches by exact id, never by substring.
	page, err = s.ListUsers(ctx, store.UserQuery{Search: alice.ID.String()})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, alice.ID, page.Data[0].ID)

	page, err = s.ListUsers(ctx, store.UserQuery{Search: uuid.NewString()})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, 1, page.TotalPages)

	active := true
	page, err = s.ListUsers(ctx, store.UserQuery{IsActive: &active})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)

	inactive := false
	page, err = s.ListUsers(ctx, store.UserQuery{IsActive: &inactive})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "carol@other.org", page.Data[0].Email)
}

func TestListUsersCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "counts@example.com", true)
	p := seedProject(t, s, u.ID, "Acme")
	deleted := seedProject(t, s, u.ID, "Gone")
	require.NoError(t, s.SoftDeleteProject(ctx, deleted.ID))
	q := seedQuestion(t, s, p, 0, "Why us?")
	seedChat(t, s, q, model.ChatRoleUser, "first")
	seedChat(t, s, q, model.ChatRoleAssistant, "second")

	page, err := s.ListUsers(ctx, store.UserQuery{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.EqualValues(t, 1, page.Data[0].ProjectCount, "soft-deleted projects do not count")
	assert.EqualValues(t, 2, page.Data[0].ChatCount)
}

func TestSetUserActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "toggle@example.com", true)
	updated, err := s.SetUserActive(ctx, u.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = s.SetUserActive(ctx, uuid.New(), true)
	var notFound *store.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "user", notFound.Resource)
}

func TestDeleteUserCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	victim := seedUser(t, s, "victim@example.com", true)
	bystander := seedUser(t, s, "bystander@example.com", true)

	vp := seedProject(t, s, victim.ID, "Acme")
	vq := seedQuestion(t, s, vp, 0, "Tell us about yourself")
	seedChat(t, s, vq, model.ChatRoleUser, "hello")
	_, err := s.UpsertSubscription(ctx, model.Subscription{
		UserID: victim.ID, Type: model.SubscriptionTypeMCP, IsActive: true, Plan: model.PlanFreeTrial,
	})
	require.NoError(t, err)

	bp := seedProject(t, s, bystander.ID, "Initech")
	bq := seedQuestion(t, s, bp, 0, "Strengths?")
	seedChat(t, s, bq, model.ChatRoleUser, "still here")

	require.NoError(t, s.DeleteUser(ctx, victim.ID))

	_, err = s.GetUser(ctx, victim.ID)
	var notFound *store.NotFoundError
	require.ErrorAs(t, err, &notFound)

	var n int64
	require.NoError(t, s.db.Model(&model.Project{}).Where("user_id = ?", victim.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, s.db.Model(&model.Question{}).Where("user_id = ?", victim.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, s.db.Model(&model.Chat{}).Where("user_id = ?", victim.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, s.db.Model(&model.Subscription{}).Where("user_id = ?", victim.ID).Count(&n).Error)
	assert.Zero(t, n)

	// The other user's data is untouched.
	require.NoError(t, s.db.Model(&model.Chat{}).Where("user_id = ?", bystander.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	err = s.DeleteUser(ctx, victim.ID)
	require.ErrorAs(t, err, &notFound)
}

func TestGetProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "owner@example.com", true)
	p := seedProject(t, s, u.ID, "Acme")
	seedQuestion(t, s, p, 2, "Second")
	seedQuestion(t, s, p, 1, "First")

	detail, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.UserEmail)
	assert.Equal(t, "owner@example.com", *detail.UserEmail)
	require.Len(t, detail.Questions, 2)
	assert.Equal(t, "First", detail.Questions[0].Question)
	assert.Equal(t, "Second", detail.Questions[1].Question)

	require.NoError(t, s.SoftDeleteProject(ctx, p.ID))
	_, err = s.GetProject(ctx, p.ID)
	var notFound *store.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "project", notFound.Resource)
}

func TestUpdateProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "edit@example.com", true)
	p := seedProject(t, s, u.ID, "Before")

	company := "After"
	updated, err := s.UpdateProject(ctx, p.ID, store.ProjectUpdate{Company: &company})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Company)
	assert.Equal(t, "Backend Engineer", updated.JobPosition, "unset fields stay")
	require.NotNil(t, updated.UpdatedAt)

	_, err = s.UpdateProject(ctx, p.ID, store.ProjectUpdate{})
	var validation *store.ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = s.UpdateProject(ctx, uuid.New(), store.ProjectUpdate{Company: &company})
	var notFound *store.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestListProjectsSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "search-owner@example.com", true)
	acme := seedProject(t, s, u.ID, "Acme Corp")
	seedProject(t, s, u.ID, "Initech")
	gone := seedProject(t, s, u.ID, "Acme Labs")
	require.NoError(t, s.SoftDeleteProject(ctx, gone.ID))

	page, err := s.ListProjects(ctx, store.ProjectQuery{Search: "acme"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1, "soft-deleted projects stay hidden")
	assert.Equal(t, acme.ID, page.Data[0].ID)
	require.NotNil(t, page.Data[0].UserEmail)
	assert.Equal(t, u.Email, *page.Data[0].UserEmail)

	// Owner email also matches.
	page, err = s.ListProjects(ctx, store.ProjectQuery{Search: "search-owner"})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)

	// A UUID matches either project id or owner id.
	page, err = s.ListProjects(ctx, store.ProjectQuery{Search: u.ID.String()})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
}

func TestDeleteProjectsScopedToUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, s, "bulk@example.com", true)
	other := seedUser(t, s, "other@example.com", true)

	p1 := seedProject(t, s, owner.ID, "One")
	p2 := seedProject(t, s, owner.ID, "Two")
	q1 := seedQuestion(t, s, p1, 0, "Q")
	seedChat(t, s, q1, model.ChatRoleUser, "hi")
	foreign := seedProject(t, s, other.ID, "Foreign")

	// Selecting a foreign project id deletes nothing of the other user.
	deleted, err := s.DeleteProjects(ctx, owner.ID, []uuid.UUID{p1.ID, foreign.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var n int64
	require.NoError(t, s.db.Model(&model.Project{}).Where("id = ?", foreign.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	require.NoError(t, s.db.Model(&model.Chat{}).Where("project_id = ?", p1.ID).Count(&n).Error)
	assert.Zero(t, n, "chats go with the project")

	// nil ids wipes everything the user owns.
	deleted, err = s.DeleteProjects(ctx, owner.ID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
	require.NoError(t, s.db.Model(&model.Project{}).Where("id = ?", p2.ID).Count(&n).Error)
	assert.Zero(t, n)

	deleted, err = s.DeleteProjects(ctx, owner.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestListChatMessagesCursorWalk(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "chatty@example.com", true)
	p := seedProject(t, s, u.ID, "Acme")
	q := seedQuestion(t, s, p, 0, "Walk me through your resume")

	for i := 0; i < 35; i++ {
		seedChat(t, s, q, model.ChatRoleUser, fmt.Sprintf("message %02d", i))
	}

	var collected []model.Chat
	var cursor *uuid.UUID
	pages := 0
	for {
		chatPage, err := s.ListChatMessages(ctx, u.ID, q.ID, cursor, 10)
		require.NoError(t, err)
		collected = append(collected, chatPage.Data...)
		pages++
		if !chatPage.HasMore {
			assert.Nil(t, chatPage.NextCursor)
			break
		}
		require.NotNil(t, chatPage.NextCursor)
		next, err := uuid.Parse(*chatPage.NextCursor)
		require.NoError(t, err)
		cursor = &next
	}

	assert.Equal(t, 4, pages)
	require.Len(t, collected, 35)
	// Newest first, with no duplicates across pages.
	assert.Equal(t, "message 34", collected[0].Content)
	assert.Equal(t, "message 00", collected[34].Content)
	seen := make(map[uuid.UUID]bool, len(collected))
	for _, c := range collected {
		assert.False(t, seen[c.ID])
		seen[c.ID] = true
	}
}

func TestListChatMessagesLimitBounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "bounds@example.com", true)
	p := seedProject(t, s, u.ID, "Acme")
	q := seedQuestion(t, s, p, 0, "Q")
	for i := 0; i < 35; i++ {
		seedChat(t, s, q, model.ChatRoleUser, "m")
	}

	page, err := s.ListChatMessages(ctx, u.ID, q.ID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, page.Data, 30, "default limit")
	assert.True(t, page.HasMore)

	page, err = s.ListChatMessages(ctx, u.ID, q.ID, nil, 1000)
	require.NoError(t, err)
	assert.Len(t, page.Data, 35, "limit capped, all rows fit")
	assert.False(t, page.HasMore)
}

func TestListQuestionSummaries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "summary@example.com", true)
	p := seedProject(t, s, u.ID, "Acme")
	chatted := seedQuestion(t, s, p, 0, "Chatted question")
	seedQuestion(t, s, p, 1, "Silent question")
	seedChat(t, s, chatted, model.ChatRoleUser, "hi")
	last := seedChat(t, s, chatted, model.ChatRoleAssistant, "hello")

	page, err := s.ListQuestionSummaries(ctx, u.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1, "questions without chats are skipped")
	got := page.Data[0]
	assert.Equal(t, chatted.ID, got.ID)
	assert.Equal(t, "Acme", got.ProjectCompany)
	assert.Equal(t, "Backend Engineer", got.ProjectPosition)
	assert.EqualValues(t, 2, got.ChatCount)
	require.NotNil(t, got.LastChatAt)
	assert.WithinDuration(t, last.CreatedAt, *got.LastChatAt, time.Second)
}

func TestUpsertSubscription(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "subs@example.com", true)
	token1 := "token-one"
	first, err := s.UpsertSubscription(ctx, model.Subscription{
		UserID: u.ID, Type: model.SubscriptionTypeMCP,
		IsActive: true, Plan: model.PlanFreeTrial, Token: &token1,
	})
	require.NoError(t, err)

	token2 := "token-two"
	second, err := s.UpsertSubscription(ctx, model.Subscription{
		UserID: u.ID, Type: model.SubscriptionTypeMCP,
		IsActive: true, Plan: model.PlanFreeTrial, Token: &token2,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "conflict keeps the original row")
	require.NotNil(t, second.Token)
	assert.Equal(t, "token-two", *second.Token)

	subs, err := s.ListSubscriptions(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	active := seedUser(t, s, "active@example.com", true)
	seedUser(t, s, "inactive@example.com", false)

	p := seedProject(t, s, active.ID, "Acme")
	gone := seedProject(t, s, active.ID, "Gone")
	require.NoError(t, s.SoftDeleteProject(ctx, gone.ID))

	q := seedQuestion(t, s, p, 0, "Q")
	seedChat(t, s, q, model.ChatRoleUser, "hi")
	seedChat(t, s, q, model.ChatRoleAssistant, "hello")

	stats, err := s.Stats(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.ActiveUsers)
	assert.EqualValues(t, 2, stats.NewUsersToday)
	assert.EqualValues(t, 2, stats.NewUsersThisWeek)
	assert.EqualValues(t, 1, stats.ActiveProjects)
	assert.EqualValues(t, 1, stats.DeletedProjects)
	assert.EqualValues(t, 2, stats.TotalChats)

	require.Len(t, stats.UserGrowth, 30)
	require.Len(t, stats.ChatUsage, 30)
	today := now.Format("2006-01-02")
	lastGrowth := stats.UserGrowth[29]
	assert.Equal(t, today, lastGrowth.Date)
	assert.EqualValues(t, 2, lastGrowth.Count)
	lastUsage := stats.ChatUsage[29]
	assert.EqualValues(t, 1, lastUsage.User)
	assert.EqualValues(t, 1, lastUsage.Assistant)
}
