package metrics

import (
	"context"
	"time"

	"github.com/GoGangH/logit-admin/internal/model"
	"github.com/GoGangH/logit-admin/internal/security"
	"github.com/GoGangH/logit-admin/internal/store"
	"github.com/google/uuid"
)

// Wrap returns an AdminStore that records StoreLatency for every operation.
func Wrap(inner store.AdminStore) store.AdminStore {
	return &metricsStore{inner: inner}
}

type metricsStore struct {
	inner store.AdminStore
}

func observe(op string, start time.Time) {
	if security.StoreLatency == nil {
		return
	}
	security.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metricsStore) ListUsers(ctx context.Context, q store.UserQuery) (store.Page[store.UserSummary], error) {
	defer observe("list_users", time.Now())
	return m.inner.ListUsers(ctx, q)
}

func (m *metricsStore) GetUser(ctx context.Context, id uuid.UUID) (*store.UserSummary, error) {
	defer observe("get_user", time.Now())
	return m.inner.GetUser(ctx, id)
}

func (m *metricsStore) SetUserActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error) {
	defer observe("set_user_active", time.Now())
	return m.inner.SetUserActive(ctx, id, active)
}

func (m *metricsStore) UsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error) {
	defer observe("users_by_ids", time.Now())
	return m.inner.UsersByIDs(ctx, ids)
}

func (m *metricsStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	defer observe("delete_user", time.Now())
	return m.inner.DeleteUser(ctx, id)
}

func (m *metricsStore) ListProjects(ctx context.Context, q store.ProjectQuery) (store.Page[store.ProjectSummary], error) {
	defer observe("list_projects", time.Now())
	return m.inner.ListProjects(ctx, q)
}

func (m *metricsStore) GetProject(ctx context.Context, id uuid.UUID) (*store.ProjectDetail, error) {
	defer observe("get_project", time.Now())
	return m.inner.GetProject(ctx, id)
}

func (m *metricsStore) UpdateProject(ctx context.Context, id uuid.UUID, update store.ProjectUpdate) (*model.Project, error) {
	defer observe("update_project", time.Now())
	return m.inner.UpdateProject(ctx, id, update)
}

func (m *metricsStore) SoftDeleteProject(ctx context.Context, id uuid.UUID) error {
	defer observe("soft_delete_project", time.Now())
	return m.inner.SoftDeleteProject(ctx, id)
}

func (m *metricsStore) ListUserProjects(ctx context.Context, userID uuid.UUID, page, pageSize int) (store.Page[store.ProjectSummary], error) {
	defer observe("list_user_projects", time.Now())
	return m.inner.ListUserProjects(ctx, userID, page, pageSize)
}

func (m *metricsStore) DeleteProjects(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	defer observe("delete_projects", time.Now())
	return m.inner.DeleteProjects(ctx, userID, ids)
}

func (m *metricsStore) ListChatMessages(ctx context.Context, userID, questionID uuid.UUID, cursor *uuid.UUID, limit int) (store.ChatPage, error) {
	defer observe("list_chat_messages", time.Now())
	return m.inner.ListChatMessages(ctx, userID, questionID, cursor, limit)
}

func (m *metricsStore) ListQuestionSummaries(ctx context.Context, userID uuid.UUID, page, pageSize int) (store.Page[store.QuestionSummary], error) {
	defer observe("list_question_summaries", time.Now())
	return m.inner.ListQuestionSummaries(ctx, userID, page, pageSize)
}

func (m *metricsStore) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]model.Subscription, error) {
	defer observe("list_subscriptions", time.Now())
	return m.inner.ListSubscriptions(ctx, userID)
}

func (m *metricsStore) UpsertSubscription(ctx context.Context, sub model.Subscription) (*model.Subscription, error) {
	defer observe("upsert_subscription", time.Now())
	return m.inner.UpsertSubscription(ctx, sub)
}

func (m *metricsStore) Stats(ctx context.Context, now time.Time) (*store.RelationalStats, error) {
	defer observe("stats", time.Now())
	return m.inner.Stats(ctx, now)
}
