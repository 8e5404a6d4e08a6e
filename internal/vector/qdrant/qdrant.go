package qdrant

import (
	"context"
	"fmt"
	"strings"

	"github.com/GoGangH/logit-admin/internal/config"
	registrymigrate "github.com/GoGangH/logit-admin/internal/registry/migrate"
	"github.com/GoGangH/logit-admin/internal/vector"
	"github.com/charmbracelet/log"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

func init() {
	registrymigrate.Register(registrymigrate.Plugin{Order: 200, Migrator: &qdrantMigrator{}})
}

// qdrantMigrator ensures the experiences collection exists in every
// configured environment.
type qdrantMigrator struct{}

func (m *qdrantMigrator) Name() string { return "qdrant" }

func (m *qdrantMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.VectorMigrateAtStart {
		return nil
	}
	envs := []config.Env{config.EnvDev}
	if cfg.ProductionConfigured() && strings.TrimSpace(cfg.ProdQdrantHost) != "" {
		envs = append(envs, config.EnvProduction)
	}
	for _, env := range envs {
		addr := cfg.QdrantAddress(env)
		if addr == "" {
			continue
		}
		if err := ensureCollection(ctx, cfg, env); err != nil {
			return fmt.Errorf("qdrant migrate (%s): %w", env, err)
		}
	}
	return nil
}

func ensureCollection(ctx context.Context, cfg *config.Config, env config.Env) error {
	migrateCtx, cancel := context.WithTimeout(ctx, cfg.QdrantStartupTimeout)
	defer cancel()

	conn, err := grpc.NewClient(cfg.QdrantAddress(env), dialOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	client := pb.NewCollectionsClient(conn)
	name := cfg.QdrantCollection(env)

	if _, err := client.Get(migrateCtx, &pb.GetCollectionInfoRequest{CollectionName: name}); err == nil {
		return nil // collection exists
	}

	_, err = client.Create(migrateCtx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(cfg.EmbeddingDimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	log.Info("Created Qdrant collection", "env", env, "name", name)
	return nil
}

// New connects a vector.Store backed by the Qdrant collection configured for
// the given environment.
func New(cfg *config.Config, env config.Env) (*Store, error) {
	addr := cfg.QdrantAddress(env)
	if addr == "" {
		return nil, fmt.Errorf("qdrant: no host configured for %s", env)
	}
	conn, err := grpc.NewClient(addr, dialOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect: %w", err)
	}
	return &Store{
		points:     pb.NewPointsClient(conn),
		conn:       conn,
		collection: cfg.QdrantCollection(env),
	}, nil
}

// Store implements vector.Store on the Qdrant gRPC points API.
type Store struct {
	points     pb.PointsClient
	conn       *grpc.ClientConn
	collection string
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error { return s.conn.Close() }

func (s *Store) Count(ctx context.Context, filter vector.Filter) (uint64, error) {
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.collection,
		Filter:         filterToPB(filter),
		Exact:          newBool(true),
	})
	if err != nil {
		return 0, wrapErr("count", err)
	}
	return resp.GetResult().GetCount(), nil
}

func (s *Store) Scroll(ctx context.Context, filter vector.Filter, limit uint32, offset *string) ([]vector.Point, *string, error) {
	req := &pb.ScrollPoints{
		CollectionName: s.collection,
		Filter:         filterToPB(filter),
		Limit:          &limit,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: false}},
	}
	if offset != nil {
		req.Offset = pointID(*offset)
	}
	resp, err := s.points.Scroll(ctx, req)
	if err != nil {
		return nil, nil, wrapErr("scroll", err)
	}

	points := make([]vector.Point, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		points = append(points, vector.Point{
			ID:      pt.GetId().GetUuid(),
			Payload: payloadToMap(pt.GetPayload()),
		})
	}
	var next *string
	if n := resp.GetNextPageOffset(); n != nil && n.GetUuid() != "" {
		id := n.GetUuid()
		next = &id
	}
	return points, next, nil
}

func (s *Store) Retrieve(ctx context.Context, id string) (*vector.Point, error) {
	resp, err := s.points.Get(ctx, &pb.GetPoints{
		CollectionName: s.collection,
		Ids:            []*pb.PointId{pointID(id)},
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: false}},
	})
	if err != nil {
		return nil, wrapErr("retrieve", err)
	}
	result := resp.GetResult()
	if len(result) == 0 {
		return nil, nil
	}
	return &vector.Point{
		ID:      result[0].GetId().GetUuid(),
		Payload: payloadToMap(result[0].GetPayload()),
	}, nil
}

func (s *Store) Upsert(ctx context.Context, point vector.Point, embedding []float32) error {
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Points: []*pb.PointStruct{{
			Id: pointID(point.ID),
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: embedding}},
			},
			Payload: mapToPayload(point.Payload),
		}},
	})
	return wrapErr("upsert", err)
}

func (s *Store) SetPayload(ctx context.Context, id string, payload map[string]any) error {
	_, err := s.points.SetPayload(ctx, &pb.SetPayloadPoints{
		CollectionName: s.collection,
		Payload:        mapToPayload(payload),
		PointsSelector: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: []*pb.PointId{pointID(id)}},
			},
		},
	})
	return wrapErr("set payload", err)
}

func (s *Store) DeletePoints(ctx context.Context, ids []string) error {
	pbIDs := make([]*pb.PointId, len(ids))
	for i, id := range ids {
		pbIDs[i] = pointID(id)
	}
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: pbIDs},
			},
		},
	})
	return wrapErr("delete points", err)
}

func (s *Store) DeleteByFilter(ctx context.Context, filter vector.Filter) error {
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{Filter: filterToPB(filter)},
		},
	})
	return wrapErr("delete by filter", err)
}

// wrapErr tags transport-level failures with vector.ErrUnavailable so that
// callers can tell "store down" apart from "matched nothing".
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("qdrant %s: %w: %v", op, vector.ErrUnavailable, err)
	}
	return fmt.Errorf("qdrant %s: %w", op, err)
}

func filterToPB(f vector.Filter) *pb.Filter {
	if f.IsEmpty() {
		return nil
	}
	conds := make([]*pb.Condition, len(f.Must))
	for i, c := range f.Must {
		conds[i] = &pb.Condition{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{
					Key: c.Key,
					Match: &pb.Match{
						MatchValue: &pb.Match_Keyword{Keyword: c.Value},
					},
				},
			},
		}
	}
	return &pb.Filter{Must: conds}
}

func pointID(id string) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}}
}

func payloadToMap(payload map[string]*pb.Value) map[string]any {
	m := make(map[string]any, len(payload))
	for k, v := range payload {
		m[k] = valueToAny(v)
	}
	return m
}

func valueToAny(v *pb.Value) any {
	switch kind := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	case *pb.Value_ListValue:
		items := make([]any, 0, len(kind.ListValue.GetValues()))
		for _, item := range kind.ListValue.GetValues() {
			items = append(items, valueToAny(item))
		}
		return items
	default:
		return nil
	}
}

func mapToPayload(m map[string]any) map[string]*pb.Value {
	payload := make(map[string]*pb.Value, len(m))
	for k, v := range m {
		payload[k] = anyToValue(v)
	}
	return payload
}

func anyToValue(v any) *pb.Value {
	switch value := v.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: value}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: value}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(value)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: value}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: value}}
	case []string:
		items := make([]*pb.Value, len(value))
		for i, s := range value {
			items[i] = anyToValue(s)
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: items}}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(v)}}
	}
}

func newBool(v bool) *bool { return &v }

func dialOptions(cfg *config.Config) []grpc.DialOption {
	opts := make([]grpc.DialOption, 0, 2)
	if cfg.QdrantUseTLS {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(nil)))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	if strings.TrimSpace(cfg.QdrantAPIKey) != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(apiKeyCredentials{
			apiKey:     cfg.QdrantAPIKey,
			requireTLS: cfg.QdrantUseTLS,
		}))
	}
	return opts
}

type apiKeyCredentials struct {
	apiKey     string
	requireTLS bool
}

func (a apiKeyCredentials) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"api-key": a.apiKey}, nil
}

func (a apiKeyCredentials) RequireTransportSecurity() bool {
	return a.requireTLS
}
