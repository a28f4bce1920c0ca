package repository

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/umut/reelsense/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const defaultVectorDimension = 384

// QdrantConnectionConfig holds configuration for the Qdrant connection.
type QdrantConnectionConfig struct {
	Host            string
	Port            int
	Collection      string
	APIKey          string // Qdrant Cloud API key (enables TLS automatically)
	UseTLS          bool   // explicitly enable TLS without an API key
	VectorDimension int
}

// apiKeyInterceptor adds the API key to outgoing request metadata.
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// QdrantRepository is the vector index adapter. Point IDs are the numeric
// catalog content IDs; payloads carry enough metadata for type filtering.
type QdrantRepository struct {
	conn            *grpc.ClientConn
	pointsClient    pb.PointsClient
	collectClient   pb.CollectionsClient
	collectionName  string
	vectorDimension int
}

// NewQdrantRepository connects to a local (insecure) or cloud (TLS + API key)
// Qdrant instance.
func NewQdrantRepository(cfg *QdrantConnectionConfig) (*QdrantRepository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	vectorDimension := cfg.VectorDimension
	if vectorDimension <= 0 {
		vectorDimension = defaultVectorDimension
	}

	var opts []grpc.DialOption
	useTLS := cfg.UseTLS || cfg.APIKey != ""
	if useTLS {
		creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS13})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &QdrantRepository{
		conn:            conn,
		pointsClient:    pb.NewPointsClient(conn),
		collectClient:   pb.NewCollectionsClient(conn),
		collectionName:  cfg.Collection,
		vectorDimension: vectorDimension,
	}, nil
}

// Close closes the gRPC connection.
func (r *QdrantRepository) Close() error {
	return r.conn.Close()
}

// EnsureCollection creates the cosine collection if it doesn't exist and
// verifies the vector dimension when it does.
func (r *QdrantRepository) EnsureCollection(ctx context.Context) error {
	info, err := r.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collectionName,
	})
	if err == nil {
		if size, ok := collectionVectorSize(info.GetResult()); ok {
			if size != uint64(r.vectorDimension) {
				return fmt.Errorf("collection %s has vector size %d, expected %d", r.collectionName, size, r.vectorDimension)
			}
		}
		return nil
	}

	_, err = r.collectClient.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(r.vectorDimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
		HnswConfig: &pb.HnswConfigDiff{
			M:                 optionalUint64(16),
			EfConstruct:       optionalUint64(128),
			FullScanThreshold: optionalUint64(10000),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func optionalUint64(v uint64) *uint64 {
	return &v
}

func collectionVectorSize(info *pb.CollectionInfo) (uint64, bool) {
	if info == nil {
		return 0, false
	}
	config := info.GetConfig()
	if config == nil {
		return 0, false
	}
	params := config.GetParams()
	if params == nil {
		return 0, false
	}
	vectors := params.GetVectorsConfig()
	if vectors == nil {
		return 0, false
	}
	if single := vectors.GetParams(); single != nil {
		if size := single.GetSize(); size > 0 {
			return size, true
		}
	}
	return 0, false
}

// ContentPayload is the payload stored with each vector.
type ContentPayload struct {
	ContentID string
	Type      domain.ContentType
	Title     string
	Genres    []string
}

func contentPointID(contentID string) (*pb.PointId, error) {
	num, err := strconv.ParseUint(contentID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid content ID %q: %w", contentID, err)
	}
	return &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: num}}, nil
}

// Upsert inserts or updates a vector with its payload.
func (r *QdrantRepository) Upsert(ctx context.Context, contentID string, vector []float32, payload *ContentPayload) error {
	pointID, err := contentPointID(contentID)
	if err != nil {
		return err
	}

	points := []*pb.PointStruct{
		{
			Id: pointID,
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vector},
				},
			},
			Payload: map[string]*pb.Value{
				"content_id": {Kind: &pb.Value_StringValue{StringValue: payload.ContentID}},
				"type":       {Kind: &pb.Value_StringValue{StringValue: string(payload.Type)}},
				"title":      {Kind: &pb.Value_StringValue{StringValue: payload.Title}},
				"genres":     genresToValue(payload.Genres),
			},
		},
	}

	if _, err := r.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collectionName,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

func genresToValue(genres []string) *pb.Value {
	values := make([]*pb.Value, len(genres))
	for i, g := range genres {
		values[i] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: g}}
	}
	return &pb.Value{
		Kind: &pb.Value_ListValue{
			ListValue: &pb.ListValue{Values: values},
		},
	}
}

// Vectors retrieves embedding vectors for the given content IDs. IDs without
// a stored vector are absent from the result map.
func (r *QdrantRepository) Vectors(ctx context.Context, ids []string) (map[string][]float32, error) {
	if len(ids) == 0 {
		return map[string][]float32{}, nil
	}

	pointIDs := make([]*pb.PointId, 0, len(ids))
	for _, id := range ids {
		pointID, err := contentPointID(id)
		if err != nil {
			// Non-numeric IDs cannot have been indexed; skip them.
			continue
		}
		pointIDs = append(pointIDs, pointID)
	}

	resp, err := r.pointsClient.Get(ctx, &pb.GetPoints{
		CollectionName: r.collectionName,
		Ids:            pointIDs,
		WithVectors: &pb.WithVectorsSelector{
			SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get vectors: %w", err)
	}

	vectors := make(map[string][]float32, len(resp.Result))
	for _, point := range resp.Result {
		vector := point.GetVectors().GetVector().GetData()
		if len(vector) == 0 {
			continue
		}
		vectors[strconv.FormatUint(point.GetId().GetNum(), 10)] = vector
	}
	return vectors, nil
}

// NearestNeighbors queries the index for the limit nearest vectors,
// optionally restricted to one content type. Results are ordered by
// ascending cosine distance in [0, 2]; Qdrant reports cosine similarity,
// so scores are converted with d = 1 - s.
func (r *QdrantRepository) NearestNeighbors(ctx context.Context, vector []float32, limit int, contentType domain.ContentType) ([]domain.Neighbor, error) {
	req := &pb.SearchPoints{
		CollectionName: r.collectionName,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	}

	if contentType != "" {
		req.Filter = &pb.Filter{
			Must: []*pb.Condition{
				{
					ConditionOneOf: &pb.Condition_Field{
						Field: &pb.FieldCondition{
							Key: "type",
							Match: &pb.Match{
								MatchValue: &pb.Match_Keyword{Keyword: string(contentType)},
							},
						},
					},
				},
			},
		}
	}

	resp, err := r.pointsClient.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	neighbors := make([]domain.Neighbor, 0, len(resp.Result))
	for _, scored := range resp.Result {
		id := scored.GetId().GetNum()
		neighbors = append(neighbors, domain.Neighbor{
			ID:       strconv.FormatUint(id, 10),
			Distance: 1 - float64(scored.GetScore()),
		})
	}
	return neighbors, nil
}
