package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/block-engine/internal/block"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mappingDocID = "block_registry"

// MongoConfig параметры подключения к MongoDB
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type mongoEntry struct {
	URI string `bson:"uri"`
	ID  int    `bson:"id"`
}

// uri содержат точки, поэтому таблица хранится массивом, а не вложенным документом
type mongoMapping struct {
	ID        string       `bson:"_id"`
	Families  []string     `bson:"families"`
	IDs       []mongoEntry `bson:"ids"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

// MongoStore хранит таблицу одним документом коллекции
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "blocks"
	}
	if cfg.Collection == "" {
		cfg.Collection = "registry"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("не удалось подключиться к MongoDB: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Load(ctx context.Context) (*block.PersistedMapping, error) {
	var doc mongoMapping
	err := s.coll.FindOne(ctx, bson.M{"_id": mappingDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoMapping
	}
	if err != nil {
		return nil, err
	}
	m := &block.PersistedMapping{Families: doc.Families, IDs: make(map[string]block.BlockID, len(doc.IDs))}
	for _, e := range doc.IDs {
		m.IDs[e.URI] = block.BlockID(e.ID)
	}
	return m, nil
}

func (s *MongoStore) Save(ctx context.Context, m *block.PersistedMapping) error {
	doc := mongoMapping{
		ID:        mappingDocID,
		Families:  append([]string{}, m.Families...),
		IDs:       make([]mongoEntry, 0, len(m.IDs)),
		UpdatedAt: time.Now().UTC(),
	}
	for _, uri := range sortedKeys(m.IDs) {
		doc.IDs = append(doc.IDs, mongoEntry{URI: uri, ID: int(m.IDs[uri])})
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": mappingDocID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
