package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_billing/internal/cart"
	"github.com/fjod/go_billing/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionTTL = 7 * 24 * time.Hour

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection("billing_sessions")}
}

// Money is stored as decimal strings; bson has no codec for decimal.Decimal.
type lineDocument struct {
	ProductID   int64  `bson:"product_id"`
	ProductName string `bson:"product_name"`
	Category    string `bson:"category"`
	Size        string `bson:"size"`
	Color       string `bson:"color"`
	UnitPrice   string `bson:"unit_price"`
	Discount    string `bson:"discount"`
	Stock       int    `bson:"stock"`
	Quantity    int    `bson:"quantity"`
}

type sessionDocument struct {
	SessionID     string         `bson:"session_id"`
	CustomerName  string         `bson:"customer_name"`
	CustomerPhone string         `bson:"customer_phone"`
	Lines         []lineDocument `bson:"lines"`
	UpdatedAt     time.Time      `bson:"updated_at"`
}

func (m *MongoRepository) Get(ctx context.Context, id string) (cart.Snapshot, error) {
	var doc sessionDocument
	err := m.collection.FindOne(ctx, bson.M{"session_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return cart.Snapshot{}, ErrSessionNotFound
		}
		return cart.Snapshot{}, fmt.Errorf("failed to get session: %w", err)
	}
	return fromDocument(doc)
}

func (m *MongoRepository) Save(ctx context.Context, snap cart.Snapshot) error {
	filter := bson.M{"session_id": snap.ID}
	update := bson.M{"$set": toDocument(snap)}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

func (m *MongoRepository) Delete(ctx context.Context, id string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"session_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(sessionTTL.Seconds())),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func toDocument(snap cart.Snapshot) sessionDocument {
	doc := sessionDocument{
		SessionID:     snap.ID,
		CustomerName:  snap.CustomerName,
		CustomerPhone: snap.CustomerPhone,
		Lines:         make([]lineDocument, 0, len(snap.Lines)),
		UpdatedAt:     snap.UpdatedAt,
	}
	for _, l := range snap.Lines {
		doc.Lines = append(doc.Lines, lineDocument{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Category:    l.Category,
			Size:        l.Size,
			Color:       l.Color,
			UnitPrice:   l.UnitPrice.String(),
			Discount:    l.Discount.String(),
			Stock:       l.Stock,
			Quantity:    l.Quantity,
		})
	}
	return doc
}

func fromDocument(doc sessionDocument) (cart.Snapshot, error) {
	snap := cart.Snapshot{
		ID:            doc.SessionID,
		CustomerName:  doc.CustomerName,
		CustomerPhone: doc.CustomerPhone,
		UpdatedAt:     doc.UpdatedAt,
	}
	for _, l := range doc.Lines {
		price, err := decimal.NewFromString(l.UnitPrice)
		if err != nil {
			return cart.Snapshot{}, fmt.Errorf("session %s: product %d price: %w", doc.SessionID, l.ProductID, err)
		}
		discount, err := decimal.NewFromString(l.Discount)
		if err != nil {
			return cart.Snapshot{}, fmt.Errorf("session %s: product %d discount: %w", doc.SessionID, l.ProductID, err)
		}
		snap.Lines = append(snap.Lines, domain.CartLine{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Category:    l.Category,
			Size:        l.Size,
			Color:       l.Color,
			UnitPrice:   price,
			Discount:    discount,
			Stock:       l.Stock,
			Quantity:    l.Quantity,
		})
	}
	return snap, nil
}
