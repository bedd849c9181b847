package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongoDB connects to MongoDB and returns the named database.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// MongoOrderRepository is a MongoDB implementation of OrderRepository.
type MongoOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderRepository creates a new instance of MongoOrderRepository.
func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{
		collection: db.Collection("orders"),
	}
}

// CreateIndexes makes the gateway correlation id unique and supports the
// newest-first listings.
func (r *MongoOrderRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "gatewayOrderId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "buyer.email", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}

// Create inserts a new order document.
func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order by its ID.
func (r *MongoOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	order, err := r.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("order with ID %s: %w", id, err)
	}
	return order, nil
}

// GetByGatewayOrderID retrieves the order correlated with a gateway order.
func (r *MongoOrderRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	order, err := r.findOne(ctx, bson.M{"gatewayOrderId": gatewayOrderID})
	if err != nil {
		return nil, fmt.Errorf("order for gateway order %s: %w", gatewayOrderID, err)
	}
	return order, nil
}

// ListByBuyerEmail returns the buyer's orders, newest first.
func (r *MongoOrderRepository) ListByBuyerEmail(ctx context.Context, email string) ([]models.Order, error) {
	return r.find(ctx, bson.M{"buyer.email": email})
}

// ListAll returns all orders, newest first.
func (r *MongoOrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.find(ctx, bson.M{})
}

// MarkPaid performs a conditional update: the Paid fields are only written
// while the stored status is not Paid yet.
func (r *MongoOrderRepository) MarkPaid(ctx context.Context, id string, proof models.PaymentProof) (bool, error) {
	filter := bson.M{
		"_id":           id,
		"paymentStatus": bson.M{"$ne": models.PaymentPaid},
	}
	update := bson.M{"$set": paidFields(proof)}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark order %s as paid: %w", id, err)
	}
	if result.MatchedCount == 1 {
		return true, nil
	}

	// Nothing matched: either already paid or missing.
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to check order %s: %w", id, err)
	}
	if count == 0 {
		return false, fmt.Errorf("order with ID %s: %w", id, ErrOrderNotFound)
	}
	return false, nil
}

// paidFields settles a blank order and copies its payment fields, so the
// stored document matches what Order.Settle produces in memory.
func paidFields(proof models.PaymentProof) bson.M {
	proof.PaidAt = proof.PaidAt.UTC()
	settled := models.Order{PaymentStatus: models.PaymentPending}
	settled.Settle(proof)
	return bson.M{
		"paymentStatus": settled.PaymentStatus,
		"paymentId":     settled.PaymentID,
		"paidAt":        settled.PaidAt,
		"updatedAt":     settled.UpdatedAt,
	}
}

func (r *MongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	if err := r.collection.FindOne(ctx, filter).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *MongoOrderRepository) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}
