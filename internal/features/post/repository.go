package post

import (
	"context"
	"errors"
	"time"

	"go-social/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrPostNotFound = errors.New("post not found")

type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Post, error)
	FindByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Post, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type PostRepositoryImpl struct {
	collection *mongo.Collection
}

func NewPostRepository(db *database.MongodbDB) PostRepository {
	return &PostRepositoryImpl{
		collection: db.DB.Collection("posts"),
	}
}

func (r *PostRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *PostRepositoryImpl) Create(ctx context.Context, post *Post) error {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}

	_, err := r.collection.InsertOne(ctx, post)
	return err
}

func (r *PostRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Post, error) {
	var post Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostRepositoryImpl) FindByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *PostRepositoryImpl) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
