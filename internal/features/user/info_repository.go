package user

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

var ErrUserInfoNotFound = errors.New("user info not found")

// UserInfoRepository owns the user_infos collection, including the
// following_groups index kept in step with group membership.
type UserInfoRepository interface {
	Create(ctx context.Context, info *UserInfo) error
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*UserInfo, error)
	FindByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]UserInfo, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, patch ProfilePatch) error
	SetProfilePicture(ctx context.Context, userID primitive.ObjectID, url string) error

	AddFollowingGroup(ctx context.Context, userID, groupID primitive.ObjectID) error
	RemoveFollowingGroup(ctx context.Context, userID, groupID primitive.ObjectID) error
	RemoveGroupFromUsers(ctx context.Context, userIDs []primitive.ObjectID, groupID primitive.ObjectID) (int64, error)
	SyncGroupFollowers(ctx context.Context, groupID primitive.ObjectID, members []primitive.ObjectID) (added, removed int64, err error)
	DistinctFollowingGroups(ctx context.Context) ([]primitive.ObjectID, error)
	PullGroups(ctx context.Context, groupIDs []primitive.ObjectID) (int64, error)

	EnsureIndexes(ctx context.Context) error
}

type UserInfoRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewUserInfoRepository(mongodb *database.MongodbDB) UserInfoRepository {
	return &UserInfoRepositoryImpl{
		Collection: mongodb.DB.Collection("user_infos"),
	}
}

func (r *UserInfoRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "following_groups", Value: 1}}},
	})
	return err
}

func (r *UserInfoRepositoryImpl) Create(ctx context.Context, info *UserInfo) error {
	now := time.Now()
	if info.ID.IsZero() {
		info.ID = primitive.NewObjectID()
	}
	if info.FollowingGroups == nil {
		info.FollowingGroups = []primitive.ObjectID{}
	}
	info.CreatedAt = now
	info.UpdatedAt = now

	_, err := r.Collection.InsertOne(ctx, info)
	return err
}

func (r *UserInfoRepositoryImpl) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*UserInfo, error) {
	var info UserInfo
	err := r.Collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&info)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserInfoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *UserInfoRepositoryImpl) FindByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]UserInfo, error) {
	if len(userIDs) == 0 {
		return []UserInfo{}, nil
	}
	cursor, err := r.Collection.Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var infos []UserInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

func (r *UserInfoRepositoryImpl) UpdateProfile(ctx context.Context, userID primitive.ObjectID, patch ProfilePatch) error {
	set := bson.M{"updated_at": time.Now()}
	if patch.FirstName != nil {
		set["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["last_name"] = *patch.LastName
	}
	return r.updateOne(ctx, userID, bson.M{"$set": set})
}

func (r *UserInfoRepositoryImpl) SetProfilePicture(ctx context.Context, userID primitive.ObjectID, url string) error {
	return r.updateOne(ctx, userID, bson.M{"$set": bson.M{"profile_picture": url, "updated_at": time.Now()}})
}

func (r *UserInfoRepositoryImpl) updateOne(ctx context.Context, userID primitive.ObjectID, update bson.M) error {
	res, err := r.Collection.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserInfoNotFound
	}
	return nil
}

// AddFollowingGroup is a no-op for users without a UserInfo document
func (r *UserInfoRepositoryImpl) AddFollowingGroup(ctx context.Context, userID, groupID primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$addToSet": bson.M{"following_groups": groupID}, "$set": bson.M{"updated_at": time.Now()}},
	)
	return err
}

func (r *UserInfoRepositoryImpl) RemoveFollowingGroup(ctx context.Context, userID, groupID primitive.ObjectID) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"user_id": userID, "following_groups": groupID},
		bson.M{"$pull": bson.M{"following_groups": groupID}, "$set": bson.M{"updated_at": time.Now()}},
	)
	return err
}

func (r *UserInfoRepositoryImpl) RemoveGroupFromUsers(ctx context.Context, userIDs []primitive.ObjectID, groupID primitive.ObjectID) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	res, err := r.Collection.UpdateMany(ctx,
		bson.M{"user_id": bson.M{"$in": userIDs}, "following_groups": groupID},
		bson.M{"$pull": bson.M{"following_groups": groupID}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// SyncGroupFollowers makes following_groups contain groupID exactly for members
func (r *UserInfoRepositoryImpl) SyncGroupFollowers(ctx context.Context, groupID primitive.ObjectID, members []primitive.ObjectID) (int64, int64, error) {
	if members == nil {
		members = []primitive.ObjectID{}
	}

	var added int64
	if len(members) > 0 {
		res, err := r.Collection.UpdateMany(ctx,
			bson.M{"user_id": bson.M{"$in": members}, "following_groups": bson.M{"$ne": groupID}},
			bson.M{"$addToSet": bson.M{"following_groups": groupID}},
		)
		if err != nil {
			return 0, 0, err
		}
		added = res.ModifiedCount
	}

	res, err := r.Collection.UpdateMany(ctx,
		bson.M{"user_id": bson.M{"$nin": members}, "following_groups": groupID},
		bson.M{"$pull": bson.M{"following_groups": groupID}},
	)
	if err != nil {
		return added, 0, err
	}
	return added, res.ModifiedCount, nil
}

func (r *UserInfoRepositoryImpl) DistinctFollowingGroups(ctx context.Context) ([]primitive.ObjectID, error) {
	values, err := r.Collection.Distinct(ctx, "following_groups", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if oid, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, oid)
		}
	}
	return ids, nil
}

func (r *UserInfoRepositoryImpl) PullGroups(ctx context.Context, groupIDs []primitive.ObjectID) (int64, error) {
	if len(groupIDs) == 0 {
		return 0, nil
	}
	res, err := r.Collection.UpdateMany(ctx,
		bson.M{"following_groups": bson.M{"$in": groupIDs}},
		bson.M{"$pull": bson.M{"following_groups": bson.M{"$in": groupIDs}}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
