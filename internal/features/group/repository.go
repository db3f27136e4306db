package group

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go-social/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GroupRepository persists groups. Membership mutations are single-document
// conditional updates, so members stays duplicate-free and member_count moves
// with it even under concurrent requests.
type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	FindAll(ctx context.Context) ([]Group, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*Group, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Group, error)
	FindByCreator(ctx context.Context, userID primitive.ObjectID) ([]Group, error)
	FindByMember(ctx context.Context, userID primitive.ObjectID) ([]Group, error)
	NameTaken(ctx context.Context, name string, exclude primitive.ObjectID) (bool, error)
	Update(ctx context.Context, group *Group) error
	SetImage(ctx context.Context, id primitive.ObjectID, url string) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	AddMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	AddPendingRequest(ctx context.Context, groupID primitive.ObjectID, req PendingRequest) (bool, error)
	RemovePendingRequest(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
	RepairMembers(ctx context.Context, groupID primitive.ObjectID, seen, members []primitive.ObjectID) (bool, error)

	EnsureIndexes(ctx context.Context) error
}

type GroupRepositoryImpl struct {
	collection *mongo.Collection
}

func NewGroupRepository(db *database.MongodbDB) GroupRepository {
	return &GroupRepositoryImpl{
		collection: db.DB.Collection("groups"),
	}
}

// nameCollation makes the unique name index case-insensitive
var nameCollation = &options.Collation{Locale: "en", Strength: 2}

// nameIndex is the server's default name for the {name: 1} index
const nameIndex = "name_1"

// isNameConflict reports whether err is a duplicate key on the name index.
// Other duplicate keys (an _id collision) are not name conflicts.
func isNameConflict(err error) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), "index: "+nameIndex+" ")
}

func (r *GroupRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName(nameIndex).SetUnique(true).SetCollation(nameCollation),
		},
		{Keys: bson.D{{Key: "members", Value: 1}}},
		{Keys: bson.D{{Key: "creator", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *GroupRepositoryImpl) Create(ctx context.Context, group *Group) error {
	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now

	if group.ID.IsZero() {
		group.ID = primitive.NewObjectID()
	}
	if group.Members == nil {
		group.Members = []primitive.ObjectID{}
	}
	if group.PendingRequests == nil {
		group.PendingRequests = []PendingRequest{}
	}
	group.MemberCount = len(group.Members)

	_, err := r.collection.InsertOne(ctx, group)
	if isNameConflict(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *GroupRepositoryImpl) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]Group, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	groups := []Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
}

func (r *GroupRepositoryImpl) FindAll(ctx context.Context) ([]Group, error) {
	return r.find(ctx, bson.M{})
}

func (r *GroupRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Group, error) {
	var group Group
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepositoryImpl) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Group, error) {
	if len(ids) == 0 {
		return []Group{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *GroupRepositoryImpl) FindByCreator(ctx context.Context, userID primitive.ObjectID) ([]Group, error) {
	return r.find(ctx, bson.M{"creator": userID}, newestFirst())
}

func (r *GroupRepositoryImpl) FindByMember(ctx context.Context, userID primitive.ObjectID) ([]Group, error) {
	return r.find(ctx, bson.M{"members": userID}, newestFirst())
}

// NameTaken matches the whole name case-insensitively; regex metacharacters in
// the name are matched literally.
func (r *GroupRepositoryImpl) NameTaken(ctx context.Context, name string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"name": bson.M{"$regex": "^" + regexp.QuoteMeta(name) + "$", "$options": "i"},
	}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GroupRepositoryImpl) Update(ctx context.Context, group *Group) error {
	group.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"name":        group.Name,
			"description": group.Description,
			"image":       group.Image,
			"is_private":  group.IsPrivate,
			"updated_at":  group.UpdatedAt,
		},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": group.ID}, update)
	if isNameConflict(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrGroupNotFound
	}
	return nil
}

func (r *GroupRepositoryImpl) SetImage(ctx context.Context, id primitive.ObjectID, url string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"image": url, "updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrGroupNotFound
	}
	return nil
}

func (r *GroupRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// AddMember adds userID unless already present and drops any pending request
// of that user. It reports whether the user was added.
func (r *GroupRepositoryImpl) AddMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": groupID, "members": bson.M{"$ne": userID}}
	update := bson.M{
		"$push": bson.M{"members": userID},
		"$inc":  bson.M{"member_count": 1},
		"$pull": bson.M{"pending_requests": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *GroupRepositoryImpl) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": groupID, "members": userID}
	update := bson.M{
		"$pull": bson.M{"members": userID},
		"$inc":  bson.M{"member_count": -1},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// AddPendingRequest appends the request unless the user is a member or already waiting
func (r *GroupRepositoryImpl) AddPendingRequest(ctx context.Context, groupID primitive.ObjectID, req PendingRequest) (bool, error) {
	filter := bson.M{
		"_id":                      groupID,
		"members":                  bson.M{"$ne": req.UserID},
		"pending_requests.user_id": bson.M{"$ne": req.UserID},
	}
	update := bson.M{
		"$push": bson.M{"pending_requests": req},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *GroupRepositoryImpl) RemovePendingRequest(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": groupID, "pending_requests.user_id": userID}
	update := bson.M{
		"$pull": bson.M{"pending_requests": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// RepairMembers overwrites members and recomputes member_count, but only
// while members still equals seen. It reports whether the write happened.
func (r *GroupRepositoryImpl) RepairMembers(ctx context.Context, groupID primitive.ObjectID, seen, members []primitive.ObjectID) (bool, error) {
	if members == nil {
		members = []primitive.ObjectID{}
	}
	filter := bson.M{"_id": groupID, "members": seen}
	if len(seen) == 0 {
		filter = bson.M{"_id": groupID, "$or": bson.A{
			bson.M{"members": nil},
			bson.M{"members": bson.M{"$size": 0}},
		}}
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{
			"members":      members,
			"member_count": len(members),
			"updated_at":   time.Now(),
		},
	})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}
