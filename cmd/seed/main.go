package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go-social/internal/config"
	"go-social/internal/database"
	"go-social/internal/features/group"
	"go-social/internal/features/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const demoPassword = "password123"

type demoUser struct {
	Name      string
	Email     string
	FirstName string
	LastName  string
}

type demoGroup struct {
	Name        string
	Description string
	IsPrivate   bool
	Creator     int
	Members     []int
	Requests    []int
}

var demoUsers = []demoUser{
	{Name: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Martin"},
	{Name: "bob", Email: "bob@example.com", FirstName: "Bob", LastName: "Nguyen"},
	{Name: "carol", Email: "carol@example.com"},
	{Name: "dave", Email: "dave@example.com", FirstName: "Dave"},
}

var demoGroups = []demoGroup{
	{Name: "Weekend Hikers", Description: "Trails and meetups", Creator: 0, Members: []int{1, 2}},
	{Name: "Book Club", Description: "One book a month", IsPrivate: true, Creator: 1, Members: []int{3}, Requests: []int{2}},
	{Name: "Go Developers", Description: "Gophers of the city", Creator: 2},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	db := &database.MongodbDB{Client: client, DB: client.Database(cfg.DBName)}
	users := user.NewUserRepository(db)
	infos := user.NewUserInfoRepository(db)
	groups := group.NewGroupRepository(db)

	for _, repo := range []database.IndexedRepository{users, infos, groups} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to ensure indexes: %v", err)
		}
	}

	fmt.Println("Seeding demo users...")
	ids := make([]primitive.ObjectID, len(demoUsers))
	for i, du := range demoUsers {
		id, err := seedUser(ctx, users, infos, du)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", du.Email, err)
		}
		ids[i] = id
	}

	fmt.Println("Seeding demo groups...")
	for _, dg := range demoGroups {
		if err := seedGroup(ctx, groups, infos, dg, ids); err != nil {
			log.Fatalf("Failed to seed group %s: %v", dg.Name, err)
		}
	}

	fmt.Printf("Done. Every demo account uses the password %q\n", demoPassword)
}

func seedUser(ctx context.Context, users user.UserRepository, infos user.UserInfoRepository, du demoUser) (primitive.ObjectID, error) {
	existing, err := users.FindByEmail(ctx, du.Email)
	if err == nil {
		fmt.Printf("User %s already exists\n", du.Email)
		return existing.ID, nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return primitive.NilObjectID, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return primitive.NilObjectID, err
	}

	u := &user.User{Name: du.Name, Email: du.Email, Password: string(hash)}
	if err := users.Create(ctx, u); err != nil {
		return primitive.NilObjectID, err
	}
	info := &user.UserInfo{UserID: u.ID, FirstName: du.FirstName, LastName: du.LastName}
	if err := infos.Create(ctx, info); err != nil {
		return primitive.NilObjectID, err
	}

	fmt.Printf("Created User: %s\n", du.Email)
	return u.ID, nil
}

func seedGroup(ctx context.Context, groups group.GroupRepository, infos user.UserInfoRepository, dg demoGroup, ids []primitive.ObjectID) error {
	taken, err := groups.NameTaken(ctx, dg.Name, primitive.NilObjectID)
	if err != nil {
		return err
	}
	if taken {
		fmt.Printf("Group %s already exists\n", dg.Name)
		return nil
	}

	creator := ids[dg.Creator]
	members := []primitive.ObjectID{creator}
	for _, i := range dg.Members {
		members = append(members, ids[i])
	}
	requests := make([]group.PendingRequest, 0, len(dg.Requests))
	for _, i := range dg.Requests {
		requests = append(requests, group.PendingRequest{UserID: ids[i], RequestedAt: time.Now()})
	}

	g := &group.Group{
		Name:            dg.Name,
		Description:     dg.Description,
		IsPrivate:       dg.IsPrivate,
		Creator:         creator,
		Members:         members,
		PendingRequests: requests,
	}
	if err := groups.Create(ctx, g); err != nil {
		return err
	}
	if _, _, err := infos.SyncGroupFollowers(ctx, g.ID, members); err != nil {
		return err
	}

	fmt.Printf("Created Group: %s (%d members)\n", g.Name, g.MemberCount)
	return nil
}
