package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ErrUserNotFound indicates no user exists for the given email.
var ErrUserNotFound = errors.New("auth.user_not_found")

// User is the storefront account read for credential verification. The
// session keeps a denormalized snapshot of these fields until the next
// login.
type User struct {
	ID           uuid.UUID `bson:"_id"`
	Email        string    `bson:"email"`
	Name         string    `bson:"name"`
	Role         string    `bson:"role"`
	PasswordHash string    `bson:"password_hash"`
}

// UserRepository looks up storefront accounts. Registration and profile
// management live elsewhere; the session service only reads.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// MongoUserRepository reads users from the storefront's document
// database.
type MongoUserRepository struct {
	users *mongo.Collection
}

// NewMongoUserRepository creates a repository over the given database's
// "users" collection.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{users: db.Collection("users")}
}

// FindByEmail returns the user with the given email, case-insensitive.
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.users.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// MemoryUserRepository holds users in memory. Used by tests and local
// development without a database.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryUserRepository creates an empty in-memory repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*User)}
}

// Add stores a user keyed by lowercase email.
func (r *MemoryUserRepository) Add(user *User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[strings.ToLower(user.Email)] = user
}

// FindByEmail returns the user with the given email, case-insensitive.
func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}
