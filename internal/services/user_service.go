package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelworks/studio/internal/auth"
	"reelworks/studio/internal/db"
	"reelworks/studio/internal/models"
)

// ErrEmailExists is returned when an attempt is made to use an email that already exists.
var ErrEmailExists = errors.New("email already in use by another account")

// ErrBadCredentials is returned when login fails, without revealing
// whether the account exists.
var ErrBadCredentials = errors.New("invalid email or password")

// IUserService defines the interface for user-related operations.
type IUserService interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, name, email, password string, role models.Role, groupID string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetAllClientIDs(ctx context.Context) ([]string, error)
	Suspend(ctx context.Context, userID, reason string) (bool, error)
	ClearSuspension(ctx context.Context, userID string) (bool, error)
}

const usersCollection = "users"

// userService implements IUserService.
type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(database *mongo.Database) IUserService {
	return &userService{db: database}
}

// FindByID finds a non-deleted user by their ID.
func (s *userService) FindByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)
	err := collection.FindOne(ctx, bson.M{"_id": userID, "deleted": false}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by ID %s: %w", userID, err)
	}
	return &user, nil
}

// FindByEmail finds a non-deleted user by their email address.
func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	collection := s.db.Collection(usersCollection)
	err := collection.FindOne(ctx, bson.M{"email": email, "deleted": false}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user by email %s: %w", email, err)
	}
	return &user, nil
}

// CreateUser creates an account with the given role. Admins use this to
// provision clients and staff; there is no self-service signup.
func (s *userService) CreateUser(ctx context.Context, name, email, password string, role models.Role, groupID string) (*models.User, error) {
	collection := s.db.Collection(usersCollection)

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password for %s: %w", email, err)
	}

	now := time.Now().UTC()
	var newUser *models.User

	// Retried so an unlikely _id collision gets a fresh UUID; an email
	// collision surfaces through the unique index instead.
	err = db.Try(func() error {
		newUser = &models.User{
			Base:         models.NewBase(),
			Name:         name,
			Email:        email,
			PasswordHash: passwordHash,
			Role:         role,
			GroupID:      groupID,
			CreatedAt:    now,
			UpdatedAt:    now,
			NotificationPreferences: &models.NotificationPreferences{
				ProjectUpdates: true,
				InvoiceIssued:  true,
			},
		}
		_, insertErr := collection.InsertOne(ctx, newUser)
		return insertErr
	})
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) && strings.Contains(err.Error(), "email") {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("error inserting user for %s: %w", email, err)
	}

	return newUser, nil
}

// Authenticate verifies email+password and returns the account.
// Suspended accounts still authenticate; route guards decide what a
// suspended session may reach (they must be able to pay).
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// GetAllClientIDs returns the IDs of all non-deleted client accounts,
// for the periodic escalation scan.
func (s *userService) GetAllClientIDs(ctx context.Context) ([]string, error) {
	collection := s.db.Collection(usersCollection)
	filter := bson.M{"role": models.RoleClient, "deleted": false}
	opts := options.Find().SetProjection(bson.M{"_id": 1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query client IDs: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		ID string `bson:"_id"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode client IDs: %w", err)
	}

	ids := make([]string, len(results))
	for i, res := range results {
		ids[i] = res.ID
	}
	return ids, nil
}

// Suspend marks a user as suspended with a reason. Suspending an
// already-suspended user is a no-op, not an error; the bool reports
// whether this call performed the transition.
func (s *userService) Suspend(ctx context.Context, userID, reason string) (bool, error) {
	collection := s.db.Collection(usersCollection)
	now := time.Now().UTC()
	filter := bson.M{"_id": userID, "deleted": false, "suspended": false}
	update := bson.M{"$set": bson.M{
		"suspended":         true,
		"suspended_at":      now,
		"suspension_reason": reason,
		"updated_at":        now,
	}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("db error suspending user %s: %w", userID, err)
	}
	if result.MatchedCount == 0 {
		// Either already suspended or missing; only the latter is an error.
		if _, findErr := s.FindByID(ctx, userID); findErr != nil {
			return false, findErr
		}
		return false, nil
	}
	log.Printf("User %s suspended: %s", userID, reason)
	return true, nil
}

// ClearSuspension lifts a suspension. No-op for users who are not
// suspended; the bool reports whether this call cleared it.
func (s *userService) ClearSuspension(ctx context.Context, userID string) (bool, error) {
	collection := s.db.Collection(usersCollection)
	filter := bson.M{"_id": userID, "deleted": false, "suspended": true}
	update := bson.M{
		"$set":   bson.M{"suspended": false, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"suspended_at": "", "suspension_reason": ""},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("db error unsuspending user %s: %w", userID, err)
	}
	if result.MatchedCount == 0 {
		if _, findErr := s.FindByID(ctx, userID); findErr != nil {
			return false, findErr
		}
		return false, nil
	}
	log.Printf("User %s suspension cleared", userID)
	return true, nil
}
