package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelworks/studio/internal/models"
)

// IProjectService defines read access to project records plus the
// deliverable-link attachment used by staff. Billing never mutates
// project work state; that belongs to the production side of the app.
type IProjectService interface {
	FindByID(ctx context.Context, projectID string) (*models.Project, error)
	FindByClient(ctx context.Context, clientID string) ([]models.Project, error)
	FindBillableByClient(ctx context.Context, clientID string) ([]models.Project, error)
	AddFileLink(ctx context.Context, projectID, objectKey string) error
	AddDesignLink(ctx context.Context, projectID, objectKey string) error
}

const projectsCollection = "projects"

// projectService implements IProjectService.
type projectService struct {
	db *mongo.Database
}

// NewProjectService creates a new ProjectService.
func NewProjectService(db *mongo.Database) IProjectService {
	return &projectService{db: db}
}

// FindByID finds a non-deleted project by its ID.
func (s *projectService) FindByID(ctx context.Context, projectID string) (*models.Project, error) {
	var project models.Project
	collection := s.db.Collection(projectsCollection)
	err := collection.FindOne(ctx, bson.M{"_id": projectID, "deleted": false}).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding project %s: %w", projectID, err)
	}
	return &project, nil
}

// FindByClient returns all non-deleted projects owned by a client,
// most recently updated first.
func (s *projectService) FindByClient(ctx context.Context, clientID string) ([]models.Project, error) {
	collection := s.db.Collection(projectsCollection)
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := collection.Find(ctx, bson.M{"client_id": clientID, "deleted": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects for client %s: %w", clientID, err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err = cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects for client %s: %w", clientID, err)
	}
	return projects, nil
}

// FindBillableByClient returns the client's projects that qualify for
// invoicing. The inclusion rule itself is pure (see IsBillable); the
// query only narrows by ownership, since work-state sentinels are free
// text upstream and are classified in Go rather than in Mongo filters.
func (s *projectService) FindBillableByClient(ctx context.Context, clientID string) ([]models.Project, error) {
	projects, err := s.FindByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	billable := projects[:0]
	for i := range projects {
		if IsBillable(&projects[i]) {
			billable = append(billable, projects[i])
		}
	}
	return billable, nil
}

func (s *projectService) pushLink(ctx context.Context, projectID, field, objectKey string) error {
	collection := s.db.Collection(projectsCollection)
	update := bson.M{
		"$push": bson.M{field: objectKey},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := collection.UpdateOne(ctx, bson.M{"_id": projectID, "deleted": false}, update)
	if err != nil {
		return fmt.Errorf("db error attaching %s to project %s: %w", field, projectID, err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AddFileLink attaches a delivered video file key to the project.
func (s *projectService) AddFileLink(ctx context.Context, projectID, objectKey string) error {
	return s.pushLink(ctx, projectID, "file_links", objectKey)
}

// AddDesignLink attaches a delivered design file key to the project.
func (s *projectService) AddDesignLink(ctx context.Context, projectID, objectKey string) error {
	return s.pushLink(ctx, projectID, "design_links", objectKey)
}
