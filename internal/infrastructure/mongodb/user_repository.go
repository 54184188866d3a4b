package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/martijn/usersapi/internal/core/domain"
	"github.com/martijn/usersapi/internal/core/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// userDocument is the stored shape of a user. Field names match the
// collection written by earlier versions of the service.
type userDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	FirstName string        `bson:"firstName"`
	LastName  string        `bson:"lastName"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	Hobby     []string      `bson:"hobby"`
	CreatedAt time.Time     `bson:"createdAt"`
}

func toDocument(user *domain.User) userDocument {
	hobby := user.Hobby
	if hobby == nil {
		hobby = []string{}
	}
	return userDocument{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Password:  user.Password,
		Hobby:     hobby,
		CreatedAt: user.CreatedAt,
	}
}

func (d *userDocument) toDomain() *domain.User {
	hobby := d.Hobby
	if hobby == nil {
		hobby = []string{}
	}
	return &domain.User{
		ID:        d.ID.Hex(),
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Password:  d.Password,
		Hobby:     hobby,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// parseID maps a malformed ObjectID to not found, as no document can carry it
func parseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, domain.ErrUserNotFound
	}
	return oid, nil
}

// buildUpdate turns a patch into a $set document
func buildUpdate(patch domain.UserPatch) bson.D {
	set := bson.D{}
	if patch.FirstName != nil {
		set = append(set, bson.E{Key: "firstName", Value: *patch.FirstName})
	}
	if patch.LastName != nil {
		set = append(set, bson.E{Key: "lastName", Value: *patch.LastName})
	}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *patch.Email})
	}
	if patch.Password != nil {
		set = append(set, bson.E{Key: "password", Value: *patch.Password})
	}
	if patch.Hobby != nil {
		hobby := *patch.Hobby
		if hobby == nil {
			hobby = []string{}
		}
		set = append(set, bson.E{Key: "hobby", Value: hobby})
	}
	if patch.CreatedAt != nil {
		set = append(set, bson.E{Key: "createdAt", Value: patch.CreatedAt.UTC()})
	}
	return bson.D{{Key: "$set", Value: set}}
}

type userRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{coll: db.Users()}
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc userDocument
	err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	doc := toDocument(user)
	doc.ID = bson.NewObjectID()

	_, err := r.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = doc.ID.Hex()
	user.Hobby = doc.Hobby
	return nil
}

func (r *userRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	// Validate the merged document before writing the patch
	current.Apply(patch)
	if err := current.Validate(); err != nil {
		return nil, err
	}

	oid, _ := parseID(id)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, buildUpdate(patch), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, domain.ErrEmailExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *userRepository) Delete(ctx context.Context, id string) (*domain.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc userDocument
	err = r.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return doc.toDomain(), nil
}
