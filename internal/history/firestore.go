package history

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// CollectionName is the top-level Firestore collection for user history.
	// Entries live at userHistory/{userId}/entries/{entryId}.
	CollectionName = "userHistory"

	entriesSubcollection = "entries"
)

// NewFirestoreClient creates a Firestore client through the Firebase app.
func NewFirestoreClient(ctx context.Context, projectID, credJSON string) (*firestore.Client, error) {
	opt := option.WithCredentialsJSON([]byte(credJSON))

	config := &firebase.Config{
		ProjectID: projectID,
	}

	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreBackend handles Firestore operations for history entries.
type FirestoreBackend struct {
	client *firestore.Client
}

// NewFirestoreBackend creates a new Firestore backend wrapper.
func NewFirestoreBackend(client *firestore.Client) *FirestoreBackend {
	if client == nil {
		return nil
	}
	return &FirestoreBackend{client: client}
}

func (f *FirestoreBackend) entries(ownerID string) *firestore.CollectionRef {
	return f.client.Collection(CollectionName).Doc(ownerID).Collection(entriesSubcollection)
}

// Append persists a new entry under the owner's log and returns its assigned
// ID. The creation timestamp is server-assigned: the zero CreatedAt is
// replaced by Firestore via the serverTimestamp tag.
func (f *FirestoreBackend) Append(ctx context.Context, ownerID string, entry *Entry) (string, error) {
	if f == nil || f.client == nil {
		return "", status.Error(codes.Internal, "firestore client is nil")
	}
	if ownerID == "" || entry == nil {
		return "", status.Error(codes.InvalidArgument, "ownerID and entry must be non-empty")
	}

	entryID := uuid.New().String()
	entry.OwnerID = ownerID

	docRef := f.entries(ownerID).Doc(entryID)
	if _, err := docRef.Create(ctx, entry); err != nil {
		return "", status.Errorf(codes.Internal, "failed to append history entry for user %s: %v", ownerID, err)
	}

	return entryID, nil
}

// List returns all entries for the owner, newest first by server timestamp.
func (f *FirestoreBackend) List(ctx context.Context, ownerID string) ([]*Entry, error) {
	if f == nil || f.client == nil {
		return nil, status.Error(codes.Internal, "firestore client is nil")
	}
	if ownerID == "" {
		return nil, status.Error(codes.InvalidArgument, "ownerID must be non-empty")
	}

	snapshot, err := f.entries(ownerID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to list history for user %s: %v", ownerID, err)
	}

	entries := make([]*Entry, 0, len(snapshot))
	for _, doc := range snapshot {
		var entry Entry
		if err := doc.DataTo(&entry); err != nil {
			return nil, status.Errorf(codes.Internal, "failed to parse history entry %s: %v", doc.Ref.ID, err)
		}
		entry.ID = doc.Ref.ID
		entries = append(entries, &entry)
	}

	return entries, nil
}

// Get retrieves a single entry for re-viewing.
func (f *FirestoreBackend) Get(ctx context.Context, ownerID, entryID string) (*Entry, error) {
	if f == nil || f.client == nil {
		return nil, status.Error(codes.Internal, "firestore client is nil")
	}
	if ownerID == "" || entryID == "" {
		return nil, status.Error(codes.InvalidArgument, "ownerID and entryID must be non-empty")
	}

	doc, err := f.entries(ownerID).Doc(entryID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, status.Errorf(codes.NotFound, "history entry not found: %s", entryID)
		}
		return nil, status.Errorf(codes.Internal, "failed to get history entry %s: %v", entryID, err)
	}

	var entry Entry
	if err := doc.DataTo(&entry); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to parse history entry %s: %v", entryID, err)
	}
	entry.ID = doc.Ref.ID

	return &entry, nil
}
