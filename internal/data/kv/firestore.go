package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/souling-backend/internal/platform/logger"
)

type FirestoreConfig struct {
	ProjectID string
	// Prefix namespaces the Firestore collections, e.g. "souling_" -> "souling_session".
	Prefix string
}

type firestoreDoc struct {
	Data      string    `firestore:"data"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type firestoreEngine struct {
	log    *logger.Logger
	client *firestore.Client
	prefix string
}

// NewFirestore honours FIRESTORE_EMULATOR_HOST through the client library.
func NewFirestore(ctx context.Context, cfg FirestoreConfig, log *logger.Logger) (Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, fmt.Errorf("missing firestore project id")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &firestoreEngine{
		log:    log.With("repo", "FirestoreEngine"),
		client: client,
		prefix: strings.TrimSpace(cfg.Prefix),
	}, nil
}

func (f *firestoreEngine) doc(collection, id string) *firestore.DocumentRef {
	return f.client.Collection(f.prefix + collection).Doc(docID(id))
}

// docID maps a record id onto a legal document id. Firestore rejects "/",
// the names "." and "..", and ids shaped like __name__.
func docID(id string) string {
	escaped := url.PathEscape(id)
	switch {
	case escaped == "." || escaped == "..":
		return strings.ReplaceAll(escaped, ".", "%2E")
	case strings.HasPrefix(escaped, "__"):
		return "%5F" + escaped[1:]
	}
	return escaped
}

func recordID(docID string) string {
	id, err := url.PathUnescape(docID)
	if err != nil {
		return docID
	}
	return id
}

func (f *firestoreEngine) Insert(ctx context.Context, collection, id string, data []byte) error {
	now := time.Now().UTC()
	_, err := f.doc(collection, id).Create(ctx, firestoreDoc{Data: string(data), CreatedAt: now, UpdatedAt: now})
	if status.Code(err) == codes.AlreadyExists {
		return ErrDuplicateID
	}
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *firestoreEngine) Get(ctx context.Context, collection, id string) ([]byte, error) {
	snap, err := f.doc(collection, id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	var d firestoreDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return []byte(d.Data), nil
}

func (f *firestoreEngine) Scan(ctx context.Context, collection string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		it := f.client.Collection(f.prefix+collection).
			OrderBy("created_at", firestore.Asc).
			Documents(ctx)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				yield(Record{}, fmt.Errorf("scan %s: %w", collection, err))
				return
			}
			var d firestoreDoc
			if err := snap.DataTo(&d); err != nil {
				yield(Record{}, fmt.Errorf("scan %s/%s: %w", collection, snap.Ref.ID, err))
				return
			}
			if !yield(Record{ID: recordID(snap.Ref.ID), Data: []byte(d.Data)}, nil) {
				return
			}
		}
	}
}

func (f *firestoreEngine) Update(ctx context.Context, collection, id string, fn MutateFunc) ([]byte, error) {
	ref := f.doc(collection, id)
	var next []byte
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var d firestoreDoc
		if err := snap.DataTo(&d); err != nil {
			return err
		}
		next, err = fn([]byte(d.Data))
		if err != nil {
			return err
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "data", Value: string(next)},
			{Path: "updated_at", Value: time.Now().UTC()},
		})
	}, firestore.MaxAttempts(maxUpdateAttempts))
	if status.Code(err) == codes.Aborted {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (f *firestoreEngine) Delete(ctx context.Context, collection, id string) error {
	if _, err := f.doc(collection, id).Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *firestoreEngine) Close() error {
	return f.client.Close()
}
