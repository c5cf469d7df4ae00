package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store against the hosted Firestore datastore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestore connects to the project's Firestore database.
func NewFirestore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("connect firestore: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Collection(name string) Collection {
	return &fsCollection{col: s.client.Collection(name)}
}

func (s *FirestoreStore) Batch() Batch {
	return &fsBatch{client: s.client, batch: s.client.Batch()}
}

// Health issues a cheap read to verify connectivity.
func (s *FirestoreStore) Health(ctx context.Context) error {
	it := s.client.Collections(ctx)
	if _, err := it.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("firestore health: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

type fsCollection struct {
	col *firestore.CollectionRef
}

func (c *fsCollection) Get(ctx context.Context, id string, dst any) error {
	snap, err := c.col.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("get %s/%s: %w", c.col.ID, id, err)
	}
	if err := snap.DataTo(dst); err != nil {
		return fmt.Errorf("decode %s/%s: %w", c.col.ID, id, err)
	}
	return nil
}

func (c *fsCollection) Set(ctx context.Context, id string, doc any) error {
	if _, err := c.col.Doc(id).Set(ctx, doc); err != nil {
		return fmt.Errorf("set %s/%s: %w", c.col.ID, id, err)
	}
	return nil
}

func (c *fsCollection) Delete(ctx context.Context, id string) error {
	if _, err := c.col.Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.col.ID, id, err)
	}
	return nil
}

func (c *fsCollection) Documents(ctx context.Context, q Query) ([]Snapshot, error) {
	query := c.col.Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, string(f.Op), f.Value)
	}

	if q.OrderBy != nil {
		dir := firestore.Asc
		if q.OrderBy.Desc {
			dir = firestore.Desc
		}
		// Explicit document-ID tie-break so cursors resume without skipping
		// or repeating rows that share a sort value.
		query = query.OrderBy(q.OrderBy.Field, dir).OrderBy(firestore.DocumentID, dir)
		if q.StartAfter != nil {
			query = query.StartAfter(q.StartAfter.SortValue, q.StartAfter.DocID)
		}
	} else if q.StartAfter != nil {
		query = query.OrderBy(firestore.DocumentID, firestore.Asc).StartAfter(q.StartAfter.DocID)
	}

	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var out []Snapshot
	it := query.Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", c.col.ID, err)
		}
		out = append(out, &fsSnapshot{snap: snap})
	}
	return out, nil
}

type fsSnapshot struct {
	snap *firestore.DocumentSnapshot
}

func (s *fsSnapshot) ID() string { return s.snap.Ref.ID }

func (s *fsSnapshot) DataTo(dst any) error { return s.snap.DataTo(dst) }

type fsBatch struct {
	client *firestore.Client
	batch  *firestore.WriteBatch
}

func (b *fsBatch) Set(collection, id string, doc any) {
	b.batch.Set(b.client.Collection(collection).Doc(id), doc)
}

func (b *fsBatch) Delete(collection, id string) {
	b.batch.Delete(b.client.Collection(collection).Doc(id))
}

func (b *fsBatch) Commit(ctx context.Context) error {
	if _, err := b.batch.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
