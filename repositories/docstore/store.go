// Package docstore хранит сущности в Cloud Firestore в формате коллекций
// songs, classes, matches, votes и brackets.
//
// Записи внутри WithinTx буферизуются и применяются в конце транзакции,
// поэтому чтения в транзакции видят состояние на момент её начала.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Dosada05/song-bracket/repositories"
)

const (
	songsCollection    = "songs"
	classesCollection  = "classes"
	matchesCollection  = "matches"
	votesCollection    = "votes"
	bracketsCollection = "brackets"
)

var errDocumentNotFound = errors.New("document not found")

type Config struct {
	ProjectID       string
	CredentialsFile string
}

type Store struct {
	client *firestore.Client
}

// Open создаёт клиент Firestore через Firebase Admin SDK.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return NewStore(client), nil
}

func NewStore(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) reposFor(sess *session) repositories.Repositories {
	return repositories.Repositories{
		Songs:    &songRepository{sess: sess},
		Classes:  &classRepository{sess: sess},
		Matches:  &matchRepository{sess: sess},
		Votes:    &voteRepository{sess: sess},
		Brackets: &bracketRepository{sess: sess},
	}
}

func (s *Store) Repos() repositories.Repositories {
	return s.reposFor(&session{client: s.client})
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repositories.Repositories) error) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		sess := &session{client: s.client, tx: tx}
		if err := fn(ctx, s.reposFor(sess)); err != nil {
			return err
		}
		return sess.flush()
	})
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(bracketsCollection).Limit(1).Documents(ctx).GetAll()
	return err
}

func (s *Store) Close() error {
	return s.client.Close()
}

// session выполняет операции либо напрямую, либо в рамках транзакции.
// В транзакции записи копятся в pending и сливаются по документу:
// Firestore не принимает две записи одного документа в одном коммите.
type session struct {
	client  *firestore.Client
	tx      *firestore.Transaction
	order   []string
	pending map[string]*pendingWrite
}

type writeKind int

const (
	writeCreate writeKind = iota
	writeSet
	writeUpdate
	writeDelete
)

type pendingWrite struct {
	ref     *firestore.DocumentRef
	kind    writeKind
	data    interface{}
	updates []firestore.Update
}

func (s *session) collection(name string) *firestore.CollectionRef {
	return s.client.Collection(name)
}

func (s *session) get(ctx context.Context, ref *firestore.DocumentRef) (*firestore.DocumentSnapshot, error) {
	var (
		snap *firestore.DocumentSnapshot
		err  error
	)
	if s.tx != nil {
		snap, err = s.tx.Get(ref)
	} else {
		snap, err = ref.Get(ctx)
	}
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errDocumentNotFound
		}
		return nil, err
	}
	return snap, nil
}

func (s *session) query(ctx context.Context, q firestore.Query) ([]*firestore.DocumentSnapshot, error) {
	if s.tx != nil {
		return s.tx.Documents(q).GetAll()
	}
	return q.Documents(ctx).GetAll()
}

// pendingData возвращает данные документа, созданного в текущей транзакции.
func (s *session) pendingData(ref *firestore.DocumentRef) (interface{}, bool) {
	w, ok := s.pending[ref.Path]
	if !ok || (w.kind != writeCreate && w.kind != writeSet) {
		return nil, false
	}
	return w.data, true
}

func (s *session) enqueue(w *pendingWrite) error {
	if s.pending == nil {
		s.pending = make(map[string]*pendingWrite)
	}
	prev, ok := s.pending[w.ref.Path]
	if !ok {
		s.order = append(s.order, w.ref.Path)
		s.pending[w.ref.Path] = w
		return nil
	}

	switch w.kind {
	case writeDelete, writeSet:
		s.pending[w.ref.Path] = w
	case writeCreate:
		if prev.kind != writeDelete {
			return fmt.Errorf("document %s is written twice in one transaction", w.ref.Path)
		}
		w.kind = writeSet
		s.pending[w.ref.Path] = w
	case writeUpdate:
		if prev.kind != writeUpdate {
			return fmt.Errorf("document %s is written twice in one transaction", w.ref.Path)
		}
		prev.updates = append(prev.updates, w.updates...)
	}
	return nil
}

func (s *session) set(ctx context.Context, ref *firestore.DocumentRef, data interface{}) error {
	if s.tx != nil {
		return s.enqueue(&pendingWrite{ref: ref, kind: writeSet, data: data})
	}
	_, err := ref.Set(ctx, data)
	return err
}

func (s *session) create(ctx context.Context, ref *firestore.DocumentRef, data interface{}) error {
	if s.tx != nil {
		return s.enqueue(&pendingWrite{ref: ref, kind: writeCreate, data: data})
	}
	_, err := ref.Create(ctx, data)
	return err
}

func (s *session) update(ctx context.Context, ref *firestore.DocumentRef, updates []firestore.Update) error {
	if s.tx != nil {
		return s.enqueue(&pendingWrite{ref: ref, kind: writeUpdate, updates: updates})
	}
	_, err := ref.Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return errDocumentNotFound
	}
	return err
}

func (s *session) delete(ctx context.Context, ref *firestore.DocumentRef) error {
	if s.tx != nil {
		return s.enqueue(&pendingWrite{ref: ref, kind: writeDelete})
	}
	_, err := ref.Delete(ctx)
	return err
}

func (s *session) flush() error {
	for _, path := range s.order {
		w := s.pending[path]
		var err error
		switch w.kind {
		case writeCreate:
			err = s.tx.Create(w.ref, w.data)
		case writeSet:
			err = s.tx.Set(w.ref, w.data)
		case writeUpdate:
			err = s.tx.Update(w.ref, w.updates)
		case writeDelete:
			err = s.tx.Delete(w.ref)
		}
		if err != nil {
			return err
		}
	}
	s.order = nil
	s.pending = nil
	return nil
}

func mapNotFound(err error, target error) error {
	if errors.Is(err, errDocumentNotFound) {
		return target
	}
	return err
}
