package karma

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/karma-tracker/internal/common"
	"serotonyl.ru/karma-tracker/internal/storage"
)

// memoryStore — хранилище в памяти для тестов сервиса.
type memoryStore struct {
	mu       sync.Mutex
	nextID   int64
	points   map[string]KarmaPoint
	statuses map[int64][]KarmaStatus
	failWith error
	inserts  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{points: map[string]KarmaPoint{}, statuses: map[int64][]KarmaStatus{}}
}

func (m *memoryStore) InsertKarma(_ context.Context, point KarmaPoint) (KarmaPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.failWith != nil {
		return KarmaPoint{}, m.failWith
	}
	if _, ok := m.points[point.Name]; ok {
		return KarmaPoint{}, &storage.Error{Op: "insert karma", Kind: storage.ErrDuplicate}
	}
	m.nextID++
	point.ID = m.nextID
	m.points[point.Name] = point
	return point, nil
}

func (m *memoryStore) GetKarmaByName(_ context.Context, name string) (KarmaPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.points[name]
	if !ok {
		return KarmaPoint{}, &storage.Error{Op: "get karma", Kind: storage.ErrNotFound}
	}
	return p, nil
}

func (m *memoryStore) InsertStatus(_ context.Context, status KarmaStatus) (KarmaStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[status.KarmaID] = append(m.statuses[status.KarmaID], status)
	return status, nil
}

func (m *memoryStore) GetStatus(ctx context.Context, point KarmaPoint) (KarmaStatus, error) {
	p, err := m.GetKarmaByName(ctx, point.Name)
	if err != nil {
		return KarmaStatus{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.statuses[p.ID]
	if len(history) == 0 {
		return KarmaStatus{}, &storage.Error{Op: "get karma status", Kind: storage.ErrNotFound}
	}
	return history[len(history)-1], nil
}

func TestService_CreateKarma(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	created, err := svc.CreateKarma(ctx, NewKarmaPoint(Work, "focus"))
	require.NoError(t, err)
	assert.True(t, created.Persisted())

	got, err := svc.GetKarma(ctx, "focus")
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestService_CreateKarmaWrapsStorageErrors(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	_, err := svc.CreateKarma(ctx, NewKarmaPoint(Work, "focus"))
	require.NoError(t, err)

	_, err = svc.CreateKarma(ctx, NewKarmaPoint(Social, "focus"))
	var svcErr *common.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "create_karma", svcErr.Op)
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	data, mErr := json.Marshal(err)
	require.NoError(t, mErr)
	assert.JSONEq(t, `{"kind":"storage","cause":{"kind":"external"}}`, string(data))

	store.failWith = errors.New("disk I/O error")
	_, err = svc.CreateKarma(ctx, NewKarmaPoint(Work, "other"))
	require.ErrorAs(t, err, &svcErr)
}

func TestService_ValidationNeverReachesStore(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	_, err := svc.CreateKarma(ctx, NewKarmaPoint(Work, "   "))
	assert.ErrorIs(t, err, common.ErrKarmaNameEmpty)

	_, err = svc.CreateKarma(ctx, NewKarmaPoint(KarmaType(7), "bad purpose"))
	assert.ErrorIs(t, err, common.ErrKarmaPurposeInvalid)

	_, err = svc.CreateKarma(ctx, KarmaPoint{ID: 3, Purpose: Work, Name: "already"})
	assert.ErrorIs(t, err, common.ErrKarmaAlreadyPersisted)

	_, err = svc.SetStatus(ctx, NewKarmaStatus(0, Active, 1))
	assert.ErrorIs(t, err, common.ErrKarmaStatusInvalid)

	_, err = svc.CloseKarma(ctx, "anything", KarmaType(12), 1)
	assert.ErrorIs(t, err, common.ErrKarmaPurposeInvalid)

	assert.Zero(t, store.inserts)
}

func TestService_StartAndCloseKarma(t *testing.T) {
	svc := NewService(newMemoryStore())
	ctx := context.Background()

	point, err := svc.CreateKarma(ctx, NewKarmaPoint(Work, "morning run"))
	require.NoError(t, err)

	started, err := svc.StartKarma(ctx, "morning run", 100)
	require.NoError(t, err)
	assert.Equal(t, NewKarmaStatus(point.ID, Active, 100), started)

	closed, err := svc.CloseKarma(ctx, "morning run", Sport, 200)
	require.NoError(t, err)
	assert.Equal(t, WithClosedReason(point.ID, Closed, 200, Sport), closed)

	current, err := svc.GetStatus(ctx, "morning run")
	require.NoError(t, err)
	assert.Equal(t, closed, current)
}

func TestService_MissingKarma(t *testing.T) {
	svc := NewService(newMemoryStore())
	ctx := context.Background()

	_, err := svc.GetKarma(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.StartKarma(ctx, "nope", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.GetStatus(ctx, "nope")
	var svcErr *common.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "get_status", svcErr.Op)
}
