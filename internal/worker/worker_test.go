package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/domain"
	"marketpulse/internal/source"
	"marketpulse/internal/store"
)

// memStore is an in-memory store.Store for worker tests. It records
// every status transition so tests can assert monotonicity.
type memStore struct {
	mu        sync.Mutex
	tasks     map[string]domain.Task
	records   map[string][]domain.DataRecord
	history   map[string][]domain.TaskStatus
	appendErr error
}

func newMemStore() *memStore {
	return &memStore{
		tasks:   make(map[string]domain.Task),
		records: make(map[string][]domain.DataRecord),
		history: make(map[string][]domain.TaskStatus),
	}
}

func (m *memStore) CreateTask(_ context.Context, name string, params domain.FilterParams) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := domain.Task{
		ID:           fmt.Sprintf("tsk_%d", len(m.tasks)+1),
		Name:         name,
		Status:       domain.StatusPending,
		FilterParams: params,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	m.tasks[t.ID] = t
	return t, nil
}

func (m *memStore) GetTask(_ context.Context, id string) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, store.ErrNotFound
	}
	return t, nil
}

func (m *memStore) ListTasks(_ context.Context) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Task
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, status domain.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	m.tasks[id] = t
	m.history[id] = append(m.history[id], status)
	return nil
}

func (m *memStore) AppendRecords(_ context.Context, taskID string, records []domain.DataRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	for _, r := range records {
		r.TaskID = taskID
		m.records[taskID] = append(m.records[taskID], r)
	}
	return nil
}

func (m *memStore) ListRecords(_ context.Context, taskID string, _ store.RecordFilter) ([]domain.DataRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.DataRecord(nil), m.records[taskID]...), nil
}

func (m *memStore) DeleteFinishedBefore(context.Context, time.Time) (int, error) { return 0, nil }

func (m *memStore) status(id string) domain.TaskStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id].Status
}

func (m *memStore) transitions(id string) []domain.TaskStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TaskStatus(nil), m.history[id]...)
}

// stubGen emits a fixed batch, already filtered.
type stubGen struct {
	name    string
	records []domain.DataRecord
}

func (g stubGen) Name() string { return g.name }

func (g stubGen) Fetch(domain.FilterParams) []domain.DataRecord { return g.records }

func fastHolds() HoldWindows {
	return HoldWindows{
		PendingMin:  time.Millisecond,
		PendingMax:  2 * time.Millisecond,
		ProgressMin: time.Millisecond,
		ProgressMax: 2 * time.Millisecond,
	}
}

func newTestProcessor(st store.Store, sources map[string]source.Generator) *Processor {
	return NewProcessor(st, sources, fastHolds(), rand.New(rand.NewSource(1)))
}

func sources(records ...domain.DataRecord) map[string]source.Generator {
	return map[string]source.Generator{
		domain.SourceA: stubGen{name: domain.SourceA, records: records},
	}
}

func TestProcessCompletesTask(t *testing.T) {
	st := newMemStore()
	task, err := st.CreateTask(context.Background(), "T1", domain.FilterParams{DataSources: []string{domain.SourceA}})
	require.NoError(t, err)

	proc := newTestProcessor(st, sources(
		domain.DataRecord{Source: domain.SourceA, Brand: "Nike"},
		domain.DataRecord{Source: domain.SourceA, Brand: "Adidas"},
	))
	out := proc.Process(context.Background(), task.ID)

	assert.Equal(t, domain.StatusCompleted, out.Status)
	assert.Equal(t, 2, out.Records)
	assert.NoError(t, out.Err)
	assert.False(t, out.Skipped)
	assert.Equal(t, domain.StatusCompleted, st.status(task.ID))

	records, err := st.ListRecords(context.Background(), task.ID, store.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, task.ID, r.TaskID)
	}
}

func TestProcessMissingTaskIsSkipped(t *testing.T) {
	proc := newTestProcessor(newMemStore(), sources())
	out := proc.Process(context.Background(), "tsk_ghost")
	assert.True(t, out.Skipped)
	assert.NoError(t, out.Err)
	assert.Empty(t, out.Status)
}

func TestProcessPersistenceFaultMarksFailed(t *testing.T) {
	st := newMemStore()
	task, err := st.CreateTask(context.Background(), "T1", domain.FilterParams{})
	require.NoError(t, err)
	st.appendErr = errors.New("disk full")

	proc := newTestProcessor(st, sources(domain.DataRecord{Source: domain.SourceA}))
	out := proc.Process(context.Background(), task.ID)

	assert.Equal(t, domain.StatusFailed, out.Status)
	assert.ErrorContains(t, out.Err, "disk full")
	assert.Equal(t, domain.StatusFailed, st.status(task.ID))
}

func TestProcessUnknownSourceCompletesEmpty(t *testing.T) {
	st := newMemStore()
	task, err := st.CreateTask(context.Background(), "T1", domain.FilterParams{DataSources: []string{"source_c"}})
	require.NoError(t, err)

	proc := newTestProcessor(st, sources(domain.DataRecord{Source: domain.SourceA}))
	out := proc.Process(context.Background(), task.ID)

	assert.Equal(t, domain.StatusCompleted, out.Status)
	assert.Equal(t, 0, out.Records)

	records, err := st.ListRecords(context.Background(), task.ID, store.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStatusTransitionsAreMonotonic(t *testing.T) {
	st := newMemStore()
	task, err := st.CreateTask(context.Background(), "T1", domain.FilterParams{DataSources: []string{domain.SourceA}})
	require.NoError(t, err)

	proc := newTestProcessor(st, sources(domain.DataRecord{Source: domain.SourceA}))
	proc.Process(context.Background(), task.ID)

	assert.Equal(t, []domain.TaskStatus{domain.StatusInProgress, domain.StatusCompleted}, st.transitions(task.ID))
}

func TestQueueProcessesAllEnqueuedTasks(t *testing.T) {
	st := newMemStore()
	proc := newTestProcessor(st, sources(domain.DataRecord{Source: domain.SourceA}))
	q := NewQueue(proc, 16, 20*time.Millisecond)

	var ids []string
	for i := 0; i < 5; i++ {
		task, err := st.CreateTask(context.Background(), fmt.Sprintf("T%d", i), domain.FilterParams{DataSources: []string{domain.SourceA}})
		require.NoError(t, err)
		ids = append(ids, task.ID)
		q.Enqueue(task.ID)
	}

	require.Eventually(t, func() bool {
		for _, id := range ids {
			if !st.status(id).Terminal() {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond, "all tasks should reach a terminal state")

	for _, id := range ids {
		assert.Equal(t, domain.StatusCompleted, st.status(id))
	}
}

func TestWorkerStopsWhenIdleAndRestarts(t *testing.T) {
	st := newMemStore()
	proc := newTestProcessor(st, sources(domain.DataRecord{Source: domain.SourceA}))
	q := NewQueue(proc, 16, 10*time.Millisecond)

	first, err := st.CreateTask(context.Background(), "first", domain.FilterParams{DataSources: []string{domain.SourceA}})
	require.NoError(t, err)
	q.Enqueue(first.ID)
	assert.True(t, q.Running())

	require.Eventually(t, func() bool {
		return st.status(first.ID).Terminal()
	}, 5*time.Second, 5*time.Millisecond, "task should finish")
	q.Wait()
	assert.False(t, q.Running(), "worker should stop once idle")

	second, err := st.CreateTask(context.Background(), "second", domain.FilterParams{DataSources: []string{domain.SourceA}})
	require.NoError(t, err)
	q.Enqueue(second.ID)
	assert.True(t, q.Running())

	require.Eventually(t, func() bool {
		return st.status(second.ID) == domain.StatusCompleted
	}, 5*time.Second, 5*time.Millisecond, "restarted worker should process new tasks")
}

func TestQueueSkipsUnknownTaskAndContinues(t *testing.T) {
	st := newMemStore()
	proc := newTestProcessor(st, sources(domain.DataRecord{Source: domain.SourceA}))
	q := NewQueue(proc, 16, 20*time.Millisecond)

	q.Enqueue("tsk_ghost")
	task, err := st.CreateTask(context.Background(), "real", domain.FilterParams{DataSources: []string{domain.SourceA}})
	require.NoError(t, err)
	q.Enqueue(task.ID)

	require.Eventually(t, func() bool {
		return st.status(task.ID) == domain.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond, "worker must survive a missing task")
}

func TestEnqueueWhileDrainingIsNotDropped(t *testing.T) {
	st := newMemStore()
	proc := newTestProcessor(st, sources(domain.DataRecord{Source: domain.SourceA}))
	q := NewQueue(proc, 16, 5*time.Millisecond)

	// Feed tasks with gaps straddling the idle timeout so enqueues land
	// both on a live worker and on one about to exit.
	var ids []string
	for i := 0; i < 8; i++ {
		task, err := st.CreateTask(context.Background(), fmt.Sprintf("T%d", i), domain.FilterParams{DataSources: []string{domain.SourceA}})
		require.NoError(t, err)
		ids = append(ids, task.ID)
		q.Enqueue(task.ID)
		time.Sleep(time.Duration(i) * 2 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		for _, id := range ids {
			if st.status(id) != domain.StatusCompleted {
				return false
			}
		}
		return true
	}, 10*time.Second, 10*time.Millisecond, "no enqueued task may be dropped")
}
