package lineitem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fjod/go_shoe_store/internal/domain"
	"github.com/fjod/go_shoe_store/internal/storage"
)

// recordingStorage wraps MemoryStorage and remembers every write
type recordingStorage struct {
	*storage.MemoryStorage

	mu       sync.Mutex
	writes   []string
	setCtxOK []bool
	getErr   error
	setErr   error
}

func newRecordingStorage() *recordingStorage {
	return &recordingStorage{MemoryStorage: storage.NewMemoryStorage()}
}

func (r *recordingStorage) Get(ctx context.Context, key string) (string, error) {
	if r.getErr != nil {
		return "", r.getErr
	}
	return r.MemoryStorage.Get(ctx, key)
}

func (r *recordingStorage) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	r.writes = append(r.writes, value)
	r.setCtxOK = append(r.setCtxOK, ctx.Err() == nil)
	r.mu.Unlock()

	if r.setErr != nil {
		return r.setErr
	}
	return r.MemoryStorage.Set(ctx, key, value)
}

func (r *recordingStorage) Writes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

func cartItem(id, size, price string) domain.CartItem {
	return domain.CartItem{ShoeID: id, Brand: "Brand" + id, Model: "Model" + id, Price: domain.Price(price), Size: size}
}

func bagItem(id, size, price string) domain.BagItem {
	return domain.BagItem{LineItem: cartItem(id, size, price), Image: "/images/" + id + ".png"}
}

func ids[T domain.Item](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Line().ShoeID
	}
	return out
}

func TestAdd_AppendsInOrder(t *testing.T) {
	s := NewCart(storage.NewMemoryStorage())
	ctx := context.Background()

	assert.True(t, s.Add(ctx, cartItem("A", "9", "100")))
	assert.True(t, s.Add(ctx, cartItem("B", "9", "50")))

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Count())
	assert.Equal(t, []string{"A", "B"}, ids(snap.Items))
	assert.True(t, decimal.NewFromInt(150).Equal(snap.Total))
}

func TestAdd_DuplicateKeepsFirstEntry(t *testing.T) {
	s := NewBag(storage.NewMemoryStorage())
	ctx := context.Background()

	require.True(t, s.Add(ctx, bagItem("A", "9", "100")))
	assert.False(t, s.Add(ctx, bagItem("A", "10", "100")))

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "9", snap.Items[0].Size)
}

func TestAdd_DuplicateStillPersists(t *testing.T) {
	st := newRecordingStorage()
	s := NewCart(st)
	ctx := context.Background()

	s.Add(ctx, cartItem("A", "9", "100"))
	s.Add(ctx, cartItem("A", "10", "100"))

	writes := st.Writes()
	require.Len(t, writes, 2)
	assert.Equal(t, writes[0], writes[1])
}

func TestRemove_DropsMatchingEntry(t *testing.T) {
	s := NewCart(storage.NewMemoryStorage())
	ctx := context.Background()

	s.Add(ctx, cartItem("A", "9", "100"))
	s.Add(ctx, cartItem("B", "9", "50"))
	s.Add(ctx, cartItem("C", "9", "25"))

	s.Remove(ctx, "B")

	snap := s.Snapshot()
	assert.Equal(t, []string{"A", "C"}, ids(snap.Items))
	assert.True(t, decimal.NewFromInt(125).Equal(snap.Total))
}

func TestRemove_AbsentIDIsNoop(t *testing.T) {
	s := NewCart(storage.NewMemoryStorage())
	ctx := context.Background()

	s.Add(ctx, cartItem("A", "9", "100"))
	s.Remove(ctx, "missing")

	assert.Equal(t, []string{"A"}, ids(s.Snapshot().Items))
}

func TestRemove_SeveralIDsInOneWrite(t *testing.T) {
	st := newRecordingStorage()
	s := NewCart(st)
	ctx := context.Background()

	s.Add(ctx, cartItem("A", "9", "100"))
	s.Add(ctx, cartItem("B", "9", "50"))
	s.Add(ctx, cartItem("C", "9", "25"))
	s.Remove(ctx, "A", "C", "missing")

	assert.Equal(t, []string{"B"}, ids(s.Snapshot().Items))
	assert.Len(t, st.Writes(), 4)
}

func TestClear_EmptiesAndPersistsEmptyArray(t *testing.T) {
	st := newRecordingStorage()
	s := NewCart(st)
	ctx := context.Background()

	s.Add(ctx, cartItem("A", "9", "100"))
	s.Clear(ctx)

	snap := s.Snapshot()
	assert.Zero(t, snap.Count())
	assert.True(t, snap.Total.IsZero())

	v, err := st.MemoryStorage.Get(ctx, CartName)
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestSnapshot_EmptyTotalIsZero(t *testing.T) {
	s := NewBag(nil)
	assert.True(t, s.Snapshot().Total.IsZero())
	assert.Empty(t, s.Snapshot().Items)
}

func TestSnapshot_TotalIsExact(t *testing.T) {
	s := NewCart(nil)
	ctx := context.Background()

	s.Add(ctx, cartItem("A", "9", "0.1"))
	s.Add(ctx, cartItem("B", "9", "0.2"))
	s.Add(ctx, cartItem("C", "9", "not-a-price"))

	assert.Equal(t, "0.3", s.Snapshot().Total.String())
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := NewCart(nil)
	ctx := context.Background()
	s.Add(ctx, cartItem("A", "9", "1"))

	snap := s.Snapshot()
	snap.Items[0].Size = "changed"

	assert.Equal(t, "9", s.Snapshot().Items[0].Size)
}

func TestLines_ReturnsCoreFields(t *testing.T) {
	s := NewBag(nil)
	ctx := context.Background()
	s.Add(ctx, bagItem("A", "9", "100"))
	s.Add(ctx, bagItem("B", "10", "50"))

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, cartItem("A", "9", "100"), lines[0])
	assert.Equal(t, cartItem("B", "10", "50"), lines[1])
}

func TestPersistence_RoundTrip(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()

	first := NewBag(st)
	first.Add(ctx, bagItem("B", "9", "50"))
	first.Add(ctx, bagItem("A", "10", "100"))
	first.Add(ctx, bagItem("C", "11", "10"))
	first.Remove(ctx, "A")

	second := NewBag(st)
	second.Initialize(ctx)

	assert.Equal(t, first.Snapshot().Items, second.Snapshot().Items)
}

func TestPersistence_WritesJSONArrayWithOriginalFieldNames(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()

	s := NewBag(st)
	s.Add(ctx, bagItem("A", "9", "100"))

	raw, err := st.Get(ctx, BagName)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, map[string]any{
		"ShoeId": "A",
		"Brand":  "BrandA",
		"Model":  "ModelA",
		"Price":  "100",
		"Size":   "9",
		"Image":  "/images/A.png",
	}, decoded[0])
}

func TestInitialize_LoadsPersistedState(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, CartName,
		`[{"ShoeId":"1","Brand":"Nike","Model":"Pegasus","Price":139.99,"Size":"42"}]`))

	s := NewCart(st)
	s.Initialize(ctx)

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, domain.Price("139.99"), snap.Items[0].Price)
}

func TestInitialize_CorruptStateStartsEmpty(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, CartName, "{not json"))

	core, logs := observer.New(zap.WarnLevel)
	s := NewCart(st, WithLogger(zap.New(core)))
	s.Initialize(ctx)

	assert.Empty(t, s.Snapshot().Items)
	assert.Equal(t, 1, logs.FilterMessage("persisted state is corrupt, starting empty").Len())
}

func TestInitialize_ReadErrorStartsEmpty(t *testing.T) {
	st := newRecordingStorage()
	st.getErr = errors.New("disk on fire")

	s := NewCart(st)
	s.Initialize(context.Background())

	assert.Empty(t, s.Snapshot().Items)
}

func TestInitialize_RunsOnce(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()

	s := NewCart(st)
	s.Initialize(ctx)

	require.NoError(t, st.Set(ctx, CartName, `[{"ShoeId":"X","Price":"1","Size":"9"}]`))
	s.Initialize(ctx)

	assert.Empty(t, s.Snapshot().Items)
}

func TestMutation_LoadsBeforeWriting(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, CartName, `[{"ShoeId":"A","Price":"100","Size":"9"}]`))

	s := NewCart(st)
	s.Add(ctx, cartItem("B", "9", "50"))

	assert.Equal(t, []string{"A", "B"}, ids(s.Snapshot().Items))
}

func TestPersist_FailureIsLoggedNotRolledBack(t *testing.T) {
	st := newRecordingStorage()
	st.setErr = errors.New("quota exceeded")

	core, logs := observer.New(zap.WarnLevel)
	s := NewCart(st, WithLogger(zap.New(core)))

	assert.True(t, s.Add(context.Background(), cartItem("A", "9", "100")))
	assert.Equal(t, 1, s.Snapshot().Count())
	assert.Equal(t, 1, logs.FilterMessage("failed to persist state").Len())
}

func TestPersist_IgnoresCallerCancellation(t *testing.T) {
	st := newRecordingStorage()
	s := NewCart(st)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Add(ctx, cartItem("A", "9", "100"))

	require.Len(t, st.setCtxOK, 1)
	assert.True(t, st.setCtxOK[0])
}

func TestPersist_ConcurrentWritesEndConsistent(t *testing.T) {
	st := storage.NewMemoryStorage()
	s := NewCart(st)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Add(ctx, cartItem(string(rune('A'+i%26))+string(rune('a'+i/26)), "9", "1"))
		}(i)
	}
	wg.Wait()

	raw, err := st.Get(ctx, CartName)
	require.NoError(t, err)
	var persisted []domain.CartItem
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, s.Snapshot().Items, persisted)
	assert.Len(t, persisted, 50)
}

func TestSubscribe_PrimedWithCurrentSnapshot(t *testing.T) {
	s := NewCart(nil)
	ctx := context.Background()
	s.Add(ctx, cartItem("A", "9", "100"))

	ch, cancel := s.Subscribe()
	defer cancel()

	snap := <-ch
	assert.Equal(t, []string{"A"}, ids(snap.Items))
}

func TestSubscribe_LatestWins(t *testing.T) {
	s := NewCart(nil)
	ctx := context.Background()

	ch, cancel := s.Subscribe()
	defer cancel()

	s.Add(ctx, cartItem("A", "9", "100"))
	s.Add(ctx, cartItem("B", "9", "50"))
	s.Remove(ctx, "A")

	select {
	case snap := <-ch:
		assert.Equal(t, []string{"B"}, ids(snap.Items))
	case <-time.After(time.Second):
		t.Fatal("expected a snapshot")
	}

	select {
	case snap := <-ch:
		t.Fatalf("unexpected extra snapshot: %v", snap)
	default:
	}
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	s := NewCart(nil)
	ch, cancel := s.Subscribe()

	<-ch
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestClose_ClosesSubscribersAndKeepsWorking(t *testing.T) {
	st := storage.NewMemoryStorage()
	s := NewCart(st)
	ctx := context.Background()

	ch, cancel := s.Subscribe()
	<-ch
	s.Close()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	s.Add(ctx, cartItem("A", "9", "100"))
	raw, err := st.Get(ctx, CartName)
	require.NoError(t, err)
	assert.Contains(t, raw, `"ShoeId":"A"`)

	late, _ := s.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestScenario_AddAddRemoveClear(t *testing.T) {
	s := NewBag(storage.NewMemoryStorage())
	ctx := context.Background()

	s.Add(ctx, bagItem("A", "9", "100"))
	s.Add(ctx, bagItem("B", "9", "50"))
	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Count())
	assert.Equal(t, "150", snap.Total.String())

	s.Remove(ctx, "A")
	snap = s.Snapshot()
	assert.Equal(t, []string{"B"}, ids(snap.Items))
	assert.Equal(t, "50", snap.Total.String())

	s.Clear(ctx)
	snap = s.Snapshot()
	assert.Zero(t, snap.Count())
	assert.True(t, snap.Total.IsZero())
}

func TestRandomSequences_MatchModel(t *testing.T) {
	shoes := []string{"A", "B", "C", "D", "E", "F"}
	prices := map[string]string{"A": "100", "B": "50", "C": "72.5", "D": "0.1", "E": "0.2", "F": "139.99"}

	for seed := int64(1); seed <= 50; seed++ {
		t.Run(fmt.Sprintf("seed_%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			st := storage.NewMemoryStorage()
			s := NewCart(st)
			ctx := context.Background()

			var model []domain.CartItem
			indexOf := func(id string) int {
				for i, it := range model {
					if it.ShoeID == id {
						return i
					}
				}
				return -1
			}

			for step := 0; step < 40; step++ {
				id := shoes[rng.Intn(len(shoes))]
				switch op := rng.Intn(10); {
				case op < 6:
					item := cartItem(id, fmt.Sprint(36+rng.Intn(10)), prices[id])
					want := indexOf(id) < 0
					if want {
						model = append(model, item)
					}
					assert.Equal(t, want, s.Add(ctx, item))
				case op < 9:
					if i := indexOf(id); i >= 0 {
						model = append(model[:i:i], model[i+1:]...)
					}
					s.Remove(ctx, id)
				default:
					model = nil
					s.Clear(ctx)
				}

				total := decimal.Zero
				for _, it := range model {
					total = total.Add(it.Price.Decimal())
				}
				snap := s.Snapshot()
				require.Equal(t, len(model), snap.Count())
				require.Equal(t, ids(model), ids(snap.Items))
				require.True(t, total.Equal(snap.Total), "total %s, want %s", snap.Total, total)
			}

			reloaded := NewCart(st)
			reloaded.Initialize(ctx)
			assert.Equal(t, s.Snapshot().Items, reloaded.Snapshot().Items)
		})
	}
}
