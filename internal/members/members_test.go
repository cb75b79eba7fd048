package members

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/botport/internal/errclass"
	"github.com/keshon/botport/internal/logger/logtest"
	"github.com/keshon/botport/internal/storage"
)

type fakeSource struct {
	guilds  []Guild
	members map[string][]Member
	errs    map[string]error
}

func (f *fakeSource) Guilds() []Guild { return f.guilds }
func (f *fakeSource) Members(_ context.Context, id string) ([]Member, error) {
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	return f.members[id], nil
}

type fakeStore struct {
	mu    sync.Mutex
	rows  []storage.Member
	errAt map[string]error
}

func (f *fakeStore) UpsertMember(_ context.Context, m storage.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errAt[m.UserID]; err != nil {
		return err
	}
	f.rows = append(f.rows, m)
	return nil
}

func many(n int, prefix string) []Member {
	out := make([]Member, n)
	for i := range out {
		out[i] = Member{UserID: fmt.Sprintf("%s-%d", prefix, i), Tag: fmt.Sprintf("user%d", i)}
	}
	return out
}

func TestRun_NoGuilds(t *testing.T) {
	log := logtest.New()
	sum := New(&fakeSource{}, &fakeStore{}, errclass.New(), log).Run(context.Background())
	assert.Equal(t, Summary{}, sum)
	assert.True(t, log.Contains(logtest.LevelWarn, "not in any servers"))
}

func TestRun_SavesAllGuildsInOrder(t *testing.T) {
	joined := time.Date(2022, 1, 2, 3, 4, 5, 0, time.Local)
	src := &fakeSource{
		guilds: []Guild{{ID: "g1", Name: "One"}, {ID: "g2", Name: "Two"}},
		members: map[string][]Member{
			"g1": {{UserID: "1", Tag: "ann", RoleIDs: []string{"r1", "r2"}, JoinedAt: joined}},
			"g2": many(250, "g2"),
		},
	}
	store := &fakeStore{}
	log := logtest.New()

	sum := New(src, store, errclass.New(), log, WithWorkers(2)).Run(context.Background())

	assert.Equal(t, Summary{Guilds: 2, Processed: 2, Members: 251, Saved: 251}, sum)
	require.Len(t, store.rows, 251)
	assert.Equal(t, storage.Member{UserID: "1", Username: "ann", Roles: "r1,r2", JoinedServer: "2022-01-02 03:04:05"}, store.rows[0])
	assert.Equal(t, 2, countMsg(log, logtest.LevelDebug, "Processed members"))
	assert.True(t, log.Contains(logtest.LevelSuccess, "Member registration complete"))
}

func TestRun_NonCriticalErrorsContinue(t *testing.T) {
	src := &fakeSource{
		guilds:  []Guild{{ID: "g1", Name: "One"}, {ID: "g2", Name: "Two"}},
		members: map[string][]Member{"g2": many(3, "g2")},
		errs:    map[string]error{"g1": errors.New("discord hiccup")},
	}
	store := &fakeStore{errAt: map[string]error{"g2-1": errors.New("odd row")}}
	exits := 0
	log := logtest.New()

	sum := New(src, store, errclass.New(), log, WithExit(func(int) { exits++ })).Run(context.Background())

	assert.Equal(t, 0, exits)
	assert.False(t, sum.Halted)
	assert.Equal(t, 2, sum.Saved)
	assert.Equal(t, 1, sum.Processed)
	assert.True(t, log.Contains(logtest.LevelWarn, "Failed to process server"))
	assert.True(t, log.Contains(logtest.LevelWarn, "Skipping member"))
}

func TestRun_CriticalErrorHalts(t *testing.T) {
	src := &fakeSource{
		guilds:  []Guild{{ID: "g1", Name: "One"}, {ID: "g2", Name: "Two"}},
		members: map[string][]Member{"g1": many(3, "g1"), "g2": many(3, "g2")},
	}
	store := &fakeStore{errAt: map[string]error{"g1-1": &pq.Error{Code: "28P01"}}}
	var code int
	log := logtest.New()

	sum := New(src, store, errclass.New(), log, WithExit(func(c int) { code = c })).Run(context.Background())

	assert.Equal(t, 1, code)
	assert.True(t, sum.Halted)
	assert.Equal(t, 1, sum.Saved)
	assert.Len(t, store.rows, 1)
	assert.True(t, log.Contains(logtest.LevelError, "Critical database error"))
}

func TestRun_NothingSavedWarns(t *testing.T) {
	src := &fakeSource{guilds: []Guild{{ID: "g1", Name: "Empty"}}}
	log := logtest.New()

	sum := New(src, &fakeStore{}, errclass.New(), log).Run(context.Background())
	assert.Equal(t, 1, sum.Processed)
	assert.True(t, log.Contains(logtest.LevelWarn, "No members were registered"))
}

func TestRun_SQLiteStore(t *testing.T) {
	log := logtest.New()
	store, err := storage.Open(context.Background(), storage.DriverSQLite, filepath.Join(t.TempDir(), "m.db"), log)
	require.NoError(t, err)
	defer store.Close()

	src := &fakeSource{
		guilds:  []Guild{{ID: "g1", Name: "One"}, {ID: "g2", Name: "Two"}},
		members: map[string][]Member{"g1": many(2, "u"), "g2": many(3, "u")},
	}
	sum := New(src, store, errclass.New(), log).Run(context.Background())
	assert.Equal(t, 5, sum.Saved)

	n, err := store.CountMembers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func countMsg(log *logtest.Recorder, level, substr string) int {
	n := 0
	for _, e := range log.Entries(level) {
		if e.Msg == substr {
			n++
		}
	}
	return n
}
