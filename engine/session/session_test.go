package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farsdash/farsdash/engine/domain"
	"github.com/farsdash/farsdash/engine/page"
	"github.com/farsdash/farsdash/pkg/metrics"
)

// backend serves canned data. Fetches for a year listed in gates block until
// the gate is closed.
type backend struct {
	mu    sync.Mutex
	gates map[int]chan struct{}
	err   error
}

func (b *backend) wait(ctx context.Context, year int) {
	b.mu.Lock()
	g := b.gates[year]
	b.mu.Unlock()
	if g == nil {
		return
	}
	select {
	case <-g:
	case <-ctx.Done():
	}
}

func (b *backend) NationalTrend(context.Context) ([]domain.TrendPoint, error) {
	return []domain.TrendPoint{{Year: 2020, TotalAccidents: 100, AlcoholAccidents: 30, Percentage: 30}}, b.err
}

func (b *backend) StateHeatmap(ctx context.Context, year int) ([]domain.HeatmapEntry, error) {
	b.wait(ctx, year)
	return []domain.HeatmapEntry{{StateID: 1, StateName: "Alabama", Percentage: float64(year - 2000), NationalAvg: 30}}, b.err
}

func (b *backend) NationalRiskProfile(ctx context.Context, year int) (*domain.RiskProfile, error) {
	b.wait(ctx, year)
	return &domain.RiskProfile{Year: year, TotalAlcoholFatalities: 10}, b.err
}

func (b *backend) StateTrend(_ context.Context, id domain.StateID) (domain.StateTrend, error) {
	return domain.StateTrend{StateID: id, StateName: domain.StateName(id),
		Data: []domain.TrendPoint{{Year: 2020, TotalAccidents: 10, AlcoholAccidents: 4, Percentage: 40}}}, b.err
}

func (b *backend) StateTrendFiltered(context.Context, domain.StateID, domain.FilterCriteria) ([]domain.TrendPoint, error) {
	return []domain.TrendPoint{{Year: 2020, TotalAccidents: 5, AlcoholAccidents: 2, Percentage: 40}}, b.err
}

func (b *backend) StateRiskProfile(_ context.Context, _ domain.StateID, year int, _ domain.FilterCriteria) (*domain.RiskProfile, error) {
	return &domain.RiskProfile{Year: year, TotalAlcoholFatalities: 4}, b.err
}

type recorder struct {
	mu  sync.Mutex
	got []Interaction
	err error
}

func (r *recorder) Record(_ context.Context, in Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, in)
	return r.err
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, in := range r.got {
		out = append(out, in.Event)
	}
	return out
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newStore(t *testing.T, b page.Backend, sink Sink) (*Store, *metrics.Registry) {
	t.Helper()
	reg := metrics.New()
	st := NewStore(Options{
		Backend:     b,
		Sink:        sink,
		Years:       []int{2019, 2020, 2021},
		DefaultYear: 2020,
		Idle:        time.Minute,
		Logger:      quiet(),
		Metrics:     reg,
	})
	t.Cleanup(st.Close)
	return st, reg
}

func TestNationalLoads(t *testing.T) {
	st, reg := newStore(t, &backend{}, nil)
	s := st.Get("abc")
	require.NoError(t, s.Post(context.Background(), ViewNational, page.Init{}))

	require.Eventually(t, func() bool {
		n := s.National()
		return n.HeatmapStatus == page.StatusLoaded && n.Risk != nil && len(n.Trend) == 1
	}, 2*time.Second, 5*time.Millisecond)

	n := s.National()
	assert.Equal(t, 2020, n.Year)
	assert.Equal(t, 20.0, n.Heatmap[0].Percentage)
	assert.Equal(t, int64(1), reg.Counter(metrics.WithLabels("farsdash_events_total", "type", "init"), "").Value())
	assert.Equal(t, int64(1), reg.Gauge("farsdash_sessions_active", "").Value())
}

func TestStaleResultsAreDropped(t *testing.T) {
	gate := make(chan struct{})
	b := &backend{gates: map[int]chan struct{}{2020: gate}}
	st, reg := newStore(t, b, nil)
	s := st.Get("abc")
	ctx := context.Background()

	require.NoError(t, s.Post(ctx, ViewNational, page.Init{}))
	require.NoError(t, s.Post(ctx, ViewNational, page.YearSelected{Year: 2021}))

	require.Eventually(t, func() bool {
		return s.National().HeatmapStatus == page.StatusLoaded
	}, 2*time.Second, 5*time.Millisecond)
	v := s.Version()

	close(gate)
	stale := reg.Counter("farsdash_stale_results_total", "")
	require.Eventually(t, func() bool { return stale.Value() == 2 }, 2*time.Second, 5*time.Millisecond)

	n := s.National()
	assert.Equal(t, 2021, n.Year)
	assert.Equal(t, 21.0, n.Heatmap[0].Percentage, "the 2020 heatmap must not overwrite 2021")
	assert.Equal(t, 2021, n.Risk.Year)
	assert.Equal(t, v, s.Version(), "stale results do not bump the version")
}

func TestSubscribeSeesChanges(t *testing.T) {
	st, _ := newStore(t, &backend{}, nil)
	s := st.Get("abc")
	ch, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Post(context.Background(), ViewNational, page.Init{}))
	select {
	case v := <-ch:
		assert.Positive(t, v)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification")
	}

	cancel()
	cancel()
	assert.Equal(t, 0, s.subscribers())
}

func TestNotifyKeepsLatest(t *testing.T) {
	ch := make(chan uint64, 1)
	notify(ch, 1)
	notify(ch, 2)
	notify(ch, 3)
	assert.Equal(t, uint64(3), <-ch)
}

func TestDetailAndRecording(t *testing.T) {
	rec := &recorder{err: errors.New("sink down")}
	st, _ := newStore(t, &backend{}, rec)
	s := st.Get("abc")
	ctx := context.Background()

	require.NoError(t, s.Open(ctx, 6))
	require.Eventually(t, func() bool { return s.Detail().Phase == page.PhaseReady }, 2*time.Second, 5*time.Millisecond)

	d := s.Detail()
	assert.Equal(t, domain.StateID(6), d.StateID)
	assert.Equal(t, 2020, d.Year)

	require.NoError(t, s.Post(ctx, ViewDetail, page.YearSelected{Year: 2020}))
	assert.Equal(t, []string{"init", "year_selected"}, rec.events(), "sink errors do not reject inputs")

	rec.mu.Lock()
	first := rec.got[0]
	rec.mu.Unlock()
	assert.Equal(t, "abc", first.SessionID)
	assert.Equal(t, "detail", first.View)
	assert.Equal(t, 6, first.StateID)
}

func TestPostAfterClose(t *testing.T) {
	st, _ := newStore(t, &backend{}, nil)
	s := st.Get("abc")
	s.Close()
	assert.ErrorIs(t, s.Post(context.Background(), ViewNational, page.Init{}), ErrClosed)
}

func TestStoreGetAndSweep(t *testing.T) {
	st, reg := newStore(t, &backend{}, nil)
	now := time.Now()
	st.now = func() time.Time { return now }

	a := st.Get("")
	assert.NotEmpty(t, a.ID)
	assert.Same(t, a, st.Get(a.ID))

	b := st.Get("b")
	_, unsub := b.Subscribe()
	defer unsub()
	assert.Equal(t, 2, st.Len())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, st.Sweep(), "only the session without a subscriber expires")
	_, ok := st.Lookup(a.ID)
	assert.False(t, ok)
	_, ok = st.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, int64(1), reg.Gauge("farsdash_sessions_active", "").Value())
}

func TestNATSSink(t *testing.T) {
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	require.NoError(t, err)
	srv.Start()
	require.True(t, srv.ReadyForConnections(3*time.Second))
	t.Cleanup(srv.Shutdown)

	sink, err := DialNATSSink(srv.ClientURL(), "farsdash.interactions")
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	sub, err := nc.SubscribeSync(sink.Subject())
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	in := Interaction{SessionID: "abc", View: "national", Event: "year_selected", Data: page.YearSelected{Year: 2021}, At: time.Unix(0, 0).UTC()}
	require.NoError(t, sink.Record(context.Background(), in))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, "abc", got["session_id"])
	assert.Equal(t, "year_selected", got["event"])
}
