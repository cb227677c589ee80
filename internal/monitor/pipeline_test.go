package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/dedup"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/relevance"
	"github.com/Veraticus/intel-sieve/internal/service"
	"github.com/Veraticus/intel-sieve/internal/source"
	"github.com/Veraticus/intel-sieve/internal/taxonomy"
	"github.com/Veraticus/intel-sieve/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time { return testutil.BaseTime }

func presetEngine(t *testing.T, name string) *relevance.Engine {
	t.Helper()
	cfg, err := taxonomy.Preset(name)
	require.NoError(t, err)
	e, err := relevance.New(cfg)
	require.NoError(t, err)
	return e
}

func message(body string, at time.Time) model.Item {
	return model.Item{
		Kind:       model.KindMessage,
		Source:     "KIG 头壳交流",
		SourceType: "group",
		Author:     "cn_user",
		Body:       body,
		Timestamp:  at,
	}
}

type recordingRecorder struct {
	mu        sync.Mutex
	decisions []dedup.Decision
	runs      []model.Run
}

func (r *recordingRecorder) ObserveItem(_ string, _ model.ScoredItem, d dedup.Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, d)
}

func (r *recordingRecorder) ObserveRun(run model.Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
}

func TestNewPipeline_Validation(t *testing.T) {
	_, err := NewPipeline(PipelineConfig{Name: "x"})
	assert.Error(t, err)

	_, err = NewPipeline(PipelineConfig{Engine: presetEngine(t, taxonomy.PresetCommunity)})
	assert.Error(t, err)

	p, err := NewPipeline(PipelineConfig{Name: "x", Engine: presetEngine(t, taxonomy.PresetCommunity)})
	require.NoError(t, err)
	assert.IsType(t, &dedup.SeenSet{}, p.Keys())
}

func TestPipeline_Process(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	rec := &recordingRecorder{}

	p, err := NewPipeline(PipelineConfig{
		Name:             NameCommunity,
		Engine:           presetEngine(t, taxonomy.PresetCommunity),
		Storage:          store,
		Recorder:         rec,
		Clock:            fixedClock,
		TrackCompetitors: true,
		Enrich:           TagLanguage,
	})
	require.NoError(t, err)

	at := testutil.BaseTime.Add(-time.Hour)
	sale := message("Dollkii 新款头壳出售, love it!", at)
	items := []model.Item{
		sale,
		sale,
		message("今天天气不错", at),
	}

	out, err := p.Process(ctx, items)
	require.NoError(t, err)

	assert.Equal(t, model.RunStats{Fetched: 3, Relevant: 2, Admitted: 1, Duplicates: 1, Mentions: 1}, out.Stats)
	require.Len(t, out.Admitted, 1)
	assert.Len(t, out.Relevant, 2)
	assert.Equal(t, model.TypeSale, out.Admitted[0].Result.ContentType)
	assert.Equal(t, model.SentimentPositive, out.Admitted[0].Result.Sentiment)
	assert.Equal(t, relevance.LangChinese, out.Admitted[0].Item.Meta("lang"))
	assert.Empty(t, sale.Metadata, "enrichment must not touch the caller's item")
	assert.Equal(t, []dedup.Decision{dedup.Admitted, dedup.Duplicate}, rec.decisions)

	require.Len(t, out.Mentions, 1)
	assert.Equal(t, "Dollkii", out.Mentions[0].Brand)

	stored, err := store.GetItems(ctx, service.ItemFilter{Monitor: NameCommunity})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "zh", stored[0].Item.Meta("lang"))

	mentions, err := store.GetMentions(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, mentions, 1)

	// A second pass over the same input admits nothing.
	again, err := p.Process(ctx, items[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, again.Stats.Admitted)
	assert.Equal(t, 1, again.Stats.Duplicates)
}

func TestPipeline_KeepIrrelevant(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)

	p, err := NewPipeline(PipelineConfig{
		Name:           NameCommunity,
		Engine:         presetEngine(t, taxonomy.PresetCommunity),
		Storage:        store,
		KeepIrrelevant: true,
	})
	require.NoError(t, err)

	out, err := p.Process(ctx, []model.Item{message("今天天气不错", testutil.BaseTime)})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Stats.Relevant)
	assert.Equal(t, 1, out.Stats.Admitted)
	assert.Empty(t, out.Relevant)

	n, err := store.CountItems(ctx, service.ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

type failingStorage struct {
	service.Storage
	keys *dedup.SeenSet
}

func (f failingStorage) SaveItemWithMentions(context.Context, string, model.ScoredItem, []model.CompetitorMention) (bool, error) {
	return false, errors.New("disk full")
}

func (f failingStorage) SeenKeys(string) dedup.KeyStore { return f.keys }

func (f failingStorage) SaveRun(context.Context, model.Run) error { return nil }

func TestPipeline_PersistFailureLeavesKeyUnseen(t *testing.T) {
	keys := dedup.NewSeenSet()
	p, err := NewPipeline(PipelineConfig{
		Name:    NameCommunity,
		Engine:  presetEngine(t, taxonomy.PresetCommunity),
		Storage: failingStorage{keys: keys},
	})
	require.NoError(t, err)

	out, err := p.Process(context.Background(), []model.Item{
		message("kigurumi meetup", testutil.BaseTime),
		message("头壳 for sale", testutil.BaseTime),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, out.Stats.Admitted)
	assert.Equal(t, 2, out.Stats.Relevant)
	assert.Equal(t, 0, keys.Len())
}

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	rec := &recordingRecorder{}

	p, err := NewPipeline(PipelineConfig{
		Name:     NameCommunity,
		Engine:   presetEngine(t, taxonomy.PresetCommunity),
		Storage:  store,
		Recorder: rec,
		Clock:    fixedClock,
	})
	require.NoError(t, err)

	src := source.NewStatic("fixture", []model.Item{message("kigurumi 聚会 this weekend", testutil.BaseTime)})
	run, out, err := p.Run(ctx, src)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, NameCommunity, run.Monitor)
	assert.Equal(t, 1, run.Stats.Admitted)
	assert.Len(t, out.Admitted, 1)
	assert.Empty(t, run.Error)
	require.Len(t, rec.runs, 1)

	runs, err := store.GetRuns(ctx, NameCommunity, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, 1, runs[0].Stats.Admitted)
}

type brokenSource struct{}

func (brokenSource) Name() string { return "broken" }

func (brokenSource) Fetch(context.Context) ([]model.Item, error) {
	return nil, common.ErrSourceUnavailable
}

func TestPipeline_RunAllSourcesFail(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)

	p, err := NewPipeline(PipelineConfig{
		Name:    NameInvestment,
		Engine:  presetEngine(t, taxonomy.PresetInvestment),
		Storage: store,
		Clock:   fixedClock,
	})
	require.NoError(t, err)

	run, _, err := p.Run(ctx, brokenSource{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoItems)
	assert.ErrorIs(t, err, common.ErrSourceUnavailable)
	assert.NotEmpty(t, run.Error)

	runs, err := store.GetRuns(ctx, NameInvestment, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.NotEmpty(t, runs[0].Error)
}

func TestPipeline_RunPartialSourceFailure(t *testing.T) {
	p, err := NewPipeline(PipelineConfig{
		Name:   NameCommunity,
		Engine: presetEngine(t, taxonomy.PresetCommunity),
		Clock:  fixedClock,
	})
	require.NoError(t, err)

	run, out, err := p.Run(context.Background(),
		brokenSource{},
		source.NewStatic("ok", []model.Item{message("kig mask review", testutil.BaseTime)}),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSourceUnavailable)
	assert.Equal(t, 1, run.Stats.Admitted)
	assert.Len(t, out.Admitted, 1)
}
