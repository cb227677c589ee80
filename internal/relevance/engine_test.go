package relevance

import (
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleConfig(t *testing.T) *taxonomy.Config {
	t.Helper()
	cfg := &taxonomy.Config{
		Categories: map[string]taxonomy.Category{
			"ai":    {Keywords: []string{"agent", "llm"}, Weight: 10},
			"niche": {Keywords: []string{"cosplay"}, Weight: 6},
		},
		TypePriority: taxonomy.CommunityTypeRules(),
		Sentiment:    taxonomy.CommunitySentimentWords(),
	}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func newEngine(t *testing.T, cfg *taxonomy.Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func TestEngine_WorkedExample(t *testing.T) {
	e := newEngine(t, exampleConfig(t))

	r := e.Evaluate(model.Item{Source: "test", Body: "New AI Agent platform for Cosplay creators"})

	assert.Equal(t, []string{"ai", "niche"}, r.MatchedCategories)
	assert.InDelta(t, 16.0, r.Score, 0.0001)
	assert.Equal(t, model.TypeDiscussion, r.ContentType)
	assert.Equal(t, model.SentimentNeutral, r.Sentiment)
	assert.Len(t, r.DedupKey, 64)
}

func TestEngine_Scoring(t *testing.T) {
	e := newEngine(t, exampleConfig(t))

	tests := []struct {
		name       string
		text       string
		wantScore  float64
		wantCats   []string
		wantKwords []string
	}{
		{
			name:     "no keyword hits",
			text:     "a quiet afternoon at the park",
			wantCats: []string{},
		},
		{
			name:       "repeated keyword counts once",
			text:       "agent agent agent and another agent",
			wantScore:  10,
			wantCats:   []string{"ai"},
			wantKwords: []string{"agent"},
		},
		{
			name:       "two keywords of one category count once",
			text:       "an LLM agent",
			wantScore:  10,
			wantCats:   []string{"ai"},
			wantKwords: []string{"agent", "llm"},
		},
		{
			name:       "case insensitive",
			text:       "AGENT",
			wantScore:  10,
			wantCats:   []string{"ai"},
			wantKwords: []string{"agent"},
		},
		{
			name:       "matches inside words",
			text:       "agentic workflows",
			wantScore:  10,
			wantCats:   []string{"ai"},
			wantKwords: []string{"agent"},
		},
		{
			name:     "empty text",
			text:     "",
			wantCats: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.Evaluate(model.Item{Body: tt.text})
			assert.InDelta(t, tt.wantScore, r.Score, 0.0001)
			assert.Equal(t, tt.wantCats, r.MatchedCategories)
			if tt.wantKwords == nil {
				assert.Empty(t, r.MatchedKeywords)
			} else {
				assert.Equal(t, tt.wantKwords, r.MatchedKeywords)
			}
		})
	}
}

func TestEngine_CJKSubstrings(t *testing.T) {
	cfg, err := taxonomy.Preset(taxonomy.PresetInvestment)
	require.NoError(t, err)
	e := newEngine(t, cfg)

	r := e.Evaluate(model.Item{Title: "某AI公司完成天使轮融资", Body: "红杉领投，专注二次元虚拟偶像"})

	assert.Equal(t, []string{"ai", "early_stage", "niche", "vc_firms"}, r.MatchedCategories)
	assert.InDelta(t, 31.0, r.Score, 0.0001)
}

func TestEngine_TitleWeighted(t *testing.T) {
	cfg := exampleConfig(t)
	cfg.Scoring.Mode = taxonomy.ModeTitleWeighted

	e := newEngine(t, cfg)

	tests := []struct {
		name  string
		item  model.Item
		score float64
	}{
		{"title only", model.Item{Title: "LLM agents"}, 30},
		{"body only", model.Item{Body: "LLM agents"}, 10},
		{"title and body use the title multiplier once", model.Item{Title: "agent", Body: "agent llm"}, 30},
		{"mixed categories", model.Item{Title: "agent", Body: "cosplay"}, 36},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.score, e.Evaluate(tt.item).Score, 0.0001)
		})
	}
}

func TestEngine_TargetCategoryBonus(t *testing.T) {
	cfg, err := taxonomy.Preset(taxonomy.PresetArxiv)
	require.NoError(t, err)
	e := newEngine(t, cfg)

	paper := model.Item{Title: "Diffusion model for kigurumi masks", Body: "We study motion capture."}

	plain := e.Evaluate(paper)
	// ai and kigurumi in the title, kigurumi again in the body
	assert.InDelta(t, 6.0, plain.Score, 0.0001)

	paper.Tags = []string{"CS.CV"}
	boosted := e.Evaluate(paper)
	assert.InDelta(t, 7.2, boosted.Score, 0.0001)

	paper.Tags = []string{"physics.optics"}
	assert.InDelta(t, 6.0, e.Evaluate(paper).Score, 0.0001)
}

func TestEngine_ContentTypePriority(t *testing.T) {
	e := newEngine(t, exampleConfig(t))

	tests := []struct {
		text string
		want string
	}{
		{"selling my head at the convention event, price negotiable", model.TypeSale},
		{"meetup this weekend", model.TypeEvent},
		{"honest review of my new mask", model.TypeReview},
		{"喷漆教程", model.TypeTechnical},
		{"just chatting", model.TypeDiscussion},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Evaluate(model.Item{Body: tt.text}).ContentType)
		})
	}
}

func TestEngine_Sentiment(t *testing.T) {
	e := newEngine(t, exampleConfig(t))

	tests := []struct {
		name string
		text string
		want model.Sentiment
	}{
		{"no words", "the sky", model.SentimentNeutral},
		{"positive", "love it, so cute", model.SentimentPositive},
		{"negative", "what a scam", model.SentimentNegative},
		{"tie", "love it but there is a problem", model.SentimentNeutral},
		{"repeats count once", "love love love, but bad and awful", model.SentimentNegative},
		{"cjk", "太可爱了，谢谢", model.SentimentPositive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Evaluate(model.Item{Body: tt.text}).Sentiment)
		})
	}
}

func TestEngine_ExtractsHashtagsAndURLs(t *testing.T) {
	e := newEngine(t, exampleConfig(t))

	r := e.Evaluate(model.Item{Body: "新头壳 #kigurumi #着ぐるみ see https://example.com/p?id=1 now"})
	assert.Equal(t, []string{"#kigurumi", "#着ぐるみ"}, r.Hashtags)
	assert.Equal(t, []string{"https://example.com/p?id=1"}, r.URLs)
}

func TestEngine_Relevant(t *testing.T) {
	cfg := exampleConfig(t)
	e := newEngine(t, cfg)
	assert.False(t, e.Relevant(model.Result{}))
	assert.True(t, e.Relevant(model.Result{MatchedCategories: []string{"ai"}}))

	cfg.MinScore = 12
	e = newEngine(t, cfg)
	assert.False(t, e.Relevant(model.Result{Score: 10, MatchedCategories: []string{"ai"}}))
	assert.True(t, e.Relevant(model.Result{Score: 16}))
}

func TestEngine_Competitors(t *testing.T) {
	cfg, err := taxonomy.Preset(taxonomy.PresetCommunity)
	require.NoError(t, err)
	e := newEngine(t, cfg)

	ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s := e.Score(model.Item{
		Source:    "tg",
		Body:      "Just got my new head from dollkii, love it! Also looking at KigLand.",
		Timestamp: ts,
	})

	mentions := e.Competitors(s)
	require.Len(t, mentions, 2)
	assert.Equal(t, "Dollkii", mentions[0].Brand)
	assert.Equal(t, "头壳制作工作室", mentions[0].Group)
	assert.Equal(t, "KigLand", mentions[1].Brand)
	for _, m := range mentions {
		assert.Equal(t, "tg", m.Source)
		assert.Equal(t, ts, m.Timestamp)
		assert.Equal(t, model.SentimentPositive, m.Sentiment)
		assert.Equal(t, s.Result.DedupKey, m.ItemKey)
	}
}

func TestEngine_ScoreUndatedItem(t *testing.T) {
	cfg, err := taxonomy.Preset(taxonomy.PresetCommunity)
	require.NoError(t, err)
	e := newEngine(t, cfg)

	collected := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	item := model.Item{Source: "KIG 头壳交流", Body: "出售 kigurumi 头壳", CollectedAt: collected}

	first := e.Score(item)
	assert.Equal(t, collected, first.Item.Timestamp)

	item.CollectedAt = collected.Add(24 * time.Hour)
	second := e.Score(item)
	assert.Equal(t, item.CollectedAt, second.Item.Timestamp)
	assert.Equal(t, first.Result.DedupKey, second.Result.DedupKey)

	item.Timestamp = collected
	assert.NotEqual(t, first.Result.DedupKey, e.Score(item).Result.DedupKey)
}

func TestCompetitorDetector_ContextWindow(t *testing.T) {
	d := NewCompetitorDetector(map[string][]string{"g": {"Brand"}})

	pad := ""
	for i := 0; i < 80; i++ {
		pad += "字"
	}
	mentions := d.Detect(pad + "brand" + pad)
	require.Len(t, mentions, 1)
	assert.Equal(t, 50+5+50, len([]rune(mentions[0].Context)))
	assert.Contains(t, mentions[0].Context, "brand")

	assert.Nil(t, d.Detect("nothing here"))
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := &taxonomy.Config{Categories: map[string]taxonomy.Category{"x": {Weight: -1, Keywords: []string{"a"}}}}
	cfg.ApplyDefaults()
	_, err := New(cfg)
	assert.ErrorIs(t, err, taxonomy.ErrInvalidTaxonomy)
}

func TestEngine_ConcurrentEvaluate(t *testing.T) {
	e := newEngine(t, exampleConfig(t))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				r := e.Evaluate(model.Item{Body: "New AI Agent platform for Cosplay creators"})
				assert.InDelta(t, 16.0, r.Score, 0.0001)
			}
		}()
	}
	wg.Wait()
}
