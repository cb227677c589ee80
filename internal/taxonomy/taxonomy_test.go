package taxonomy

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
name: test
scoring:
  mode: title_weighted
taxonomy:
  ai:
    keywords: [agent, llm]
    weight: 10
    label: AI
  niche:
    keywords: [cosplay]
    weight: 6
type_priority:
  - label: sale
    keywords: [sale]
sentiment_words:
  positive: [love]
  negative: [scam]
target_category_bonus:
  allowlist: [cs.AI]
  multiplier: 1.2
dedup:
  fields: [source, body, meta.company]
`

func TestLoad(t *testing.T) {
	cfg, err := Load(strings.NewReader(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Name)
	assert.Equal(t, ModeTitleWeighted, cfg.Scoring.Mode)
	assert.InDelta(t, DefaultTitleMultiplier, cfg.Scoring.TitleMultiplier, 0.0001)
	assert.InDelta(t, DefaultBodyMultiplier, cfg.Scoring.BodyMultiplier, 0.0001)
	assert.Equal(t, "discussion", cfg.DefaultType)
	assert.Equal(t, DefaultBodyPrefix, cfg.Dedup.BodyPrefix)
	assert.Equal(t, []string{"ai", "niche"}, cfg.CategoryNames())
	assert.Equal(t, "AI", cfg.Label("ai"))
	assert.Equal(t, "niche", cfg.Label("niche"))
	assert.InDelta(t, 16.0, cfg.MaxScore(), 0.0001)
	require.NotNil(t, cfg.Bonus)
	assert.InDelta(t, 1.2, cfg.Bonus.Multiplier, 0.0001)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{
			name:    "empty document",
			input:   "",
			wantMsg: "empty document",
		},
		{
			name: "unknown field",
			input: `
taxonomy:
  ai: {keywords: [agent], weight: 1}
colour: red
`,
			wantMsg: "colour",
		},
		{
			name: "negative weight",
			input: `
taxonomy:
  ai: {keywords: [agent], weight: -1}
`,
			wantMsg: "negative weight",
		},
		{
			name: "fractional weight",
			input: `
taxonomy:
  ai: {keywords: [agent], weight: 2.5}
`,
			wantMsg: "not a whole number",
		},
		{
			name: "empty keyword list",
			input: `
taxonomy:
  ai: {keywords: [], weight: 1}
`,
			wantMsg: "empty keyword list",
		},
		{
			name: "blank keyword",
			input: `
taxonomy:
  ai: {keywords: ["  "], weight: 1}
`,
			wantMsg: "blank",
		},
		{
			name: "unknown mode",
			input: `
scoring: {mode: fancy}
taxonomy:
  ai: {keywords: [agent], weight: 1}
`,
			wantMsg: "unknown scoring mode",
		},
		{
			name: "zero bonus multiplier",
			input: `
taxonomy:
  ai: {keywords: [agent], weight: 1}
target_category_bonus: {allowlist: [x], multiplier: 0}
`,
			wantMsg: "must be positive",
		},
		{
			name: "duplicate type label",
			input: `
taxonomy:
  ai: {keywords: [agent], weight: 1}
type_priority:
  - {label: sale, keywords: [sale]}
  - {label: sale, keywords: [buy]}
`,
			wantMsg: "duplicate label",
		},
		{
			name: "unknown dedup field",
			input: `
taxonomy:
  ai: {keywords: [agent], weight: 1}
dedup: {fields: [colour]}
`,
			wantMsg: "unknown dedup field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTaxonomy)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		Categories: map[string]Category{
			"a": {Keywords: nil, Weight: -1},
			"b": {Keywords: []string{"x"}, Weight: -2},
		},
	}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `category "a": negative weight`)
	assert.Contains(t, msg, `category "a": empty keyword list`)
	assert.Contains(t, msg, `category "b": negative weight`)
}

func TestValidate_NoCategories(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidTaxonomy)
}

func TestValidDedupField(t *testing.T) {
	assert.True(t, ValidDedupField("body"))
	assert.True(t, ValidDedupField("meta.company"))
	assert.False(t, ValidDedupField("meta."))
	assert.False(t, ValidDedupField("colour"))
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg, err := Preset(name)
			require.NoError(t, err)
			assert.Equal(t, name, cfg.Name)
			assert.NotEmpty(t, cfg.Categories)
		})
	}

	_, err := Preset("nope")
	assert.True(t, errors.Is(err, common.ErrInvalidConfig))
}

func TestPreset_ReturnsFreshCopy(t *testing.T) {
	a, err := Preset(PresetInvestment)
	require.NoError(t, err)
	delete(a.Categories, "ai")

	b, err := Preset(PresetInvestment)
	require.NoError(t, err)
	assert.Contains(t, b.Categories, "ai")
}

func TestLoadFile_RoundTripsMarshal(t *testing.T) {
	cfg, err := Preset(PresetCommunity)
	require.NoError(t, err)

	data, err := cfg.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "community.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.CategoryNames(), loaded.CategoryNames())
	assert.Equal(t, cfg.TypePriority, loaded.TypePriority)
	assert.Equal(t, cfg.Competitors, loaded.Competitors)
}

func TestResolve(t *testing.T) {
	cfg, err := Resolve("", PresetArxiv)
	require.NoError(t, err)
	assert.Equal(t, PresetArxiv, cfg.Name)

	_, err = Resolve(filepath.Join(t.TempDir(), "missing.yaml"), PresetArxiv)
	assert.Error(t, err)
}
