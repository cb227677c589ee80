package source

import (
	"context"
	"time"

	"github.com/Veraticus/intel-sieve/internal/model"
)

// MockFundingEvents returns a fixed set of funding announcements dated
// relative to now. They let the investment pipeline run without network
// access.
func MockFundingEvents(now time.Time) []model.FundingEvent {
	today := now.Format(model.DateLayout)
	tags := []string{"人工智能", "早期投资"}
	return []model.FundingEvent{
		{
			Company:     "AutoAgent Labs",
			Round:       "种子轮",
			Amount:      "500万美元",
			Date:        today,
			Investors:   []string{"MiraclePlus"},
			Description: "自动化工作流 AI Agent 平台",
			Platform:    "mock",
			Tags:        tags,
		},
		{
			Company:     "CosAI Studio",
			Round:       "天使轮",
			Amount:      "300万人民币",
			Date:        today,
			Investors:   []string{"某天使投资人"},
			Description: "AI 驱动的 Cosplay 设计工具",
			Platform:    "mock",
			Tags:        tags,
		},
		{
			Company:     "RobotMind",
			Round:       "Pre-A轮",
			Amount:      "800万美元",
			Date:        now.AddDate(0, 0, -2).Format(model.DateLayout),
			Investors:   []string{"红杉中国", "真格基金"},
			Description: "具身智能决策系统",
			Platform:    "mock",
			Tags:        tags,
		},
	}
}

// MockFunding serves MockFundingEvents.
type MockFunding struct {
	Now func() time.Time
}

// Name implements Source.
func (m *MockFunding) Name() string { return "mock" }

// Fetch implements Source.
func (m *MockFunding) Fetch(_ context.Context) ([]model.Item, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	events := MockFundingEvents(now())
	items := make([]model.Item, len(events))
	for i, e := range events {
		items[i] = e.Item()
	}
	return items, nil
}

// SampleMessages returns a handful of undated community posts collected at now.
func SampleMessages(now time.Time) []model.Item {
	msg := func(source, sourceType, author, body string) model.Item {
		return model.Item{
			Kind:        model.KindMessage,
			Source:      source,
			SourceType:  sourceType,
			Author:      author,
			Body:        body,
			CollectedAt: now,
		}
	}
	return []model.Item{
		msg("Kigurumi World", "channel", "kig_fan_01",
			"Just received my new Dollkii mask! The quality is amazing and the hadalabo skin looks so natural. #kigurumi #dollkii"),
		msg("着ぐるみ情報局", "channel", "jp_editor",
			"今週末のコミケで着ぐるみ展示があります。NFD Studioの新作も展示される予定です。ぜひお越しください！"),
		msg("KIG 头壳交流", "group", "user_cn_123",
			"有人知道KigLand的定制价格吗？想做一个萌系角色的头壳，预算大概8000-12000，求推荐靠谱的工作室"),
		msg("Kigurumi Fan Club", "group", "kig_collector",
			"Selling my Niya kigurumi set, barely used. Includes mask, bodysuit and accessories. DM for price. #forsale #kigurumi"),
	}
}

// Samples serves SampleMessages.
type Samples struct {
	Now func() time.Time
}

// Name implements Source.
func (s *Samples) Name() string { return "samples" }

// Fetch implements Source.
func (s *Samples) Fetch(_ context.Context) ([]model.Item, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return SampleMessages(now()), nil
}
