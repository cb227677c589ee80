package taxonomy

import (
	"fmt"
	"sort"

	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/model"
)

// Built-in preset names.
const (
	PresetArxiv      = "arxiv"
	PresetInvestment = "investment"
	PresetCommunity  = "community"
)

var presets = map[string]func() *Config{
	PresetArxiv:      arxivPreset,
	PresetInvestment: investmentPreset,
	PresetCommunity:  communityPreset,
}

// PresetNames lists the built-in presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a fresh, validated copy of a built-in configuration.
func Preset(name string) (*Config, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown taxonomy preset %q", common.ErrInvalidConfig, name)
	}
	cfg := build()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("preset %s: %w", name, err)
	}
	return cfg, nil
}

// ArxivTargetCategories are the arXiv subject classes the digest queries.
var ArxivTargetCategories = []string{"cs.AI", "cs.CV", "cs.LG", "cs.RO"}

func arxivPreset() *Config {
	return &Config{
		Name: PresetArxiv,
		Scoring: Scoring{
			Mode:            ModeTitleWeighted,
			TitleMultiplier: 3,
			BodyMultiplier:  1,
		},
		Categories: map[string]Category{
			"ai": {Weight: 1, Label: "AI", Keywords: []string{
				"artificial intelligence", "machine learning", "deep learning",
				"neural network", "transformer", "llm", "large language model",
				"foundation model", "generative ai", "diffusion model",
				"reinforcement learning", "agent", "multi-agent",
			}},
			"vision": {Weight: 1, Label: "Vision", Keywords: []string{
				"computer vision", "image generation", "video generation",
				"3d reconstruction", "pose estimation", "face recognition",
				"object detection", "segmentation", "generative adversarial",
				"nerf", "neural radiance field", "synthetic data",
			}},
			"agents": {Weight: 1, Label: "Agents", Keywords: []string{
				"autonomous agent", "ai agent", "embodied ai", "robot learning",
				"task planning", "tool use", "function calling", "api calling",
				"llm agent", "language agent", "interactive learning",
			}},
			"manufacturing": {Weight: 1, Label: "Manufacturing", Keywords: []string{
				"3d printing", "additive manufacturing", "digital twin",
				"industrial automation", "quality control", "defect detection",
				"predictive maintenance", "smart manufacturing", "industry 4.0",
			}},
			"kigurumi": {Weight: 1, Label: "Kigurumi", Keywords: []string{
				"kigurumi", "cosplay", "mask detection", "facial capture",
				"motion capture", "character animation", "avatar generation",
				"virtual idol", "vtuber", "digital avatar", "face tracking",
			}},
		},
		Bonus: &Bonus{
			Allowlist:  append([]string(nil), ArxivTargetCategories...),
			Multiplier: 1.2,
		},
		DefaultType: model.TypeDiscussion,
		Dedup:       Dedup{Fields: []string{"id"}},
		MinScore:    1.0,
	}
}

func investmentPreset() *Config {
	return &Config{
		Name:    PresetInvestment,
		Scoring: Scoring{Mode: ModeFlat},
		Categories: map[string]Category{
			"early_stage": {Weight: 10, Label: "早期投资", Keywords: []string{
				"天使轮", "种子轮", "Pre-A轮", "天使+", "种子+", "A轮",
			}},
			"ai": {Weight: 10, Label: "人工智能", Keywords: []string{
				"AI", "人工智能", "大模型", "LLM", "Agent", "AIGC",
				"机器学习", "深度学习", "神经网络", "ChatGPT", "Claude",
			}},
			"accelerator": {Weight: 8, Label: "孵化器", Keywords: []string{
				"MiraclePlus", "奇绩创坛", "Y Combinator", "YC China", "陆奇",
			}},
			"niche": {Weight: 6, Label: "二次元文化", Keywords: []string{
				"Kigurumi", "二次元", "Cosplay", "ACG", "动漫",
				"虚拟偶像", "Vtuber", "手办", "潮玩", "盲盒", "谷子",
			}},
			"vc_firms": {Weight: 5, Label: "知名机构", Keywords: []string{
				"红杉", "IDG", "高瓴", "源码资本", "五源资本",
				"GGV", "真格基金", "金沙江", "经纬中国", "启明创投",
			}},
		},
		DefaultType: model.TypeDiscussion,
		Dedup:       Dedup{Fields: []string{"meta.company", "meta.round", "meta.date"}},
	}
}

func communityPreset() *Config {
	return &Config{
		Name:    PresetCommunity,
		Scoring: Scoring{Mode: ModeFlat},
		Categories: map[string]Category{
			"primary": {Weight: 10, Label: "核心", Keywords: []string{
				"kigurumi", "着ぐるみ", "キグルミ", "kig", "头壳", "kiger", "着ぐるみさん",
			}},
			"secondary": {Weight: 5, Label: "相关", Keywords: []string{
				"animegao", "アニメ顔", "mask", "面具", "hadalabo", "肌ラボ", "bodysuit", "紧身衣",
			}},
			"product": {Weight: 4, Label: "交易", Keywords: []string{
				"头壳出售", "kigurumi sale", "着ぐるみ 販売", "mask for sale", "commission",
				"委托", "定制", "二手", "转让", "求购", "buy", "sell", "trade",
			}},
			"event": {Weight: 3, Label: "活动", Keywords: []string{
				"event", "活动", "展会", "convention", "meetup", "聚会", "cf",
				"comiket", "漫展", "cosplay event", "kigurumi meet",
			}},
			"brands": {Weight: 3, Label: "品牌", Keywords: []string{
				"dollkii", "nfd", "niya", "kigmask", "kigurumi-online", "animegao mall",
				"damegami", "kigland", "kigdom", "hiyasuya", "魔导", "kigstudio",
			}},
		},
		TypePriority: CommunityTypeRules(),
		DefaultType:  model.TypeDiscussion,
		Sentiment:    CommunitySentimentWords(),
		Dedup: Dedup{
			Fields:     []string{"source", "body", "timestamp"},
			BodyPrefix: DefaultBodyPrefix,
		},
		Competitors: map[string][]string{
			"头壳制作工作室": {
				"Dollkii", "NFD Studio", "Niya Kigurumi", "KigMask", "KigLand", "KigDom",
				"Hiyasuya", "魔导具工作室", "KigStudio", "AniMask",
			},
			"服装/配件": {
				"Hadalabo", "肌ラボ", "Kigurumi-Online", "Animegao Mall", "Damegami", "Kigurumi Shop",
			},
			"综合平台": {
				"Booth.pm", "Twitter/X Kigurumi", "Pixiv 着ぐるみ", "Reddit r/Kigurumi",
			},
		},
	}
}

// CommunityTypeRules is the default content-type priority list:
// sale, event, review, technical.
func CommunityTypeRules() []TypeRule {
	return []TypeRule{
		{Label: model.TypeSale, Keywords: []string{"出售", "转让", "sale", "buy", "求购", "二手", "price", "价格", "预算", "販売"}},
		{Label: model.TypeEvent, Keywords: []string{"event", "活动", "展会", "convention", "meetup", "聚会", "comiket", "漫展"}},
		{Label: model.TypeReview, Keywords: []string{"review", "评测", "测评", "体验", "心得", "推荐"}},
		{Label: model.TypeTechnical, Keywords: []string{"制作", "diy", "教程", "改造", "喷漆", "化妆", "修复"}},
	}
}

// CommunitySentimentWords is the default polarity vocabulary.
func CommunitySentimentWords() SentimentWords {
	return SentimentWords{
		Positive: []string{
			"喜欢", "love", "amazing", "great", "awesome", "beautiful", "cute",
			"可爱", "赞", "棒", "perfect", "wonderful", "感谢", "谢谢",
		},
		Negative: []string{
			"讨厌", "hate", "terrible", "bad", "awful", "problem", "issue",
			"失望", "差", "贵", "坑", "scam", "fraud", "骗",
		},
	}
}
