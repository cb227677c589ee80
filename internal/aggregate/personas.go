package aggregate

import (
	"sort"

	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/relevance"
)

// Persona is a coarse community role.
type Persona string

// Personas in report order.
const (
	PersonaEnthusiast Persona = "enthusiast"
	PersonaBuyer      Persona = "buyer"
	PersonaSeller     Persona = "seller"
	PersonaCreator    Persona = "creator"
	PersonaLurker     Persona = "lurker"
)

// AllPersonas lists personas in report order.
var AllPersonas = []Persona{PersonaEnthusiast, PersonaBuyer, PersonaSeller, PersonaCreator, PersonaLurker}

// Persona thresholds.
const (
	regularMinMessages    = 5
	occasionalMinMessages = 2
	activeMinMessages     = 3
	enthusiastMinFocus    = 5
)

// UserProfile summarises one author's activity.
type UserProfile struct {
	Keywords  map[string]int `json:"keywords"`
	Types     map[string]int `json:"types"`
	Languages map[string]int `json:"languages"`
	Author    string         `json:"author"`
	Persona   Persona        `json:"persona"`
	Sources   []string       `json:"sources"`
	Messages  int            `json:"messages"`
	AvgLength int            `json:"avg_length"`
}

// PersonaReport groups authors by persona.
type PersonaReport struct {
	Personas    map[Persona][]string `json:"personas"`
	Users       []UserProfile        `json:"users"`
	TotalUsers  int                  `json:"total_users"`
	ActiveUsers int                  `json:"active_users"`
}

// Personas profiles every author. Authors with five or more messages are
// sellers if any message was a sale, enthusiasts if focus keywords were
// matched more than five times, creators otherwise. Two to four messages make
// a buyer, one a lurker.
func Personas(items []model.ScoredItem, focus []string) PersonaReport {
	profiles := make(map[string]*UserProfile)
	sources := make(map[string]map[string]bool)
	lengths := make(map[string]int)

	for _, s := range items {
		author := s.Item.Author
		if author == "" {
			author = "unknown"
		}
		p, ok := profiles[author]
		if !ok {
			p = &UserProfile{
				Author:    author,
				Keywords:  make(map[string]int),
				Types:     make(map[string]int),
				Languages: make(map[string]int),
			}
			profiles[author] = p
			sources[author] = make(map[string]bool)
		}

		p.Messages++
		sources[author][s.Item.Source] = true
		for _, kw := range s.Result.MatchedKeywords {
			p.Keywords[kw]++
		}
		p.Types[s.Result.ContentType]++

		lang := s.Item.Meta("lang")
		if lang == "" {
			lang = relevance.DetectLanguage(s.Item.Text())
		}
		p.Languages[lang]++
		lengths[author] += len([]rune(s.Item.Body))
	}

	report := PersonaReport{
		Personas: make(map[Persona][]string, len(AllPersonas)),
	}
	for _, persona := range AllPersonas {
		report.Personas[persona] = []string{}
	}

	authors := make([]string, 0, len(profiles))
	for a := range profiles {
		authors = append(authors, a)
	}
	sort.Strings(authors)

	for _, a := range authors {
		p := profiles[a]
		p.AvgLength = lengths[a] / p.Messages
		for src := range sources[a] {
			p.Sources = append(p.Sources, src)
		}
		sort.Strings(p.Sources)
		p.Persona = classifyPersona(p, focus)

		report.Personas[p.Persona] = append(report.Personas[p.Persona], a)
		report.Users = append(report.Users, *p)
		if p.Messages >= activeMinMessages {
			report.ActiveUsers++
		}
	}
	report.TotalUsers = len(authors)
	return report
}

func classifyPersona(p *UserProfile, focus []string) Persona {
	switch {
	case p.Messages >= regularMinMessages:
		if p.Types[model.TypeSale] > 0 {
			return PersonaSeller
		}
		hits := 0
		for _, kw := range focus {
			hits += p.Keywords[kw]
		}
		if hits > enthusiastMinFocus {
			return PersonaEnthusiast
		}
		return PersonaCreator
	case p.Messages >= occasionalMinMessages:
		return PersonaBuyer
	default:
		return PersonaLurker
	}
}
