package generator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
)

var (
	hobbies = []string{
		"reading", "photography", "hiking", "cooking", "painting", "gaming",
		"gardening", "traveling", "yoga", "dancing", "writing", "music",
		"cycling", "swimming", "running", "chess", "pottery", "knitting",
		"rock climbing", "skiing", "surfing", "meditation", "volunteering",
		"astronomy", "bird watching", "fishing", "camping", "martial arts",
	}

	traits = []string{
		"curious", "adventurous", "creative", "analytical", "empathetic",
		"optimistic", "detail-oriented", "spontaneous", "thoughtful",
		"ambitious", "laid-back", "passionate", "resourceful", "friendly",
		"independent", "collaborative", "innovative", "patient", "energetic",
	}

	interests = []string{
		"technology", "science", "history", "art", "literature", "movies",
		"sports", "nature", "culture", "food", "fashion", "architecture",
		"psychology", "philosophy", "sustainability", "fitness", "business",
		"languages", "politics", "economics", "health", "education",
	}

	goals = []string{
		"learn new languages", "travel the world", "start my own business",
		"make a positive impact", "continue growing personally",
		"build meaningful relationships", "stay healthy and active",
		"pursue creative projects", "help others", "explore new cultures",
		"master new skills", "achieve work-life balance", "give back to community",
	}
)

// bioParts is one random draw from the vocabularies above. Hobbies has at
// least two entries and every other slice at least one.
type bioParts struct {
	Hobbies   []string
	Traits    []string
	Interests []string
	Goals     []string
	Company   string
	Gender    string
}

var bioTemplates = []func(p bioParts) string{
	func(p bioParts) string {
		at := ""
		if p.Company != "" {
			at = " at " + p.Company
		}
		return fmt.Sprintf("When I'm not working%s, you can find me %s or %s. I consider myself %s and have a deep interest in %s. My goal is to %s.",
			at, p.Hobbies[0], p.Hobbies[1], p.Traits[0], p.Interests[0], p.Goals[0])
	},
	func(p bioParts) string {
		return fmt.Sprintf("Life is all about balance for me. I enjoy %s in my free time and I'm particularly interested in %s. As a %s person, I believe in %s.",
			strings.Join(p.Hobbies[:2], ", "), p.Interests[0], p.Traits[0], p.Goals[0])
	},
	func(p bioParts) string {
		return fmt.Sprintf("I'm passionate about %s and %s, and I love exploring topics related to %s. Friends would describe me as %s. Currently focused on %s.",
			p.Hobbies[0], p.Hobbies[1], p.Interests[0], strings.Join(p.Traits, " and "), p.Goals[0])
	},
	func(p bioParts) string {
		return fmt.Sprintf("My interests include %s and I'm always eager to learn about %s. I'm a %s individual who values the chance to %s. Looking forward to new adventures!",
			strings.Join(p.Hobbies[:min(3, len(p.Hobbies))], ", "), p.Interests[0], p.Traits[0], p.Goals[0])
	},
	func(p bioParts) string {
		return fmt.Sprintf("People often describe me as %s. In my spare time, I love %s and exploring %s. I'm working towards the day I %s.",
			strings.Join(p.Traits, " and "), p.Hobbies[0], p.Interests[0], p.Goals[0])
	},
	func(p bioParts) string {
		return fmt.Sprintf("What drives me? %s and %s! I'm naturally %s and spend my free time %s. My aspiration is to %s.",
			capitalize(p.Interests[0]), p.Hobbies[0], p.Traits[0], p.Hobbies[1], p.Goals[0])
	},
	func(p bioParts) string {
		return fmt.Sprintf("Hello! I'm a %s %s with a passion for %s and %s. When not %s, I'm usually planning to %s.",
			p.Traits[0], personNoun(p.Gender), p.Hobbies[0], p.Interests[0], p.Hobbies[1], p.Goals[0])
	},
	func(p bioParts) string {
		if p.Company != "" {
			return fmt.Sprintf("By day I work at %s; by night I'm into %s and %s. Being %s keeps me curious about %s, and I hope to %s.",
				p.Company, p.Hobbies[0], p.Hobbies[1], p.Traits[0], p.Interests[0], p.Goals[0])
		}
		return fmt.Sprintf("Between projects I fill my days with %s and %s. Being %s keeps me curious about %s, and I hope to %s.",
			p.Hobbies[0], p.Hobbies[1], p.Traits[0], p.Interests[0], p.Goals[0])
	},
	func(p bioParts) string {
		return fmt.Sprintf("Life's too short not to pursue what you love! For me, that's %s, %s, and %s. Being %s, I'm committed to the goal to %s.",
			p.Hobbies[0], p.Interests[0], p.Hobbies[1], p.Traits[0], p.Goals[0])
	},
	func(p bioParts) string {
		return fmt.Sprintf("I find fulfillment in %s and have always been drawn to %s. My %s personality helps me enjoy %s, and I'm working to %s.",
			p.Hobbies[0], p.Interests[0], p.Traits[0], p.Hobbies[1], p.Goals[0])
	},
}

// TemplateBio fills one of a fixed set of sentence templates with hobbies,
// traits, interests and goals drawn at random.
type TemplateBio struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

// NewTemplateBio creates a TemplateBio drawing from faker.
func NewTemplateBio(faker *gofakeit.Faker) *TemplateBio {
	return &TemplateBio{faker: faker}
}

// Bio returns a non-empty biography. The company, when present, may be
// mentioned.
func (t *TemplateBio) Bio(gender string, company *string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := bioParts{
		Hobbies:   t.sample(hobbies, 2, 4),
		Traits:    t.sample(traits, 1, 3),
		Interests: t.sample(interests, 1, 3),
		Goals:     t.sample(goals, 1, 2),
		Gender:    gender,
	}
	if company != nil {
		p.Company = *company
	}

	tmpl := bioTemplates[t.faker.IntRange(0, len(bioTemplates)-1)]
	return tmpl(p)
}

// sample returns between lo and hi distinct entries of from.
func (t *TemplateBio) sample(from []string, lo, hi int) []string {
	picked := append([]string(nil), from...)
	t.faker.ShuffleStrings(picked)
	return picked[:t.faker.IntRange(lo, hi)]
}

func personNoun(gender string) string {
	switch gender {
	case "male":
		return "guy"
	case "female":
		return "woman"
	default:
		return "person"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
