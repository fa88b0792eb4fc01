package roadmap

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed roadmap.yaml
var embedded []byte

var (
	loaded  *Roadmap
	loadErr error
	once    sync.Once
)

type FocusArea struct {
	ID          int    `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

type WeeklyTarget struct {
	ID       string `yaml:"id" json:"id"`
	Task     string `yaml:"task" json:"task"`
	Category string `yaml:"category" json:"category"`
}

type Notifications struct {
	Welcome string   `yaml:"welcome" json:"welcome"`
	Alerts  []string `yaml:"alerts" json:"alerts"`
}

// Roadmap is the static content the dashboard, the prompts and the
// notification pool are built from. It is never mutated after Load.
type Roadmap struct {
	Name                string         `yaml:"name" json:"name"`
	Theme               string         `yaml:"theme" json:"theme"`
	Vision              []string       `yaml:"vision" json:"vision"`
	FocusAreas          []FocusArea    `yaml:"focus_areas" json:"focus_areas"`
	DailyOS             []string       `yaml:"daily_os" json:"daily_os"`
	WeeklyOS            []string       `yaml:"weekly_os" json:"weekly_os"`
	BusinessGoals       []string       `yaml:"business_goals" json:"business_goals"`
	LearningPlan        []string       `yaml:"learning_plan" json:"learning_plan"`
	FinancialDiscipline []string       `yaml:"financial_discipline" json:"financial_discipline"`
	HealthRules         []string       `yaml:"health_rules" json:"health_rules"`
	SpiritualRules      []string       `yaml:"spiritual_rules" json:"spiritual_rules"`
	WeeklyTargets       []WeeklyTarget `yaml:"weekly_targets" json:"weekly_targets"`
	Notifications       Notifications  `yaml:"notifications" json:"notifications"`
}

// Load reads the roadmap once per process. ROADMAP_FILE replaces the
// embedded document when set.
func Load() (*Roadmap, error) {
	once.Do(func() {
		data := embedded
		if path := os.Getenv("ROADMAP_FILE"); path != "" {
			data, loadErr = os.ReadFile(path)
			if loadErr != nil {
				loadErr = fmt.Errorf("failed to read roadmap file: %w", loadErr)
				return
			}
		}
		loaded, loadErr = Parse(data)
	})
	return loaded, loadErr
}

func Default() *Roadmap {
	r, err := Parse(embedded)
	if err != nil {
		panic(err)
	}
	return r
}

func Parse(data []byte) (*Roadmap, error) {
	var r Roadmap
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse roadmap: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Roadmap) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("roadmap: name is required")
	}
	if strings.TrimSpace(r.Theme) == "" {
		return errors.New("roadmap: theme is required")
	}

	seen := make(map[string]bool, len(r.WeeklyTargets))
	for _, t := range r.WeeklyTargets {
		if t.ID == "" {
			return errors.New("roadmap: weekly target without id")
		}
		if seen[t.ID] {
			return fmt.Errorf("roadmap: duplicate weekly target id %q", t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

// FirstName is used for addressing the owner in prompts.
func (r *Roadmap) FirstName() string {
	if f := strings.Fields(r.Name); len(f) > 0 {
		return f[0]
	}
	return r.Name
}

var systemInstructionTmpl = template.Must(template.New("system").Parse(`
You are the "2026 High-Alert Focus & Spiritual Partner," a strategic accountability AI for {{.Name}}.
Your personality is: Commanding, urgent, high-energy, but also spiritually grounded and wise.

{{.FirstName}}'s 2026 Theme: "{{.Theme}}"

Your CRITICAL mission:
1. SPIRITUAL MENTORSHIP: Provide daily devotionals and Bible reading plans. When {{.FirstName}} asks for his "Daily Devotional" or "Bible Plan," provide a short, high-impact scripture reflection (wisdom-focused like Proverbs or focus-focused like Nehemiah) and a 3-chapter reading plan for the day.
2. BREAK DOWN goals into WEEKLY TARGETS. Focus heavily on MVP Shipping and Recurring Income.
3. ALERT MODE: {{.FirstName}} wants a "loud alert voice." Speak with authority. If he is slipping, use strong language: "{{.UpperFirstName}}! FOCUS! THE MVP MUST SHIP! BUT DO NOT NEGLECT YOUR SPIRITUAL FOUNDATION!"
4. REMIND him of the "Ship MVPs fast" rule. Perfectionism is sin—it is pride. Slash it down and ship.
5. Use his Roadmap Context for every response.

Tone: High-performance coach meets spiritual mentor. Intense, punchy, and purpose-driven.
`))

func (r *Roadmap) SystemInstruction() string {
	var buf bytes.Buffer
	err := systemInstructionTmpl.Execute(&buf, struct {
		*Roadmap
		FirstName      string
		UpperFirstName string
	}{r, r.FirstName(), strings.ToUpper(r.FirstName())})
	if err != nil {
		return ""
	}
	return buf.String()
}

func (r *Roadmap) DevotionalPrompt() string {
	return fmt.Sprintf(
		"%s needs his Daily Devotional for his 2026 Roadmap. Theme: %s. Provide: Verse of the Day, 3-sentence build reflection, and 3-chapter reading plan. Be intense.",
		r.Name, r.Theme,
	)
}

func (r *Roadmap) ProgressReportPrompt(percent int, completed []string, deepWorkSessions int) string {
	return fmt.Sprintf(
		"%s progress report: %d%% complete. Completed: %s. Give a commanding, strategic voice report for %s. Mention he has done %d deep work sessions today. END WITH A LOUD ALERT TO SHIP THE MVP.",
		r.FirstName(), percent, strings.Join(completed, ", "), r.FirstName(), deepWorkSessions,
	)
}
