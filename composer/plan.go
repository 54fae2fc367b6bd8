package composer

import "strings"

// NoLimit is the ceiling of a fragment that may take the whole budget.
const NoLimit = 1 << 30

// Role names one fragment of a post.
type Role string

const (
	RoleQuote        Role = "quote"
	RoleAttribution  Role = "attribution"
	RoleShortExplain Role = "shortExplain"
	RoleTrivia       Role = "trivia"
	RoleHashtags     Role = "hashtags"
	RoleCaption      Role = "caption"
	RoleURL          Role = "url"
)

// Fragment is one independently trimmable piece of a post. Build it with
// Line, Words, Tags or Fixed.
type Fragment struct {
	Role  Role
	Text  string
	Tags  []string
	Limit Limit
	fit   func(f Fragment, max int) string
}

// Line is a text fragment fitted with FitLine.
func Line(role Role, text string, lim Limit) Fragment {
	return Fragment{Role: role, Text: text, Limit: lim, fit: fitLine}
}

// Words is a text fragment cut at a word boundary with no marker and no floor.
func Words(role Role, text string, max int) Fragment {
	return Fragment{Role: role, Text: text, Limit: Limit{Max: max}, fit: fitWords}
}

// Tags is a hashtag fragment fitted with FitHashtags.
func Tags(role Role, tags []string, max int) Fragment {
	return Fragment{Role: role, Tags: tags, Limit: Limit{Max: max}, fit: fitTags}
}

// Fixed is a mandatory fragment that is never trimmed.
func Fixed(role Role, text string) Fragment {
	return Fragment{Role: role, Text: text, Limit: Limit{Max: NoLimit}, fit: fitFixed}
}

func fitLine(f Fragment, max int) string {
	return FitLine(f.Text, Limit{Max: max, Min: f.Limit.Min})
}

func fitWords(f Fragment, max int) string {
	return TrimWords(strings.TrimSpace(f.Text), max)
}

func fitTags(f Fragment, max int) string {
	return FitHashtags(f.Tags, max)
}

func fitFixed(f Fragment, _ int) string {
	return strings.TrimSpace(f.Text)
}

func (f Fragment) render(max int) string {
	if max > f.Limit.Max {
		max = f.Limit.Max
	}
	if f.fit == nil {
		return fitLine(f, max)
	}
	return f.fit(f, max)
}

// JoinFunc assembles rendered lines, in fragment order, into post text.
type JoinFunc func(lines []string) string

// JoinLines joins with ComposeLines.
func JoinLines(lines []string) string {
	return ComposeLines(lines...)
}

// Plan is the working state of one allocation.
type Plan struct {
	budget int
	join   JoinFunc
	frags  []Fragment
	lines  []string
}

func newPlan(budget int, join JoinFunc, frags []Fragment) *Plan {
	p := &Plan{
		budget: budget,
		join:   join,
		frags:  frags,
		lines:  make([]string, len(frags)),
	}
	for i, f := range frags {
		p.lines[i] = f.render(f.Limit.Max)
	}
	return p
}

// Text is the current composition.
func (p *Plan) Text() string { return p.join(p.lines) }

// Weight is the weighted length of the current composition.
func (p *Plan) Weight() int { return WeightedLength(p.Text()) }

// Fits reports whether the current composition is within budget.
func (p *Plan) Fits() bool { return p.Weight() <= p.budget }

// Line returns the current rendering of role.
func (p *Plan) Line(role Role) string {
	if i := p.index(role); i >= 0 {
		return p.lines[i]
	}
	return ""
}

func (p *Plan) index(role Role) int {
	for i, f := range p.frags {
		if f.Role == role {
			return i
		}
	}
	return -1
}

func (p *Plan) joinWith(i int, line string) string {
	lines := make([]string, len(p.lines))
	copy(lines, p.lines)
	lines[i] = line
	return p.join(lines)
}

// allowance is the weight left for line i once every other line and the
// separator line i brings with it are paid for.
func (p *Plan) allowance(i int) int {
	base := WeightedLength(p.joinWith(i, ""))
	sep := WeightedLength(p.joinWith(i, "x")) - base - 1
	return p.budget - base - sep
}

// Stage is one step of the fallback sequence.
type Stage struct {
	Name  string
	apply func(p *Plan)
}

// Shrink re-fits role to whatever the rest of the post leaves over, or drops
// it when nothing is left.
func Shrink(role Role) Stage {
	return Stage{Name: "shrink " + string(role), apply: func(p *Plan) {
		i := p.index(role)
		if i < 0 || p.lines[i] == "" {
			return
		}
		allowance := p.allowance(i)
		if allowance < 0 {
			p.lines[i] = ""
			return
		}
		p.lines[i] = p.frags[i].render(allowance)
	}}
}

// DropTags removes trailing space-separated tokens of role one at a time
// until the post fits or the line is empty.
func DropTags(role Role) Stage {
	return Stage{Name: "drop trailing " + string(role), apply: func(p *Plan) {
		i := p.index(role)
		if i < 0 {
			return
		}
		tags := strings.Fields(p.lines[i])
		for !p.Fits() && len(tags) > 0 {
			tags = tags[:len(tags)-1]
			p.lines[i] = strings.Join(tags, " ")
		}
	}}
}

// Drop removes role entirely.
func Drop(role Role) Stage {
	return Stage{Name: "drop " + string(role), apply: func(p *Plan) {
		if i := p.index(role); i >= 0 {
			p.lines[i] = ""
		}
	}}
}

// Result is the outcome of an allocation.
type Result struct {
	Text   string `json:"text"`
	Weight int    `json:"weight"`
	// Stage is the last stage applied, empty when the first composition fit.
	Stage string `json:"stage,omitempty"`
	Fits  bool   `json:"fits"`
}

// Allocate renders every fragment within its own ceiling, then runs stages
// in order until the composition fits. Only stages trim to the budget. The
// last composition is returned when no stage succeeds, so the result may
// still exceed budget when the untrimmable fragments alone do. A budget <= 0
// yields empty text.
func Allocate(budget int, join JoinFunc, frags []Fragment, stages ...Stage) Result {
	if budget <= 0 {
		return Result{Fits: budget == 0}
	}
	if join == nil {
		join = JoinLines
	}
	p := newPlan(budget, join, frags)
	res := Result{}
	for _, stage := range stages {
		if p.Fits() {
			break
		}
		stage.apply(p)
		res.Stage = stage.Name
	}
	res.Text = p.Text()
	res.Weight = WeightedLength(res.Text)
	res.Fits = res.Weight <= budget
	return res
}
