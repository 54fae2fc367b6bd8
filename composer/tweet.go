package composer

import "strings"

// DefaultBudget is the conventional microblog limit.
const DefaultBudget = 280

// Post holds the raw fragments of a structured quote post.
type Post struct {
	FigureName   string   `json:"figure_name"`
	Quote        string   `json:"quote"`
	Source       string   `json:"source"`
	ShortExplain string   `json:"short_explain"`
	Trivia       string   `json:"trivia"`
	Hashtags     []string `json:"hashtags"`
}

// Limits are the per-role ceilings and floors of a structured post.
type Limits struct {
	Quote        Limit `json:"quote" yaml:"quote"`
	Attribution  Limit `json:"attribution" yaml:"attribution"`
	ShortExplain Limit `json:"short_explain" yaml:"short_explain"`
	Trivia       Limit `json:"trivia" yaml:"trivia"`
	Hashtags     int   `json:"hashtags" yaml:"hashtags"`
}

func DefaultLimits() Limits {
	return Limits{
		Quote:        Limit{Max: 140, Min: 20},
		Attribution:  Limit{Max: 60, Min: 4},
		ShortExplain: Limit{Max: 100, Min: 16},
		Trivia:       Limit{Max: 100, Min: 16},
		Hashtags:     60,
	}
}

// Composer lays structured posts out within Budget.
type Composer struct {
	Budget int
	Limits Limits
}

// New returns a Composer with the default limits.
func New(budget int) *Composer {
	return &Composer{Budget: budget, Limits: DefaultLimits()}
}

// Compose fits p into the budget. Trivia is given up first, then the short
// explanation, and the quote is shortened only as a last resort. Hashtags are
// capped up front and attribution is never trimmed below its ceiling.
func (c *Composer) Compose(p Post) Result {
	frags := []Fragment{
		Line(RoleQuote, Normalize(p.Quote), c.Limits.Quote),
		Line(RoleAttribution, Attribution(p.FigureName, p.Source), c.Limits.Attribution),
		Line(RoleShortExplain, Normalize(p.ShortExplain), c.Limits.ShortExplain),
		Line(RoleTrivia, Normalize(p.Trivia), c.Limits.Trivia),
		Tags(RoleHashtags, p.Hashtags, c.Limits.Hashtags),
	}
	return Allocate(c.Budget, JoinLines, frags,
		Shrink(RoleTrivia),
		Shrink(RoleShortExplain),
		Shrink(RoleQuote),
	)
}

// BuildTweet returns the composed text of p.
func (c *Composer) BuildTweet(p Post) string {
	return c.Compose(p).Text
}

// Attribution renders the speaker line: the name, followed by the source in
// 『』 when one is known.
func Attribution(name, source string) string {
	name, source = Normalize(name), Normalize(source)
	switch {
	case name == "":
		return source
	case source == "":
		return name
	}
	return name + "『" + source + "』"
}

// ComposeCaption lays out caption, url and space-separated hashtags as
// "caption\nurl #tags". The caption is cut at a word boundary first, then
// hashtags are dropped from the end, then all of them.
func ComposeCaption(caption, url, hashtags string, budget int) Result {
	frags := []Fragment{
		Words(RoleCaption, caption, NoLimit),
		Fixed(RoleURL, url),
		Tags(RoleHashtags, strings.Fields(hashtags), NoLimit),
	}
	return Allocate(budget, joinCaption, frags,
		Shrink(RoleCaption),
		DropTags(RoleHashtags),
		Drop(RoleHashtags),
	)
}

// BuildCaptionTweet is ComposeCaption with a final ClipTail, so the result
// never exceeds budget. Clipping keeps the tail, where the url sits.
func BuildCaptionTweet(caption, url, hashtags string, budget int) string {
	res := ComposeCaption(caption, url, hashtags, budget)
	if res.Fits {
		return res.Text
	}
	return ClipTail(res.Text, budget)
}

func joinCaption(lines []string) string {
	var tail []string
	for _, s := range lines[1:] {
		if s = strings.TrimSpace(s); s != "" {
			tail = append(tail, s)
		}
	}
	return ComposeLines(lines[0], strings.Join(tail, " "))
}
