package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// UncertainSource is used when the model gives no source.
const UncertainSource = "諸説あり"

// PostProcess parses the model's JSON reply into a normalized Content.
func PostProcess(raw string) (Content, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return Content{}, errors.New("model returned empty response")
	}
	obj, err := extractObject(body)
	if err != nil {
		return Content{}, err
	}

	c := Content{
		FigureName:   textField(obj.Get("figure_name")),
		Quote:        textField(obj.Get("quote")),
		Source:       textField(obj.Get("source")),
		ShortExplain: textField(obj.Get("short_explain")),
		Trivia:       textField(obj.Get("trivia")),
		Hashtags:     NormalizeHashtags(stringList(obj.Get("hashtags"))),
	}
	flags := obj.Get("risk_flags")
	if !flags.Exists() {
		flags = obj.Get("riskFlags")
	}
	c.RiskFlags = stringList(flags)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"figure_name", c.FigureName},
		{"quote", c.Quote},
		{"short_explain", c.ShortExplain},
		{"trivia", c.Trivia},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return Content{}, fmt.Errorf("model response missing required fields: %s", strings.Join(missing, ", "))
	}
	if c.Source == "" {
		c.Source = UncertainSource
	}
	return c, nil
}

// extractObject accepts either a bare JSON object or one embedded in prose
// or a code fence.
func extractObject(body string) (gjson.Result, error) {
	if !gjson.Valid(body) {
		start := strings.IndexByte(body, '{')
		end := strings.LastIndexByte(body, '}')
		if start < 0 || end <= start || !gjson.Valid(body[start:end+1]) {
			return gjson.Result{}, errors.New("model response is not valid JSON")
		}
		body = body[start : end+1]
	}
	obj := gjson.Parse(body)
	if !obj.IsObject() {
		return gjson.Result{}, errors.New("model response is not a JSON object")
	}
	return obj, nil
}

func textField(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return PlainText(v.String())
}

// stringList accepts an array of strings or a whitespace-separated string.
func stringList(v gjson.Result) []string {
	var out []string
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			if item.Type != gjson.String {
				continue
			}
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
	case v.Type == gjson.String:
		out = strings.Fields(v.String())
	}
	return out
}
