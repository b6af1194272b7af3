// Package rules decides how newly observed windows are managed. Rules are
// compiled once at config load and evaluated in order; the first match
// wins. A window matching no rule is tiled.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/scrollwm/scrollwm/pkg/models"
)

// Action is what happens to a window matching a rule.
type Action string

const (
	ActionTile   Action = "tile"
	ActionFloat  Action = "float"
	ActionIgnore Action = "ignore"
)

// Spec is one uncompiled rule as it appears in the config file. Unset
// match fields are wildcards; at least the action must be present.
type Spec struct {
	MatchClass      string `mapstructure:"match_class" toml:"match_class,omitempty"`
	MatchTitle      string `mapstructure:"match_title" toml:"match_title,omitempty"`
	MatchExecutable string `mapstructure:"match_executable" toml:"match_executable,omitempty"`
	Action          string `mapstructure:"action" toml:"action"`
	Width           int    `mapstructure:"width" toml:"width,omitempty"`
	Height          int    `mapstructure:"height" toml:"height,omitempty"`
}

// Decision is the outcome of evaluating a window against the rule list.
// Width/Height are zero unless the matched rule provided dimensions.
type Decision struct {
	Action Action
	Width  int
	Height int
}

// rule is one compiled entry.
type rule struct {
	class      *regexp.Regexp
	title      *regexp.Regexp
	executable string
	decision   Decision
}

// Engine holds the compiled, ordered rule list.
type Engine struct {
	rules []rule
}

// Compile validates and compiles the ordered rule list. Any invalid regex
// or unknown action fails compilation; callers reject the whole config in
// that case.
func Compile(specs []Spec) (*Engine, error) {
	e := &Engine{rules: make([]rule, 0, len(specs))}
	for i, spec := range specs {
		r := rule{executable: strings.ToLower(spec.MatchExecutable)}

		switch Action(strings.ToLower(spec.Action)) {
		case ActionTile:
			r.decision.Action = ActionTile
		case ActionFloat:
			r.decision.Action = ActionFloat
		case ActionIgnore:
			r.decision.Action = ActionIgnore
		default:
			return nil, fmt.Errorf("window rule %d: unknown action %q", i, spec.Action)
		}
		r.decision.Width = spec.Width
		r.decision.Height = spec.Height

		if spec.MatchClass != "" {
			re, err := regexp.Compile(spec.MatchClass)
			if err != nil {
				return nil, fmt.Errorf("window rule %d: match_class: %w", i, err)
			}
			r.class = re
		}
		if spec.MatchTitle != "" {
			re, err := regexp.Compile(spec.MatchTitle)
			if err != nil {
				return nil, fmt.Errorf("window rule %d: match_title: %w", i, err)
			}
			r.title = re
		}
		e.rules = append(e.rules, r)
	}
	return e, nil
}

// Evaluate returns the decision for a window; the first matching rule
// wins and windows matching nothing are tiled.
func (e *Engine) Evaluate(meta models.WindowMetadata) Decision {
	for _, r := range e.rules {
		if r.matches(meta) {
			return r.decision
		}
	}
	return Decision{Action: ActionTile}
}

// Len returns the number of compiled rules.
func (e *Engine) Len() int { return len(e.rules) }

func (r *rule) matches(meta models.WindowMetadata) bool {
	if r.class != nil && !r.class.MatchString(meta.ClassName) {
		return false
	}
	if r.title != nil && !r.title.MatchString(meta.Title) {
		return false
	}
	if r.executable != "" && r.executable != strings.ToLower(meta.Executable) {
		return false
	}
	return true
}
