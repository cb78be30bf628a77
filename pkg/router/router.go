package router

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/scoutgpt/pkg/inference/engine"
	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

// RoutingError signals that the classifier's output could not be resolved
// to exactly one registered agent name.
type RoutingError struct {
	Utterance string
	Output    string
	Matches   []string
}

func (e *RoutingError) Error() string {
	if len(e.Matches) > 1 {
		return fmt.Sprintf("routing: classifier output %q matches multiple agents: %s", e.Output, strings.Join(e.Matches, ", "))
	}
	return fmt.Sprintf("routing: classifier output %q matches no registered agent", e.Output)
}

const defaultPromptTemplate = `You are a router for a football analytics assistant.
Classify the user's message into exactly one of the following categories and answer with the category name only:
{{ range .Agents }}- {{ . }}
{{ end }}
Do not explain your choice.`

// Router selects a sub-agent for an incoming utterance by asking a
// classification model for a label and resolving it against the set of
// registered agent names.
type Router struct {
	eng    engine.Engine
	agents []string
	prompt *template.Template
}

type Option func(*Router) error

// WithPromptTemplate overrides the classification prompt. The template is
// rendered with {{ .Agents }} bound to the registered agent names.
func WithPromptTemplate(tmpl string) Option {
	return func(r *Router) error {
		parsed, err := template.New("router-prompt").Parse(tmpl)
		if err != nil {
			return errors.Wrap(err, "parse router prompt template")
		}
		r.prompt = parsed
		return nil
	}
}

// NewRouter builds a Router over the given classification engine and the
// ordered list of agent names it may route to.
func NewRouter(eng engine.Engine, agents []string, options ...Option) (*Router, error) {
	if eng == nil {
		return nil, errors.New("router requires a classification engine")
	}
	if len(agents) == 0 {
		return nil, errors.New("router requires at least one agent name")
	}
	r := &Router{
		eng:    eng,
		agents: append([]string{}, agents...),
	}
	prompt, err := template.New("router-prompt").Parse(defaultPromptTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "parse default router prompt")
	}
	r.prompt = prompt
	for _, opt := range options {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Agents returns the registered agent names in routing order.
func (r *Router) Agents() []string {
	return append([]string{}, r.agents...)
}

// Route classifies the utterance and returns the name of the single agent
// whose name appears in the classifier output. Matching is by
// case-insensitive substring. Zero matches and more than one match are
// both routing failures.
func (r *Router) Route(ctx context.Context, utterance string) (string, error) {
	var sb strings.Builder
	if err := r.prompt.Execute(&sb, map[string]any{"Agents": r.agents}); err != nil {
		return "", errors.Wrap(err, "render router prompt")
	}

	t := &turns.Turn{}
	turns.AppendBlock(t, turns.NewSystemTextBlock(sb.String()))
	turns.AppendBlock(t, turns.NewUserTextBlock(utterance))

	t, err := r.eng.RunInference(ctx, t)
	if err != nil {
		return "", errors.Wrap(err, "router inference")
	}

	output := ""
	if b, idx := turns.LastBlockOfKind(t, turns.BlockKindLLMText); idx >= 0 {
		output = turns.BlockText(b)
	}

	name, err := r.resolve(utterance, output)
	if err != nil {
		return "", err
	}
	log.Debug().Str("agent", name).Str("output", output).Msg("routed utterance")
	return name, nil
}

func (r *Router) resolve(utterance string, output string) (string, error) {
	lowered := strings.ToLower(output)
	var matches []string
	for _, name := range r.agents {
		if strings.Contains(lowered, strings.ToLower(name)) {
			matches = append(matches, name)
		}
	}
	if len(matches) != 1 {
		return "", &RoutingError{Utterance: utterance, Output: output, Matches: matches}
	}
	return matches[0], nil
}
