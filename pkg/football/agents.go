package football

import (
	"github.com/go-go-golems/scoutgpt/pkg/agents"
	"github.com/go-go-golems/scoutgpt/pkg/inference/engine"
	"github.com/go-go-golems/scoutgpt/pkg/inference/openai"
	"github.com/go-go-golems/scoutgpt/pkg/inference/tools"
	"github.com/go-go-golems/scoutgpt/pkg/orchestrator"
	"github.com/go-go-golems/scoutgpt/pkg/router"
)

// playerEditSchema constrains parameter edits for the player agent:
// one parameter object with a mandatory player name.
const playerEditSchema = `{
	"type": "object",
	"properties": {
		"player_name": {"type": "string"},
		"tournament_name": {"type": ["string", "null"]},
		"tournament_country": {"type": ["string", "null"]},
		"season_year": {"type": ["integer", "null"]},
		"player_team_name": {"type": ["string", "null"]},
		"opponent_team_name": {"type": ["string", "null"]},
		"event_date": {"type": ["string", "array", "null"]},
		"last_k": {"type": ["integer", "null"]}
	},
	"required": ["player_name"]
}`

// gameEditSchema constrains parameter edits for the game agent: every
// filter is optional.
const gameEditSchema = `{
	"type": "object",
	"properties": {
		"home_team_name": {"type": ["string", "null"]},
		"away_team_name": {"type": ["string", "null"]},
		"tournament_name": {"type": ["string", "null"]},
		"event_date": {"type": ["string", "array", "null"]},
		"last_k": {"type": ["integer", "null"]}
	}
}`

// Config holds what BuildOrchestrator needs to assemble the system.
type Config struct {
	APIKey  string
	BaseURL string
	// QueryURL and ScanURL override the stats store endpoints.
	QueryURL string
	ScanURL  string
	// StatsAPIBaseURL overrides the statistics API endpoint.
	StatsAPIBaseURL string
	// TrimThreshold overrides the history trimming budget when positive.
	TrimThreshold int
}

func (c *Config) engineSettings(model string, temperature float32) *engine.Settings {
	return &engine.Settings{
		Model:       model,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Temperature: &temperature,
	}
}

func (c *Config) newService() *Service {
	var clientOpts []ClientOption
	if c.QueryURL != "" {
		clientOpts = append(clientOpts, WithQueryURL(c.QueryURL))
	}
	if c.ScanURL != "" {
		clientOpts = append(clientOpts, WithScanURL(c.ScanURL))
	}
	var svcOpts []ServiceOption
	if c.StatsAPIBaseURL != "" {
		svcOpts = append(svcOpts, WithStatsAPIBaseURL(c.StatsAPIBaseURL))
	}
	return NewService(NewClient(clientOpts...), svcOpts...)
}

func (c *Config) newSubAgent(
	name string,
	prompts *Prompts,
	decidePrompt string,
	registry tools.ToolRegistry,
	editSchema string,
	interrupt bool,
) (*agents.SubAgent, error) {
	decideEngine, err := openai.NewOpenAIEngine(
		c.engineSettings(ToolCallerModel, ToolCallerTemperature),
		openai.WithToolRegistry(registry),
	)
	if err != nil {
		return nil, err
	}
	respondEngine, err := openai.NewOpenAIEngine(
		c.engineSettings(AnswerGeneratorModel, AnswerGeneratorTemperature),
	)
	if err != nil {
		return nil, err
	}

	opts := []agents.SubAgentOption{
		agents.WithRespondEngine(respondEngine),
		agents.WithToolRegistry(registry, tools.NewDefaultToolExecutor(tools.DefaultToolConfig())),
	}
	if editSchema != "" {
		opts = append(opts, agents.WithEditSchema(editSchema))
	}
	if interrupt {
		opts = append(opts, agents.WithInterruption())
	}
	if c.TrimThreshold > 0 {
		opts = append(opts, agents.WithTrimThreshold(c.TrimThreshold))
	}

	return agents.NewSubAgent(name, decideEngine, decidePrompt, prompts.AnswerGenerator, opts...)
}

// BuildOrchestrator wires the router, the three sub-agents and their
// tools into a ready orchestrator. The player and game agents interrupt
// for confirmation; the open-domain agent runs straight through.
func BuildOrchestrator(cfg Config) (*orchestrator.Orchestrator, error) {
	prompts, err := RenderPrompts()
	if err != nil {
		return nil, err
	}

	svc := cfg.newService()

	playerRegistry, err := NewPlayerToolRegistry(svc)
	if err != nil {
		return nil, err
	}
	gameRegistry, err := NewGameToolRegistry(svc)
	if err != nil {
		return nil, err
	}
	searchRegistry, err := NewSearchToolRegistry(NewDuckDuckGoSearcher())
	if err != nil {
		return nil, err
	}

	playerAgent, err := cfg.newSubAgent(AgentAnalyzePlayer, prompts, prompts.AnalyzePlayerDecide, playerRegistry, playerEditSchema, true)
	if err != nil {
		return nil, err
	}
	gameAgent, err := cfg.newSubAgent(AgentAnalyzeGame, prompts, prompts.AnalyzeGameDecide, gameRegistry, gameEditSchema, true)
	if err != nil {
		return nil, err
	}
	normalAgent, err := cfg.newSubAgent(AgentNormal, prompts, prompts.WebSearchDecide, searchRegistry, "", false)
	if err != nil {
		return nil, err
	}

	routerEngine, err := openai.NewOpenAIEngine(cfg.engineSettings(RouterModel, 0))
	if err != nil {
		return nil, err
	}
	r, err := router.NewRouter(
		routerEngine,
		[]string{AgentAnalyzePlayer, AgentAnalyzeGame, AgentNormal},
		router.WithPromptTemplate(prompts.Router),
	)
	if err != nil {
		return nil, err
	}

	return orchestrator.New(
		r,
		[]*agents.SubAgent{playerAgent, gameAgent, normalAgent},
		agents.NewInMemorySessionStore(),
	)
}
