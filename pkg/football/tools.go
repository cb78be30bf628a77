package football

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/go-go-golems/scoutgpt/pkg/inference/tools"
)

// Tool names on the wire.
const (
	ToolSeasonPerformance = "obtain_season_performance_data"
	ToolEventPerformance  = "obtain_event_performance_data"
	ToolEventSummary      = "obtain_summary_of_event"
	ToolWebSearch         = "web_search"
)

const seasonPerformanceDescription = `Fetch season level data for players.
This tool should be used when asked about a player's performance in a full season or a tournament.
endpoint argument defaults to 'both' unless asked for stats or ratings specifically.
If the user's question does not mention one of the following fields - 'tournament_name', 'season_year', or 'tournament_country' - their values default to null.
'player_name' is always required.`

const eventPerformanceDescription = `Fetch event level data for players. This tool should be used when asked about a player's performance in a specific football match / set of matches`

const eventSummaryDescription = `Fetches the summary of a football match.
This tool should be used when human message asks about a football match in general without asking about any specific players.
The data it returns contains list of important incidents (goals, cards, penalties) about the match, and the squads of both sides.`

const webSearchDescription = `Search the web for information that is not available in the football statistics database.`

// marshalWithErrors renders tool output content. Expected lookup failures
// take precedence and come back marker-prefixed so the state machine does
// not advance to answer generation.
func marshalWithErrors(results any, lookupErrs []ErrorPayload) (string, error) {
	if len(lookupErrs) > 0 {
		b, err := json.Marshal(lookupErrs)
		if err != nil {
			return "", errors.Wrap(err, "marshal lookup errors")
		}
		return tools.ErrorResultf("%s", string(b)), nil
	}
	b, err := json.Marshal(results)
	if err != nil {
		return "", errors.Wrap(err, "marshal tool results")
	}
	return string(b), nil
}

// SeasonPerformanceTool wraps Service.SeasonPerformance as a tool.
func SeasonPerformanceTool(svc *Service) (*tools.ToolDefinition, error) {
	return tools.NewToolFromFunc(
		ToolSeasonPerformance,
		seasonPerformanceDescription,
		func(ctx context.Context, args PlayerSeasonArgs) (string, error) {
			results, lookupErrs, err := svc.SeasonPerformance(ctx, args)
			if err != nil {
				return "", err
			}
			return marshalWithErrors(results, lookupErrs)
		},
	)
}

// EventPerformanceTool wraps Service.EventPerformance as a tool.
func EventPerformanceTool(svc *Service) (*tools.ToolDefinition, error) {
	return tools.NewToolFromFunc(
		ToolEventPerformance,
		eventPerformanceDescription,
		func(ctx context.Context, args PlayerEventArgs) (string, error) {
			results, lookupErrs, err := svc.EventPerformance(ctx, args)
			if err != nil {
				return "", err
			}
			return marshalWithErrors(results, lookupErrs)
		},
	)
}

// EventSummaryTool wraps Service.EventSummaries as a tool.
func EventSummaryTool(svc *Service) (*tools.ToolDefinition, error) {
	return tools.NewToolFromFunc(
		ToolEventSummary,
		eventSummaryDescription,
		func(ctx context.Context, args EventSummaryArgs) (string, error) {
			results, lookupErrs, err := svc.EventSummaries(ctx, args)
			if err != nil {
				return "", err
			}
			return marshalWithErrors(results, lookupErrs)
		},
	)
}

// WebSearchTool wraps a WebSearcher as a tool.
func WebSearchTool(searcher WebSearcher) (*tools.ToolDefinition, error) {
	return tools.NewToolFromFunc(
		ToolWebSearch,
		webSearchDescription,
		func(ctx context.Context, args WebSearchArgs) (string, error) {
			results, err := searcher.Search(ctx, args.Query)
			if err != nil {
				return "", err
			}
			return FormatSearchResults(results), nil
		},
	)
}

// NewPlayerToolRegistry registers the tools of the player analysis agent.
func NewPlayerToolRegistry(svc *Service) (tools.ToolRegistry, error) {
	registry := tools.NewInMemoryToolRegistry()
	season, err := SeasonPerformanceTool(svc)
	if err != nil {
		return nil, err
	}
	event, err := EventPerformanceTool(svc)
	if err != nil {
		return nil, err
	}
	if err := registry.RegisterTool(season.Name, *season); err != nil {
		return nil, err
	}
	if err := registry.RegisterTool(event.Name, *event); err != nil {
		return nil, err
	}
	return registry, nil
}

// NewGameToolRegistry registers the tools of the game analysis agent.
func NewGameToolRegistry(svc *Service) (tools.ToolRegistry, error) {
	registry := tools.NewInMemoryToolRegistry()
	summary, err := EventSummaryTool(svc)
	if err != nil {
		return nil, err
	}
	if err := registry.RegisterTool(summary.Name, *summary); err != nil {
		return nil, err
	}
	return registry, nil
}

// NewSearchToolRegistry registers the tools of the open-domain agent.
func NewSearchToolRegistry(searcher WebSearcher) (tools.ToolRegistry, error) {
	registry := tools.NewInMemoryToolRegistry()
	search, err := WebSearchTool(searcher)
	if err != nil {
		return nil, err
	}
	if err := registry.RegisterTool(search.Name, *search); err != nil {
		return nil, err
	}
	return registry, nil
}
