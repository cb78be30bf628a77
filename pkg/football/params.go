package football

// PlayerSeasonParams filters a season-level lookup for one player. Only
// player_name is required; nil fields are not applied as filters.
type PlayerSeasonParams struct {
	PlayerName        string  `json:"player_name" jsonschema:"required"`
	TournamentName    *string `json:"tournament_name"`
	SeasonYear        *int    `json:"season_year"`
	TournamentCountry *string `json:"tournament_country"`
}

// SeasonEndpoint selects which season-level dataset to fetch.
type SeasonEndpoint string

const (
	SeasonEndpointStats   SeasonEndpoint = "stats"
	SeasonEndpointRatings SeasonEndpoint = "ratings"
	SeasonEndpointBoth    SeasonEndpoint = "both"
)

// PlayerSeasonArgs is the argument shape of obtain_season_performance_data.
type PlayerSeasonArgs struct {
	Parameters []PlayerSeasonParams `json:"parameters" jsonschema:"required"`
	Endpoint   SeasonEndpoint       `json:"endpoint" jsonschema:"enum=stats,enum=ratings,enum=both"`
}

// PlayerEventParams filters an event-level lookup for one player.
// EventDate holds either a single YYYY-MM-DD date or a two-element
// [start, end] range.
type PlayerEventParams struct {
	PlayerName       string  `json:"player_name" jsonschema:"required"`
	TournamentName   *string `json:"tournament_name"`
	PlayerTeamName   *string `json:"player_team_name"`
	OpponentTeamName *string `json:"opponent_team_name"`
	EventDate        any     `json:"event_date"`
	LastK            *int    `json:"last_k"`
}

// PlayerEventArgs is the argument shape of obtain_event_performance_data.
type PlayerEventArgs struct {
	Parameters []PlayerEventParams `json:"parameters" jsonschema:"required"`
}

// EventSummaryParams filters a match-summary lookup. All fields optional.
type EventSummaryParams struct {
	EventDate      any     `json:"event_date"`
	HomeTeamName   *string `json:"home_team_name"`
	AwayTeamName   *string `json:"away_team_name"`
	TournamentName *string `json:"tournament_name"`
	LastK          *int    `json:"last_k"`
}

// EventSummaryArgs is the argument shape of obtain_summary_of_event.
type EventSummaryArgs struct {
	Parameters []EventSummaryParams `json:"parameters" jsonschema:"required"`
}

// WebSearchArgs is the argument shape of the open-domain search tool.
type WebSearchArgs struct {
	Query string `json:"query" jsonschema:"required"`
}
