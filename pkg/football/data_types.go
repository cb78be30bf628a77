package football

// Error codes carried inside tool-level error payloads.
const (
	// ErrCodeNotFound means no record matched the given value.
	ErrCodeNotFound = "404"
	// ErrCodeAmbiguous means several records matched and the caller must
	// disambiguate, e.g. by adding a team name.
	ErrCodeAmbiguous = "405"
)

// LookupError is an expected entity-resolution failure. It is encoded as
// in-band tool content, never raised through the state machine.
type LookupError struct {
	Code      string `json:"message"`
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
}

func (e *LookupError) Error() string {
	switch e.Code {
	case ErrCodeAmbiguous:
		return "multiple records match " + e.Parameter + "=" + e.Value
	default:
		return "no record matches " + e.Parameter + "=" + e.Value
	}
}

// ErrorPayload is the serialized form of one expected tool failure.
type ErrorPayload struct {
	Error LookupError `json:"error"`
}

// PlayerSeasonStats is one player's aggregate statistics for one season
// of one tournament.
type PlayerSeasonStats struct {
	PlayerName     string         `json:"player_name"`
	PlayerID       int            `json:"player_id"`
	TournamentName string         `json:"tournament_name,omitempty"`
	TournamentID   int            `json:"tournament_id,omitempty"`
	SeasonYear     int            `json:"season_year,omitempty"`
	UniqueSeasonID int            `json:"unique_season_id,omitempty"`
	Stats          map[string]any `json:"stats,omitempty"`
}

// PlayerSeasonRatings summarizes a player's per-game ratings for one
// season, with a separate aggregate over games against big clubs.
type PlayerSeasonRatings struct {
	PlayerName           string   `json:"player_name"`
	PlayerID             int      `json:"player_id"`
	TournamentName       string   `json:"tournament_name,omitempty"`
	TournamentID         int      `json:"tournament_id,omitempty"`
	SeasonYear           int      `json:"season_year,omitempty"`
	UniqueSeasonID       int      `json:"unique_season_id,omitempty"`
	AverageRating        *float64 `json:"average_rating"`
	AverageBigGameRating *float64 `json:"average_big_game_rating"`
	GameCount            int      `json:"game_count"`
	BigGameCount         int      `json:"big_game_count"`
	RatingStdDev         *float64 `json:"rating_std_dev"`
	Info                 string   `json:"info,omitempty"`
}

// PlayerEventStats is one player's statistics in one specific match.
type PlayerEventStats struct {
	PlayerID         int            `json:"player_id"`
	PlayerName       string         `json:"player_name"`
	TournamentName   string         `json:"tournament_name,omitempty"`
	EventDate        string         `json:"event_date,omitempty"`
	OpponentTeamName string         `json:"opponent_team_name,omitempty"`
	PlayerTeamName   string         `json:"player_team_name,omitempty"`
	IsHome           *bool          `json:"is_home,omitempty"`
	OpponentScore    *int           `json:"opponent_team_score,omitempty"`
	PlayerTeamScore  *int           `json:"player_team_score,omitempty"`
	MatchResult      string         `json:"match_result,omitempty"`
	Stats            map[string]any `json:"stats,omitempty"`
}

// EventSummary captures one match: squads, incidents and the score line.
type EventSummary struct {
	HomeTeam      string           `json:"home_team"`
	AwayTeam      string           `json:"away_team"`
	EventDate     string           `json:"event_date,omitempty"`
	Tournament    string           `json:"tournament_name,omitempty"`
	HomeTeamSquad []map[string]any `json:"home_team_squad,omitempty"`
	AwayTeamSquad []map[string]any `json:"away_team_squad,omitempty"`
	Incidents     []map[string]any `json:"comments,omitempty"`
	Winner        string           `json:"winner,omitempty"`
	HomeTeamScore *int             `json:"home_team_score,omitempty"`
	AwayTeamScore *int             `json:"away_team_score,omitempty"`
}
