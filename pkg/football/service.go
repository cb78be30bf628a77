package football

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultStatsAPIBaseURL is the public statistics API the per-season and
// per-event payloads are fetched from.
const DefaultStatsAPIBaseURL = "https://www.sofascore.com/api/v1"

// Service resolves entities through the stats store and fetches the
// statistics payloads behind the three retrieval tools.
type Service struct {
	client  *Client
	baseURL string
	http    *http.Client
}

type ServiceOption func(*Service)

func WithStatsAPIBaseURL(url string) ServiceOption {
	return func(s *Service) {
		s.baseURL = url
	}
}

func WithServiceHTTPClient(httpClient *http.Client) ServiceOption {
	return func(s *Service) {
		s.http = httpClient
	}
}

func NewService(client *Client, options ...ServiceOption) *Service {
	s := &Service{
		client:  client,
		baseURL: DefaultStatsAPIBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// lookupProperty resolves a name to one attribute via a GSI query.
// Zero matches and multiple matches are both LookupErrors.
func (s *Service) lookupProperty(ctx context.Context, table, index, name, col, parameter string) (int, error) {
	items, err := s.client.Query(ctx, QueryRequest{
		TableName:  table,
		GSI:        "true",
		IndexName:  index,
		Operation:  "eq",
		QueryValue: name,
	})
	if err != nil {
		return 0, err
	}
	switch len(items) {
	case 0:
		return 0, &LookupError{Code: ErrCodeNotFound, Parameter: parameter, Value: name}
	case 1:
		v, ok := ItemInt(items[0], col)
		if !ok {
			return 0, errors.Errorf("attribute %s missing on %s record for %s", col, table, name)
		}
		return v, nil
	default:
		return 0, &LookupError{Code: ErrCodeAmbiguous, Parameter: parameter, Value: name}
	}
}

// PlayerID resolves a player name to its id.
func (s *Service) PlayerID(ctx context.Context, playerName string) (int, error) {
	return s.lookupProperty(ctx, "dim_players", "PLAYER_NAME", playerName, "PLAYER_ID", "player_name")
}

// PlayerTeamID resolves a player name to the player's current team id.
func (s *Service) PlayerTeamID(ctx context.Context, playerName string) (int, error) {
	return s.lookupProperty(ctx, "dim_players", "PLAYER_NAME", playerName, "TEAM_ID", "player_name")
}

// TeamID resolves a team name to its id.
func (s *Service) TeamID(ctx context.Context, teamName string) (int, error) {
	return s.lookupProperty(ctx, "dim_teams", "TEAM_NAME", teamName, "TEAM_ID", "team_name")
}

// TournamentID resolves a tournament name to its id.
func (s *Service) TournamentID(ctx context.Context, tournamentName string) (int, error) {
	return s.lookupProperty(ctx, "dim_tournaments", "TOURNAMENT_NAME", tournamentName, "TOURNAMENT_ID", "tournament_name")
}

// BigClubIDs returns ids of teams with at least 80% of the market value
// of the given team. Used to qualify "big game" ratings.
func (s *Service) BigClubIDs(ctx context.Context, teamID int) ([]int, error) {
	items, err := s.client.Query(ctx, QueryRequest{
		TableName:  "dim_teams",
		IndexName:  "TEAM_ID",
		Operation:  "eq",
		QueryValue: teamID,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Errorf("team id %d not found", teamID)
	}
	marketValue, ok := ItemInt(items[0], "TOTAL_MARKET_VALUE")
	if !ok {
		return nil, errors.New("team record has no market value")
	}
	threshold := int(0.8 * float64(marketValue))

	filter := AndFilter(
		AtomicFilter("TOTAL_MARKET_VALUE", "gte", threshold),
		AtomicFilter("TEAM_ID", "ne", teamID),
	)
	scanned, err := s.client.Scan(ctx, ScanRequest{
		TableName: "dim_teams",
		IndexName: "TOTAL_MARKET_VALUE",
		Filter:    &filter,
	})
	if err != nil {
		return nil, err
	}
	var ids []int
	for _, item := range scanned {
		if id, ok := ItemInt(item, "TEAM_ID"); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// seasonRef identifies one (player, tournament, season) combination.
type seasonRef struct {
	PlayerID       int
	TournamentID   int
	TournamentName string
	SeasonYear     int
	UniqueSeasonID int
}

// seasonRefs expands one parameter object into the concrete seasons it
// matches in the dim_unique_seasons table. At least one of
// tournament_name or season_year must be set.
func (s *Service) seasonRefs(ctx context.Context, playerID int, p PlayerSeasonParams) ([]seasonRef, error) {
	if p.TournamentName == nil && p.SeasonYear == nil {
		return nil, errors.New("at least one of tournament_name or season_year must be provided")
	}

	index := "TOURNAMENT_NAME"
	queryValue := ""
	if p.TournamentName != nil {
		queryValue = *p.TournamentName
	}
	if p.TournamentCountry != nil && p.TournamentName != nil {
		index = "TOURNAMENT_FULL_NAME"
		queryValue = *p.TournamentCountry + "-" + *p.TournamentName
	}

	var items []Item
	var err error
	if p.TournamentName != nil {
		items, err = s.client.Query(ctx, QueryRequest{
			TableName:  "dim_unique_seasons",
			GSI:        "true",
			IndexName:  index,
			Operation:  "eq",
			QueryValue: queryValue,
		})
	} else {
		filter := AtomicFilter("SEASON_YEAR", "eq", *p.SeasonYear)
		items, err = s.client.Scan(ctx, ScanRequest{
			TableName: "dim_unique_seasons",
			Filter:    &filter,
		})
	}
	if err != nil {
		return nil, err
	}

	var refs []seasonRef
	for _, item := range items {
		year, _ := ItemInt(item, "SEASON_YEAR")
		if p.SeasonYear != nil && year != *p.SeasonYear {
			continue
		}
		tournamentID, _ := ItemInt(item, "TOURNAMENT_ID")
		uniqueSeasonID, _ := ItemInt(item, "UNIQUE_SEASON_ID")
		refs = append(refs, seasonRef{
			PlayerID:       playerID,
			TournamentID:   tournamentID,
			TournamentName: ItemString(item, "TOURNAMENT_NAME"),
			SeasonYear:     year,
			UniqueSeasonID: uniqueSeasonID,
		})
	}
	return refs, nil
}

func (s *Service) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "fetch statistics")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read statistics response")
	}
	if resp.StatusCode == http.StatusNotFound {
		return errStatsNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("statistics API returned %d", resp.StatusCode)
	}
	return errors.Wrap(json.Unmarshal(data, out), "decode statistics response")
}

// errStatsNotFound means a player has no data for a season; the season is
// skipped rather than reported.
var errStatsNotFound = errors.New("no statistics for season")

func (s *Service) seasonStats(ctx context.Context, playerName string, ref seasonRef) (*PlayerSeasonStats, error) {
	url := fmt.Sprintf("%s/player/%d/unique-tournament/%d/season/%d/statistics/overall",
		s.baseURL, ref.PlayerID, ref.TournamentID, ref.UniqueSeasonID)
	var payload struct {
		Statistics map[string]any `json:"statistics"`
	}
	if err := s.getJSON(ctx, url, &payload); err != nil {
		if errors.Is(err, errStatsNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &PlayerSeasonStats{
		PlayerName:     playerName,
		PlayerID:       ref.PlayerID,
		TournamentName: ref.TournamentName,
		TournamentID:   ref.TournamentID,
		SeasonYear:     ref.SeasonYear,
		UniqueSeasonID: ref.UniqueSeasonID,
		Stats:          payload.Statistics,
	}, nil
}

func (s *Service) seasonRatings(ctx context.Context, playerName string, ref seasonRef, bigClubIDs []int) (*PlayerSeasonRatings, error) {
	url := fmt.Sprintf("%s/player/%d/unique-tournament/%d/season/%d/ratings",
		s.baseURL, ref.PlayerID, ref.TournamentID, ref.UniqueSeasonID)
	var payload struct {
		SeasonRatings []struct {
			Rating *float64 `json:"rating"`
			IsHome bool     `json:"isHome"`
			Event  struct {
				HomeTeam struct {
					ID int `json:"id"`
				} `json:"homeTeam"`
				AwayTeam struct {
					ID int `json:"id"`
				} `json:"awayTeam"`
			} `json:"event"`
		} `json:"seasonRatings"`
	}
	if err := s.getJSON(ctx, url, &payload); err != nil {
		if errors.Is(err, errStatsNotFound) {
			return nil, nil
		}
		return nil, err
	}

	bigClubs := map[int]bool{}
	for _, id := range bigClubIDs {
		bigClubs[id] = true
	}

	var all, big []float64
	for _, r := range payload.SeasonRatings {
		if r.Rating == nil {
			continue
		}
		all = append(all, *r.Rating)
		opponent := r.Event.AwayTeam.ID
		if !r.IsHome {
			opponent = r.Event.HomeTeam.ID
		}
		if bigClubs[opponent] {
			big = append(big, *r.Rating)
		}
	}

	return &PlayerSeasonRatings{
		PlayerName:           playerName,
		PlayerID:             ref.PlayerID,
		TournamentName:       ref.TournamentName,
		TournamentID:         ref.TournamentID,
		SeasonYear:           ref.SeasonYear,
		UniqueSeasonID:       ref.UniqueSeasonID,
		AverageRating:        mean(all),
		AverageBigGameRating: mean(big),
		GameCount:            len(all),
		BigGameCount:         len(big),
		RatingStdDev:         stdDev(all),
	}, nil
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}

func stdDev(values []float64) *float64 {
	m := mean(values)
	if m == nil {
		return nil
	}
	variance := 0.0
	for _, v := range values {
		variance += (v - *m) * (v - *m)
	}
	sd := math.Sqrt(variance / float64(len(values)))
	return &sd
}

// SeasonPerformance fetches season-level stats and/or ratings for every
// parameter object. Entity-resolution failures across all parameter
// objects are collected and returned together as LookupError payloads.
func (s *Service) SeasonPerformance(ctx context.Context, args PlayerSeasonArgs) ([]any, []ErrorPayload, error) {
	endpoint := args.Endpoint
	if endpoint == "" {
		endpoint = SeasonEndpointBoth
	}

	var results []any
	var lookupErrs []ErrorPayload
	playerIDs := map[string]int{}

	for _, p := range args.Parameters {
		playerID, ok := playerIDs[p.PlayerName]
		if !ok {
			var err error
			playerID, err = s.PlayerID(ctx, p.PlayerName)
			if err != nil {
				var lookupErr *LookupError
				if errors.As(err, &lookupErr) {
					lookupErrs = append(lookupErrs, ErrorPayload{Error: *lookupErr})
					continue
				}
				return nil, nil, err
			}
			playerIDs[p.PlayerName] = playerID
		}

		refs, err := s.seasonRefs(ctx, playerID, p)
		if err != nil {
			return nil, nil, err
		}

		var bigClubIDs []int
		if endpoint == SeasonEndpointRatings || endpoint == SeasonEndpointBoth {
			teamID, err := s.PlayerTeamID(ctx, p.PlayerName)
			if err == nil {
				bigClubIDs, err = s.BigClubIDs(ctx, teamID)
				if err != nil {
					log.Warn().Err(err).Str("player", p.PlayerName).Msg("big club lookup failed")
				}
			}
		}

		for _, ref := range refs {
			if endpoint == SeasonEndpointStats || endpoint == SeasonEndpointBoth {
				stats, err := s.seasonStats(ctx, p.PlayerName, ref)
				if err != nil {
					return nil, nil, err
				}
				if stats != nil {
					results = append(results, stats)
				}
			}
			if endpoint == SeasonEndpointRatings || endpoint == SeasonEndpointBoth {
				ratings, err := s.seasonRatings(ctx, p.PlayerName, ref, bigClubIDs)
				if err != nil {
					return nil, nil, err
				}
				if ratings != nil {
					results = append(results, ratings)
				}
			}
		}
	}

	return results, lookupErrs, nil
}
