package football

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// eventDateFilter turns an event_date value (single YYYY-MM-DD string or
// two-element [start, end] range) into a scan filter.
func eventDateFilter(eventDate any) (*ScanFilter, error) {
	switch v := eventDate.(type) {
	case nil:
		return nil, nil
	case string:
		f := AtomicFilter("EVENT_DATE", "eq", v)
		return &f, nil
	case []any:
		if len(v) != 2 {
			return nil, errors.Errorf("event_date range must have exactly two values, got %d", len(v))
		}
		f := AtomicFilter("EVENT_DATE", "between", v)
		return &f, nil
	case []string:
		if len(v) != 2 {
			return nil, errors.Errorf("event_date range must have exactly two values, got %d", len(v))
		}
		f := AtomicFilter("EVENT_DATE", "between", v)
		return &f, nil
	default:
		return nil, errors.Errorf("event_date must be a string or a two-element range, got %T", eventDate)
	}
}

// findEvents scans dim_events with the given subfilters, then keeps the
// lastK most recent events when lastK is set.
func (s *Service) findEvents(ctx context.Context, subfilters []ScanFilter, lastK *int) ([]Item, error) {
	filter := AndFilter(subfilters...)
	events, err := s.client.Scan(ctx, ScanRequest{
		TableName: "dim_events",
		Filter:    &filter,
	})
	if err != nil {
		return nil, err
	}

	if lastK != nil && *lastK > 0 && len(events) > *lastK {
		sort.Slice(events, func(i, j int) bool {
			di, _ := time.Parse("2006-01-02", ItemString(events[i], "EVENT_DATE"))
			dj, _ := time.Parse("2006-01-02", ItemString(events[j], "EVENT_DATE"))
			return di.After(dj)
		})
		events = events[:*lastK]
	}
	return events, nil
}

// EventPerformance fetches per-match statistics for every parameter
// object. Entity-resolution failures are collected as payloads; when any
// exist, they are returned instead of partial data.
func (s *Service) EventPerformance(ctx context.Context, args PlayerEventArgs) ([]PlayerEventStats, []ErrorPayload, error) {
	var results []PlayerEventStats
	var lookupErrs []ErrorPayload

	for _, p := range args.Parameters {
		playerID, err := s.PlayerID(ctx, p.PlayerName)
		if err != nil {
			var lookupErr *LookupError
			if errors.As(err, &lookupErr) {
				lookupErrs = append(lookupErrs, ErrorPayload{Error: *lookupErr})
				continue
			}
			return nil, nil, err
		}

		playerTeamID, err := s.resolvePlayerTeamID(ctx, p)
		if err != nil {
			var lookupErr *LookupError
			if errors.As(err, &lookupErr) {
				lookupErrs = append(lookupErrs, ErrorPayload{Error: *lookupErr})
				continue
			}
			return nil, nil, err
		}

		subfilters, err := s.playerEventFilters(ctx, p, playerTeamID)
		if err != nil {
			var lookupErr *LookupError
			if errors.As(err, &lookupErr) {
				lookupErrs = append(lookupErrs, ErrorPayload{Error: *lookupErr})
				continue
			}
			return nil, nil, err
		}

		events, err := s.findEvents(ctx, subfilters, p.LastK)
		if err != nil {
			return nil, nil, err
		}

		for _, event := range events {
			stats, err := s.playerEventStats(ctx, p, playerID, playerTeamID, event)
			if err != nil {
				return nil, nil, err
			}
			if stats != nil {
				results = append(results, *stats)
			}
		}
	}

	return results, lookupErrs, nil
}

func (s *Service) resolvePlayerTeamID(ctx context.Context, p PlayerEventParams) (int, error) {
	if p.PlayerTeamName != nil {
		return s.TeamID(ctx, *p.PlayerTeamName)
	}
	return s.PlayerTeamID(ctx, p.PlayerName)
}

func (s *Service) playerEventFilters(ctx context.Context, p PlayerEventParams, playerTeamID int) ([]ScanFilter, error) {
	var subfilters []ScanFilter

	if p.OpponentTeamName != nil {
		opponentID, err := s.TeamID(ctx, *p.OpponentTeamName)
		if err != nil {
			return nil, err
		}
		subfilters = append(subfilters, OrFilter(
			AndFilter(
				AtomicFilter("HOME_TEAM_ID", "eq", playerTeamID),
				AtomicFilter("AWAY_TEAM_ID", "eq", opponentID),
			),
			AndFilter(
				AtomicFilter("HOME_TEAM_ID", "eq", opponentID),
				AtomicFilter("AWAY_TEAM_ID", "eq", playerTeamID),
			),
		))
	} else {
		subfilters = append(subfilters, OrFilter(
			AtomicFilter("HOME_TEAM_ID", "eq", playerTeamID),
			AtomicFilter("AWAY_TEAM_ID", "eq", playerTeamID),
		))
	}

	dateFilter, err := eventDateFilter(p.EventDate)
	if err != nil {
		return nil, err
	}
	if dateFilter != nil {
		subfilters = append(subfilters, *dateFilter)
	}

	if p.TournamentName != nil {
		tournamentID, err := s.TournamentID(ctx, *p.TournamentName)
		if err != nil {
			return nil, err
		}
		subfilters = append(subfilters, AtomicFilter("TOURNAMENT_ID", "eq", tournamentID))
	}

	return subfilters, nil
}

func (s *Service) playerEventStats(ctx context.Context, p PlayerEventParams, playerID, playerTeamID int, event Item) (*PlayerEventStats, error) {
	eventID, ok := ItemInt(event, "EVENT_ID")
	if !ok {
		return nil, errors.New("event record has no EVENT_ID")
	}

	url := fmt.Sprintf("%s/event/%d/player/%d/statistics", s.baseURL, eventID, playerID)
	var payload struct {
		Statistics map[string]any `json:"statistics"`
	}
	if err := s.getJSON(ctx, url, &payload); err != nil {
		if errors.Is(err, errStatsNotFound) {
			// player did not feature in this event
			return nil, nil
		}
		return nil, err
	}

	homeTeamID, _ := ItemInt(event, "HOME_TEAM_ID")
	isHome := homeTeamID == playerTeamID

	playerTeamName := ItemString(event, "AWAY_TEAM_NAME")
	opponentTeamName := ItemString(event, "HOME_TEAM_NAME")
	if isHome {
		playerTeamName, opponentTeamName = opponentTeamName, playerTeamName
	}

	homeScore, _ := ItemInt(event, "HOME_TEAM_SCORE")
	awayScore, _ := ItemInt(event, "AWAY_TEAM_SCORE")
	playerScore, opponentScore := awayScore, homeScore
	if isHome {
		playerScore, opponentScore = homeScore, awayScore
	}

	result := "Draw"
	if playerScore > opponentScore {
		result = "Won"
	} else if playerScore < opponentScore {
		result = "Lost"
	}

	return &PlayerEventStats{
		PlayerID:         playerID,
		PlayerName:       p.PlayerName,
		TournamentName:   ItemString(event, "TOURNAMENT_NAME"),
		EventDate:        ItemString(event, "EVENT_DATE"),
		OpponentTeamName: opponentTeamName,
		PlayerTeamName:   playerTeamName,
		IsHome:           &isHome,
		OpponentScore:    &opponentScore,
		PlayerTeamScore:  &playerScore,
		MatchResult:      result,
		Stats:            payload.Statistics,
	}, nil
}

// EventSummaries fetches match summaries (score line, squads, incidents)
// for every parameter object.
func (s *Service) EventSummaries(ctx context.Context, args EventSummaryArgs) ([]EventSummary, []ErrorPayload, error) {
	var results []EventSummary
	var lookupErrs []ErrorPayload

	for _, p := range args.Parameters {
		subfilters, err := s.eventSummaryFilters(ctx, p)
		if err != nil {
			var lookupErr *LookupError
			if errors.As(err, &lookupErr) {
				lookupErrs = append(lookupErrs, ErrorPayload{Error: *lookupErr})
				continue
			}
			return nil, nil, err
		}
		if len(subfilters) == 0 {
			log.Info().Msg("event summary requested without any filter criteria")
			continue
		}

		events, err := s.findEvents(ctx, subfilters, p.LastK)
		if err != nil {
			return nil, nil, err
		}

		// with a narrow filter set, include squads and incidents; broad
		// matches only get the score lines
		detailed := len(events) <= 4

		for _, event := range events {
			summary, err := s.eventSummary(ctx, event, detailed)
			if err != nil {
				return nil, nil, err
			}
			results = append(results, *summary)
		}
	}

	return results, lookupErrs, nil
}

func (s *Service) eventSummaryFilters(ctx context.Context, p EventSummaryParams) ([]ScanFilter, error) {
	var subfilters []ScanFilter

	if p.HomeTeamName != nil {
		id, err := s.TeamID(ctx, *p.HomeTeamName)
		if err != nil {
			return nil, err
		}
		subfilters = append(subfilters, AtomicFilter("HOME_TEAM_ID", "eq", id))
	}
	if p.AwayTeamName != nil {
		id, err := s.TeamID(ctx, *p.AwayTeamName)
		if err != nil {
			return nil, err
		}
		subfilters = append(subfilters, AtomicFilter("AWAY_TEAM_ID", "eq", id))
	}
	if p.TournamentName != nil {
		id, err := s.TournamentID(ctx, *p.TournamentName)
		if err != nil {
			return nil, err
		}
		subfilters = append(subfilters, AtomicFilter("TOURNAMENT_ID", "eq", id))
	}

	dateFilter, err := eventDateFilter(p.EventDate)
	if err != nil {
		return nil, err
	}
	if dateFilter != nil {
		subfilters = append(subfilters, *dateFilter)
	}

	return subfilters, nil
}

func (s *Service) eventSummary(ctx context.Context, event Item, detailed bool) (*EventSummary, error) {
	homeScore, _ := ItemInt(event, "HOME_TEAM_SCORE")
	awayScore, _ := ItemInt(event, "AWAY_TEAM_SCORE")

	summary := &EventSummary{
		HomeTeam:      ItemString(event, "HOME_TEAM_NAME"),
		AwayTeam:      ItemString(event, "AWAY_TEAM_NAME"),
		EventDate:     ItemString(event, "EVENT_DATE"),
		Tournament:    ItemString(event, "TOURNAMENT_NAME"),
		HomeTeamScore: &homeScore,
		AwayTeamScore: &awayScore,
	}
	switch {
	case homeScore > awayScore:
		summary.Winner = summary.HomeTeam
	case awayScore > homeScore:
		summary.Winner = summary.AwayTeam
	default:
		summary.Winner = "Draw"
	}

	if !detailed {
		return summary, nil
	}

	eventID, ok := ItemInt(event, "EVENT_ID")
	if !ok {
		return summary, nil
	}

	var lineups struct {
		Home struct {
			Players []map[string]any `json:"players"`
		} `json:"home"`
		Away struct {
			Players []map[string]any `json:"players"`
		} `json:"away"`
	}
	if err := s.getJSON(ctx, fmt.Sprintf("%s/event/%d/lineups", s.baseURL, eventID), &lineups); err != nil {
		if !errors.Is(err, errStatsNotFound) {
			return nil, err
		}
	} else {
		summary.HomeTeamSquad = lineups.Home.Players
		summary.AwayTeamSquad = lineups.Away.Players
	}

	var incidents struct {
		Incidents []map[string]any `json:"incidents"`
	}
	if err := s.getJSON(ctx, fmt.Sprintf("%s/event/%d/incidents", s.baseURL, eventID), &incidents); err != nil {
		if !errors.Is(err, errStatsNotFound) {
			return nil, err
		}
	} else {
		summary.Incidents = incidents.Incidents
	}

	return summary, nil
}
