package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside/community-league/models"
)

var ErrStatMatchInvalid = errors.New("stat references unknown match")

// StatRepository хранит бокс-скоры обычных и турнирных матчей в двух
// одинаковых по форме таблицах. Upsert обеспечивает не более одной
// записи на пару (игрок, матч).
type StatRepository interface {
	UpsertMatchStat(ctx context.Context, stat *models.PlayerMatchStat) error
	ListByMatch(ctx context.Context, q Queryer, matchID int) ([]*models.PlayerMatchStat, error)
	UpsertTournamentMatchStat(ctx context.Context, stat *models.PlayerMatchStat) error
	ListByTournamentMatch(ctx context.Context, q Queryer, matchID int) ([]*models.PlayerMatchStat, error)
}

type postgresStatRepository struct {
	db *sql.DB
}

func NewPostgresStatRepository(db *sql.DB) StatRepository {
	return &postgresStatRepository{db: db}
}

func (r *postgresStatRepository) queryer(q Queryer) Queryer {
	if q != nil {
		return q
	}
	return r.db
}

const statColumns = `id, match_id, player_id, points_scored, rebounds, assists, steals, blocks, turnovers,
	field_goals_made, field_goals_attempted, three_pointers_made, three_pointers_attempted,
	free_throws_made, free_throws_attempted, minutes_played, created_at`

const statUpsertQuery = `
	INSERT INTO %s (match_id, player_id, points_scored, rebounds, assists, steals, blocks, turnovers,
		field_goals_made, field_goals_attempted, three_pointers_made, three_pointers_attempted,
		free_throws_made, free_throws_attempted, minutes_played)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (match_id, player_id) DO UPDATE SET
		points_scored = EXCLUDED.points_scored,
		rebounds = EXCLUDED.rebounds,
		assists = EXCLUDED.assists,
		steals = EXCLUDED.steals,
		blocks = EXCLUDED.blocks,
		turnovers = EXCLUDED.turnovers,
		field_goals_made = EXCLUDED.field_goals_made,
		field_goals_attempted = EXCLUDED.field_goals_attempted,
		three_pointers_made = EXCLUDED.three_pointers_made,
		three_pointers_attempted = EXCLUDED.three_pointers_attempted,
		free_throws_made = EXCLUDED.free_throws_made,
		free_throws_attempted = EXCLUDED.free_throws_attempted,
		minutes_played = EXCLUDED.minutes_played
	RETURNING id, created_at`

func (r *postgresStatRepository) UpsertMatchStat(ctx context.Context, stat *models.PlayerMatchStat) error {
	return r.upsert(ctx, "player_match_stats", stat)
}

func (r *postgresStatRepository) UpsertTournamentMatchStat(ctx context.Context, stat *models.PlayerMatchStat) error {
	return r.upsert(ctx, "tournament_player_match_stats", stat)
}

func (r *postgresStatRepository) upsert(ctx context.Context, table string, stat *models.PlayerMatchStat) error {
	query := fmt.Sprintf(statUpsertQuery, table)
	return r.db.QueryRowContext(ctx, query,
		stat.MatchID,
		stat.PlayerID,
		stat.PointsScored,
		stat.Rebounds,
		stat.Assists,
		stat.Steals,
		stat.Blocks,
		stat.Turnovers,
		stat.FieldGoalsMade,
		stat.FieldGoalsAttempted,
		stat.ThreePointersMade,
		stat.ThreePointersAttempted,
		stat.FreeThrowsMade,
		stat.FreeThrowsAttempted,
		stat.MinutesPlayed,
	).Scan(&stat.ID, &stat.CreatedAt)
}

func (r *postgresStatRepository) ListByMatch(ctx context.Context, q Queryer, matchID int) ([]*models.PlayerMatchStat, error) {
	return r.list(ctx, q, "player_match_stats", matchID)
}

func (r *postgresStatRepository) ListByTournamentMatch(ctx context.Context, q Queryer, matchID int) ([]*models.PlayerMatchStat, error) {
	return r.list(ctx, q, "tournament_player_match_stats", matchID)
}

func (r *postgresStatRepository) list(ctx context.Context, q Queryer, table string, matchID int) ([]*models.PlayerMatchStat, error) {
	query := fmt.Sprintf(`SELECT `+statColumns+` FROM %s WHERE match_id = $1 ORDER BY player_id`, table)

	rows, err := r.queryer(q).QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]*models.PlayerMatchStat, 0)
	for rows.Next() {
		stat := &models.PlayerMatchStat{}
		scanErr := rows.Scan(
			&stat.ID,
			&stat.MatchID,
			&stat.PlayerID,
			&stat.PointsScored,
			&stat.Rebounds,
			&stat.Assists,
			&stat.Steals,
			&stat.Blocks,
			&stat.Turnovers,
			&stat.FieldGoalsMade,
			&stat.FieldGoalsAttempted,
			&stat.ThreePointersMade,
			&stat.ThreePointersAttempted,
			&stat.FreeThrowsMade,
			&stat.FreeThrowsAttempted,
			&stat.MinutesPlayed,
			&stat.CreatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		stats = append(stats, stat)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
