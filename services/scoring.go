package services

import "github.com/courtside/community-league/models"

// ScoreableTeam — команда, которой движок подсчёта может записать
// результат. Обычный матч реализует её встроенной MatchTeam (сохраняется
// вместе с матчем), турнирный — самостоятельной сущностью Team.
type ScoreableTeam interface {
	SetScore(points int)
	SetWinner(winner bool)
}

// partitionPoints раскладывает записи статистики по составам и суммирует
// pointsScored каждой команды. Составы по построению не пересекаются;
// запись игрока, не входящего ни в один состав, не учитывается нигде.
func partitionPoints(stats []*models.PlayerMatchStat, rosterA, rosterB []int) (teamAPoints, teamBPoints int) {
	inA := make(map[int]bool, len(rosterA))
	for _, id := range rosterA {
		inA[id] = true
	}
	inB := make(map[int]bool, len(rosterB))
	for _, id := range rosterB {
		inB[id] = true
	}

	for _, stat := range stats {
		switch {
		case inA[stat.PlayerID]:
			teamAPoints += stat.PointsScored
		case inB[stat.PlayerID]:
			teamBPoints += stat.PointsScored
		}
	}
	return teamAPoints, teamBPoints
}

// applyOutcome записывает командные суммы и определяет победителя.
// Побеждает строго большая сумма; при равенстве оба флага сбрасываются
// в false — исход зафиксирован, победителя нет.
func applyOutcome(teamA, teamB ScoreableTeam, teamAPoints, teamBPoints int) {
	teamA.SetScore(teamAPoints)
	teamB.SetScore(teamBPoints)
	teamA.SetWinner(teamAPoints > teamBPoints)
	teamB.SetWinner(teamBPoints > teamAPoints)
}

func statsByPlayer(stats []*models.PlayerMatchStat) map[int]*models.PlayerMatchStat {
	byPlayer := make(map[int]*models.PlayerMatchStat, len(stats))
	for _, stat := range stats {
		byPlayer[stat.PlayerID] = stat
	}
	return byPlayer
}

// attachStats подставляет каждому игроку состава его бокс-скор и очки —
// презентационная склейка, в БД не сохраняется.
func attachStats(players []models.MatchPlayer, byPlayer map[int]*models.PlayerMatchStat) {
	for i := range players {
		if stat, ok := byPlayer[players[i].UserID]; ok {
			players[i].Stat = stat
			players[i].Score = stat.PointsScored
		}
	}
}
