package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis 键
	playerStatsKey   = "player:stats:"
	totalBoardKey    = "leaderboard:total"
	gameBoardPrefix  = "leaderboard:game:"
	dailyBoardPrefix = "leaderboard:daily:"
)

// 积分规则
const (
	PlayPoints = 1  // 参与一局
	WinPoints  = 10 // 获胜额外加分
)

// 排行榜名称
const (
	BoardTotal = "total"
	BoardDaily = "daily"
)

// Result 一名玩家在一局中的结果
type Result struct {
	Name   string
	Winner bool
}

// PlayerStats 玩家统计数据（按玩家名聚合，连接 ID 不跨会话保留）
type PlayerStats struct {
	Name         string `json:"name"`
	GamesPlayed  int    `json:"games_played"`
	Wins         int    `json:"wins"`
	LastPlayedAt int64  `json:"last_played_at"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank    int     `json:"rank"`
	Name    string  `json:"name"`
	Score   int     `json:"score"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
}

// LeaderboardManager 排行榜管理器
type LeaderboardManager struct {
	redis *redis.Client
	now   func() time.Time
}

// NewLeaderboardManager 创建排行榜管理器
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client, now: time.Now}
}

func (lm *LeaderboardManager) boardKey(board string) string {
	switch board {
	case "", BoardTotal:
		return totalBoardKey
	case BoardDaily:
		return dailyBoardPrefix + lm.now().Format("2006-01-02")
	default:
		return gameBoardPrefix + board
	}
}

// RecordGameResult 记录一局结束后的积分：总榜、分游戏榜和日榜在同一事务中更新
func (lm *LeaderboardManager) RecordGameResult(ctx context.Context, game string, results []Result) error {
	if len(results) == 0 {
		return nil
	}

	dailyKey := lm.boardKey(BoardDaily)
	now := lm.now().Unix()

	_, err := lm.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range results {
			points := float64(PlayPoints)
			if r.Winner {
				points += WinPoints
			}
			pipe.ZIncrBy(ctx, totalBoardKey, points, r.Name)
			pipe.ZIncrBy(ctx, gameBoardPrefix+game, points, r.Name)
			pipe.ZIncrBy(ctx, dailyKey, points, r.Name)

			statsKey := playerStatsKey + r.Name
			pipe.HIncrBy(ctx, statsKey, "games_played", 1)
			if r.Winner {
				pipe.HIncrBy(ctx, statsKey, "wins", 1)
			}
			pipe.HSet(ctx, statsKey, "last_played_at", now)
		}
		// 日榜保留两天
		pipe.Expire(ctx, dailyKey, 48*time.Hour)
		return nil
	})
	if err != nil {
		return fmt.Errorf("记录对局结果失败: %w", err)
	}
	return nil
}

// GetPlayerStats 获取玩家统计，未上榜返回 nil
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, name string) (*PlayerStats, error) {
	data, err := lm.redis.HGetAll(ctx, playerStatsKey+name).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	stats := &PlayerStats{Name: name}
	stats.GamesPlayed, _ = strconv.Atoi(data["games_played"])
	stats.Wins, _ = strconv.Atoi(data["wins"])
	stats.LastPlayedAt, _ = strconv.ParseInt(data["last_played_at"], 10, 64)
	return stats, nil
}

// GetLeaderboard 获取排行榜（从高到低）。board 为 total、daily 或游戏类型
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, board string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	results, err := lm.redis.ZRevRangeWithScores(ctx, lm.boardKey(board), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, result := range results {
		name, ok := result.Member.(string)
		if !ok {
			continue
		}
		entry := LeaderboardEntry{Rank: i + 1, Name: name, Score: int(result.Score)}

		stats, err := lm.GetPlayerStats(ctx, name)
		if err == nil && stats != nil {
			entry.Wins = stats.Wins
			if stats.GamesPlayed > 0 {
				entry.WinRate = float64(stats.Wins) / float64(stats.GamesPlayed) * 100
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetPlayerRank 获取玩家在总榜的排名，未上榜返回 -1
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, name string) (int64, error) {
	rank, err := lm.redis.ZRevRank(ctx, totalBoardKey, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil
}
