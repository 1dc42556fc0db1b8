// Package games 把所有游戏类型注册到注册表
package games

import (
	"github.com/palemoky/partyhub/internal/game"
	"github.com/palemoky/partyhub/internal/game/cardgame"
	"github.com/palemoky/partyhub/internal/game/hiddenrole"
	"github.com/palemoky/partyhub/internal/game/hiddenword"
	"github.com/palemoky/partyhub/internal/game/quiz"
	"github.com/palemoky/partyhub/internal/game/race"
	"github.com/palemoky/partyhub/internal/game/snakeladder"
	"github.com/palemoky/partyhub/internal/game/tokenrace"
)

// Default 返回包含全部七种游戏及其最少人数的注册表
func Default() *game.Registry {
	r := game.NewRegistry()
	r.Register(game.Info{Type: game.TypeQuiz, MinPlayers: 2, NeedsQuestions: true, New: quiz.New})
	r.Register(game.Info{Type: game.TypeHiddenWord, Title: "Mr. White", MinPlayers: 3, New: hiddenword.New})
	r.Register(game.Info{Type: game.TypeHiddenRole, MinPlayers: 3, New: hiddenrole.New})
	r.Register(game.Info{Type: game.TypeRace, MinPlayers: 2, New: race.New})
	r.Register(game.Info{Type: game.TypeTokenRace, MinPlayers: 2, New: tokenrace.New})
	r.Register(game.Info{Type: game.TypeSnakeLadder, MinPlayers: 2, New: snakeladder.New})
	r.Register(game.Info{Type: game.TypeCardGame, MinPlayers: 2, New: cardgame.New})
	return r
}
