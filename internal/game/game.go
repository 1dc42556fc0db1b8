// Package game 定义所有派对游戏引擎的统一接口，以及房间在开局时选择引擎所用的注册表。
package game

import (
	"math/rand/v2"
	"time"

	"github.com/palemoky/partyhub/internal/trivia"
)

// Type 游戏类型，即线上协议中的游戏标识
type Type string

const (
	TypeQuiz        Type = "quiz"
	TypeHiddenWord  Type = "mrwhite"
	TypeHiddenRole  Type = "imposter"
	TypeRace        Type = "gokart"
	TypeTokenRace   Type = "ludo"
	TypeSnakeLadder Type = "snakeladders"
	TypeCardGame    Type = "uno"
)

// Player 引擎所需的玩家信息
type Player struct {
	ID   string
	Name string
}

// Engine 一局游戏的权威状态
//
// 引擎不是并发安全的，所有调用都由调度器串行执行。
type Engine interface {
	// Apply 校验并执行 playerID 发来的一个操作。返回错误时操作被拒绝，状态不变
	Apply(playerID string, action Action) (Outcome, error)
	// View 返回 viewerID 视角下的状态，隐藏秘密信息
	View(viewerID string) any
	// RemovePlayer 移除离开的玩家，并保证回合状态有效
	RemovePlayer(playerID string) Outcome
}

// Scorer 由需要把分数同步到房间玩家列表的引擎实现
type Scorer interface {
	Scores() map[string]int
}

// RoleTeller 由私发身份的引擎实现
type RoleTeller interface {
	Secret(playerID string) (Secret, bool)
}

// Secret 玩家的私密身份，以及（如果有的话）词语
type Secret struct {
	Role string `json:"role"`
	Word string `json:"word,omitempty"`
}

// Outcome 一次被接受的操作在状态变化之外的附带效果
type Outcome struct {
	// Finished 仅在结束对局的那次操作上设置
	Finished bool
	// Winners 对局结束时的获胜玩家 ID
	Winners []string
	// Notices 在房间快照之后额外广播的消息
	Notices []Notice
	// Quiet 跳过房间快照，只靠 Notices 传递变化
	Quiet bool
}

// Notice 随房间快照一起广播的引擎事件
type Notice struct {
	Type    string
	Payload any
}

// Env 构建引擎所需的依赖
type Env struct {
	Rand      *rand.Rand
	Now       func() time.Time
	Questions []trivia.Question
	Laps      int
}

// Clock 返回 Now，未设置时返回 time.Now
func (e Env) Clock() func() time.Time {
	if e.Now != nil {
		return e.Now
	}
	return time.Now
}

// Finish 构造结束对局的 Outcome
func Finish(winners ...string) Outcome {
	return Outcome{Finished: true, Winners: winners}
}
