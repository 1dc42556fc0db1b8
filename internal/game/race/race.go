// Package race 卡丁车比赛。客户端自行模拟运动并持续上报，
// 引擎只记录每辆车最后上报的位置和完赛顺序。
package race

import (
	"math"
	"slices"
	"time"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
)

// DefaultLaps 未配置圈数时使用
const DefaultLaps = 3

// 比赛广播的通知类型
const (
	NoticePositions = "kart_positions"
	NoticeFinished  = "race_finished"
)

// 发车位：起跑线后两两并排，车头朝向赛道
const (
	gridX       = 180.0
	gridY       = 80.0
	gridOffsetX = 15.0
	gridRowGap  = 25.0
)

// Kart 玩家最后上报的运动状态
type Kart struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Progress   float64  `json:"progress"`
	Angle      float64  `json:"angle"`
	Laps       int      `json:"laps"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	FinishTime *float64 `json:"finishTime,omitempty"`
}

// Standing 最终成绩中的一行
type Standing struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Time float64 `json:"time"`
}

// Engine 比赛记录
type Engine struct {
	now         func() time.Time
	totalLaps   int
	players     []string
	karts       map[string]*Kart
	finishOrder []string
	startTime   time.Time
	finished    bool
}

// View 发送给客户端的比赛状态
type View struct {
	TotalLaps   int              `json:"totalLaps"`
	Positions   map[string]*Kart `json:"positions"`
	FinishOrder []string         `json:"finishOrder"`
	StartTime   int64            `json:"startTime"`
}

// New 把所有玩家放到发车位
func New(players []game.Player, env game.Env) (game.Engine, error) {
	laps := env.Laps
	if laps <= 0 {
		laps = DefaultLaps
	}
	now := env.Clock()

	e := &Engine{
		now:       now,
		totalLaps: laps,
		players:   game.IDs(players),
		karts:     make(map[string]*Kart, len(players)),
		startTime: now(),
	}
	for i, p := range players {
		x := gridX - gridOffsetX
		if i%2 == 1 {
			x = gridX + gridOffsetX
		}
		e.karts[p.ID] = &Kart{
			ID:    p.ID,
			Name:  p.Name,
			Angle: -math.Pi / 2,
			X:     x,
			Y:     gridY + float64(i/2)*gridRowGap,
		}
	}
	return e, nil
}

func (e *Engine) Apply(playerID string, action game.Action) (game.Outcome, error) {
	if e.finished {
		return game.Outcome{}, apperrors.ErrGameNotPlaying
	}
	kart, ok := e.karts[playerID]
	if !ok || !slices.Contains(e.players, playerID) {
		return game.Outcome{}, apperrors.ErrNotInRoom
	}

	switch a := action.(type) {
	case game.UpdatePosition:
		kart.Progress, kart.Angle, kart.Laps, kart.X, kart.Y = a.Progress, a.Angle, a.Laps, a.X, a.Y
		return game.Outcome{Notices: []game.Notice{e.positionsNotice()}, Quiet: true}, nil
	case game.CrossLine:
		return e.finish(kart)
	default:
		return game.Outcome{}, apperrors.ErrInvalidAction
	}
}

// finish 每位玩家只记录一次完赛时间，重复上报被拒绝
func (e *Engine) finish(kart *Kart) (game.Outcome, error) {
	if kart.FinishTime != nil {
		return game.Outcome{}, apperrors.Invalid("%s already finished", kart.ID)
	}
	elapsed := math.Round(e.now().Sub(e.startTime).Seconds()*10) / 10
	kart.FinishTime = &elapsed
	e.finishOrder = append(e.finishOrder, kart.ID)

	if out, done := e.checkDone(); done {
		return out, nil
	}
	return game.Outcome{Notices: []game.Notice{e.positionsNotice()}, Quiet: true}, nil
}

// checkDone 剩余玩家全部完赛时结束比赛
func (e *Engine) checkDone() (game.Outcome, bool) {
	if len(e.players) == 0 {
		return game.Outcome{}, false
	}
	for _, id := range e.players {
		if e.karts[id].FinishTime == nil {
			return game.Outcome{}, false
		}
	}

	e.finished = true
	out := game.Finish(e.finishOrder[0])
	out.Notices = []game.Notice{{Type: NoticeFinished, Payload: e.Standings()}}
	return out, true
}

// Standings 按完赛顺序列出成绩
func (e *Engine) Standings() []Standing {
	standings := make([]Standing, 0, len(e.finishOrder))
	for _, id := range e.finishOrder {
		k := e.karts[id]
		standings = append(standings, Standing{ID: id, Name: k.Name, Time: *k.FinishTime})
	}
	return standings
}

func (e *Engine) positionsNotice() game.Notice {
	karts := make([]Kart, 0, len(e.players))
	for _, id := range e.players {
		karts = append(karts, *e.karts[id])
	}
	return game.Notice{Type: NoticePositions, Payload: karts}
}

// RemovePlayer 移除未完赛的赛车；已完赛的玩家保留名次
func (e *Engine) RemovePlayer(playerID string) game.Outcome {
	if !slices.Contains(e.players, playerID) {
		return game.Outcome{}
	}
	e.players = game.Without(e.players, playerID)
	if !slices.Contains(e.finishOrder, playerID) {
		delete(e.karts, playerID)
	}
	if e.finished {
		return game.Outcome{}
	}
	out, _ := e.checkDone()
	return out
}

func (e *Engine) View(string) any {
	positions := make(map[string]*Kart, len(e.players))
	for _, id := range e.players {
		k := *e.karts[id]
		positions[id] = &k
	}
	return View{
		TotalLaps:   e.totalLaps,
		Positions:   positions,
		FinishOrder: slices.Clone(e.finishOrder),
		StartTime:   e.startTime.UnixMilli(),
	}
}
