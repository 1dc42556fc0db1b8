package game

// Action 解码后的对局内操作
type Action interface {
	isAction()
}

type (
	// SubmitAnswer 回答当前题目
	SubmitAnswer struct{ Index int }
	// DoneSpeaking 结束自己的发言
	DoneSpeaking struct{}
	// ChangePhase 房主切换阶段
	ChangePhase struct{ Phase string }
	// Vote 投票，可覆盖之前的投票
	Vote struct{ TargetID string }
	// Kill 卧底在夜晚的行动
	Kill struct{ TargetID string }
	// UpdatePosition 客户端上报的赛车位置
	UpdatePosition struct {
		Progress float64
		Angle    float64
		Laps     int
		X, Y     float64
	}
	// CrossLine 冲过终点线
	CrossLine struct{}
	// Roll 掷骰子
	Roll struct{}
	// Move 按已掷出的点数移动一枚棋子
	Move struct{ Token int }
	// PlayCard 从手牌中出一张牌
	PlayCard struct {
		Index int
		Color string
	}
	// DrawCard 摸一张牌并结束回合
	DrawCard struct{}
	// CallUno 宣告只剩一张牌
	CallUno struct{}
)

func (SubmitAnswer) isAction()   {}
func (DoneSpeaking) isAction()   {}
func (ChangePhase) isAction()    {}
func (Vote) isAction()           {}
func (Kill) isAction()           {}
func (UpdatePosition) isAction() {}
func (CrossLine) isAction()      {}
func (Roll) isAction()           {}
func (Move) isAction()           {}
func (PlayCard) isAction()       {}
func (DrawCard) isAction()       {}
func (CallUno) isAction()        {}
