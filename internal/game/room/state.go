package room

// State 房间生命周期状态
type State string

const (
	StateLobby    State = "lobby"    // 大厅：可加入、换游戏
	StatePlaying  State = "playing"  // 游戏中
	StateFinished State = "finished" // 已结束，保留最终局面直到房主返回大厅
)
