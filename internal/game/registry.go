package game

import (
	"fmt"
	"slices"

	"github.com/palemoky/partyhub/internal/apperrors"
)

// Factory 为给定玩家列表创建新引擎
type Factory func(players []Player, env Env) (Engine, error)

// Info 已注册的游戏类型
type Info struct {
	Type       Type
	Title      string
	MinPlayers int
	// NeedsQuestions 开局需要等待题库
	NeedsQuestions bool
	New            Factory
}

// Registry 游戏类型到工厂函数的映射
type Registry struct {
	infos map[Type]Info
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{infos: make(map[Type]Info)}
}

// Register 注册游戏类型，重复注册会 panic
func (r *Registry) Register(info Info) {
	if _, dup := r.infos[info.Type]; dup {
		panic(fmt.Sprintf("game: duplicate registration of %q", info.Type))
	}
	if info.Title == "" {
		info.Title = string(info.Type)
	}
	r.infos[info.Type] = info
}

// Lookup 查找已注册的游戏类型
func (r *Registry) Lookup(t Type) (Info, bool) {
	info, ok := r.infos[t]
	return info, ok
}

// Types 按固定顺序列出已注册的游戏类型
func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.infos))
	for t := range r.infos {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Start 校验人数并创建引擎
func (r *Registry) Start(t Type, players []Player, env Env) (Engine, error) {
	info, ok := r.infos[t]
	if !ok {
		return nil, apperrors.ErrUnknownGame
	}
	if len(players) < info.MinPlayers {
		return nil, apperrors.NotEnoughPlayers(info.MinPlayers, info.Title)
	}
	return info.New(players, env)
}
