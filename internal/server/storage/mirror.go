package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	mirrorQueueSize = 256
	mirrorTimeout   = 3 * time.Second
)

type job struct {
	name string
	run  func(ctx context.Context) error
}

// Mirror 在调度器之外把房间快照和对局结果写入 Redis。
// 任务在单个协程中按提交顺序执行；队列满时丢弃任务并记录警告，
// 房间处理永远不会等待 Redis。
//
// nil *Mirror 可以正常使用并丢弃所有任务，未启用 Redis 时就是这样运行的。
type Mirror struct {
	store *RedisStore
	board *LeaderboardManager
	jobs  chan job
}

// NewMirror 创建镜像，调用 Run 开始处理
func NewMirror(store *RedisStore, board *LeaderboardManager) *Mirror {
	return &Mirror{store: store, board: board, jobs: make(chan job, mirrorQueueSize)}
}

// Leaderboard 返回镜像使用的排行榜，未启用时为 nil
func (m *Mirror) Leaderboard() *LeaderboardManager {
	if m == nil {
		return nil
	}
	return m.board
}

// Run 处理任务直到 ctx 结束，然后写完已入队的任务
func (m *Mirror) Run(ctx context.Context) {
	if m == nil {
		return
	}
	for {
		select {
		case j := <-m.jobs:
			m.exec(context.Background(), j)
		case <-ctx.Done():
			m.flush()
			return
		}
	}
}

func (m *Mirror) flush() {
	for {
		select {
		case j := <-m.jobs:
			m.exec(context.Background(), j)
		default:
			return
		}
	}
}

func (m *Mirror) exec(parent context.Context, j job) {
	ctx, cancel := context.WithTimeout(parent, mirrorTimeout)
	defer cancel()
	if err := j.run(ctx); err != nil {
		log.Warn().Err(err).Str("job", j.name).Msg("redis mirror write failed")
	}
}

func (m *Mirror) enqueue(j job) {
	if m == nil {
		return
	}
	select {
	case m.jobs <- j:
	default:
		log.Warn().Str("job", j.name).Msg("redis mirror queue full, dropping write")
	}
}

// SaveRoom 排队写入房间快照
func (m *Mirror) SaveRoom(data *RoomData) {
	if m == nil || m.store == nil {
		return
	}
	m.enqueue(job{name: "save_room", run: func(ctx context.Context) error {
		return m.store.SaveRoom(ctx, data)
	}})
}

// DeleteRoom 排队删除房间快照
func (m *Mirror) DeleteRoom(code string) {
	if m == nil || m.store == nil {
		return
	}
	m.enqueue(job{name: "delete_room", run: func(ctx context.Context) error {
		return m.store.DeleteRoom(ctx, code)
	}})
}

// RecordResults 排队更新已结束对局的排行榜
func (m *Mirror) RecordResults(game string, results []Result) {
	if m == nil || m.board == nil || len(results) == 0 {
		return
	}
	m.enqueue(job{name: "record_results", run: func(ctx context.Context) error {
		return m.board.RecordGameResult(ctx, game, results)
	}})
}

// LoadRoom 读取镜像中的房间快照，不存在或未启用时返回 nil
func (m *Mirror) LoadRoom(ctx context.Context, code string) (*RoomData, error) {
	if m == nil || m.store == nil {
		return nil, nil
	}
	data, err := m.store.LoadRoom(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", code, err)
	}
	return data, nil
}

// Purge 删除上一个进程留下的房间快照。房间只存在于内存，
// 启动前镜像的数据都已过期
func (m *Mirror) Purge(ctx context.Context) error {
	if m == nil || m.store == nil {
		return nil
	}
	codes, err := m.store.GetAllRoomCodes(ctx)
	if err != nil {
		return fmt.Errorf("list mirrored rooms: %w", err)
	}
	for _, code := range codes {
		if err := m.store.DeleteRoom(ctx, code); err != nil {
			return fmt.Errorf("delete mirrored room %s: %w", code, err)
		}
	}
	if len(codes) > 0 {
		log.Info().Int("rooms", len(codes)).Msg("purged stale room snapshots")
	}
	return nil
}
