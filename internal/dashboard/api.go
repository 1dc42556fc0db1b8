package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/palemoky/partyhub/internal/server"
)

// API 读取服务器的 HTTP 接口
type API struct {
	BaseURL string
	Client  *http.Client
}

// NewAPI 创建访问 baseURL 的客户端，例如 http://localhost:1780
func NewAPI(baseURL string, timeout time.Duration) *API {
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Rooms 获取当前房间列表
func (a *API) Rooms(ctx context.Context) (*server.RoomsResponse, error) {
	var resp server.RoomsResponse
	if err := a.get(ctx, "/api/rooms", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Leaderboard 获取排行榜前 limit 名
func (a *API) Leaderboard(ctx context.Context, board string, limit int) (*server.LeaderboardResponse, error) {
	path := "/api/leaderboard/" + url.PathEscape(board) + "?limit=" + strconv.Itoa(limit)
	var resp server.LeaderboardResponse
	if err := a.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *API) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+path, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
