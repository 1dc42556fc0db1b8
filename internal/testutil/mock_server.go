//go:build !production

package testutil

import (
	"sync/atomic"

	"github.com/stretchr/testify/mock"
)

// MockServer 实现 types.ServerInterface 的 mock
type MockServer struct {
	mock.Mock
}

func (m *MockServer) IsMaintenanceMode() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockServer) GetOnlineCount() int {
	args := m.Called()
	return args.Int(0)
}

// StubServer 可切换维护模式的服务器桩
type StubServer struct {
	Maintenance atomic.Bool
	Online      atomic.Int32
}

func (s *StubServer) IsMaintenanceMode() bool { return s.Maintenance.Load() }
func (s *StubServer) GetOnlineCount() int     { return int(s.Online.Load()) }
