package room

const (
	roomCodeLength = 4                            // 房间号长度
	roomCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" // 房间号字符集
)

// generateRoomCode 生成当前未被占用的房间号（拒绝采样）
func (r *Registry) generateRoomCode() string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeChars[r.rnd.IntN(len(roomCodeChars))]
		}
		if _, exists := r.rooms[string(code)]; !exists {
			return string(code)
		}
	}
}
