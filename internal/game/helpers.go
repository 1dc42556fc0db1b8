package game

import "slices"

// IDs 按顺序返回玩家 ID
func IDs(players []Player) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

// Without 返回去掉 id 后的列表，保持顺序
func Without(ids []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(s string) bool { return s == id })
}

// Mod 结果永不为负的取模
func Mod(i, n int) int {
	return ((i % n) + n) % n
}

// RemoveFromTurnOrder 从回合顺序中移除 id，返回新顺序和新的回合下标：
// 下标仍指向原来的玩家；如果轮到的正是 id，则指向接替的玩家
func RemoveFromTurnOrder(order []string, turn int, id string, direction int) ([]string, int, bool) {
	idx := slices.Index(order, id)
	if idx < 0 {
		return order, turn, false
	}
	order = slices.Delete(slices.Clone(order), idx, idx+1)
	if len(order) == 0 {
		return order, 0, true
	}

	switch {
	case idx < turn:
		turn--
	case idx == turn && direction < 0:
		turn = idx - 1
	}
	return order, Mod(turn, len(order)), true
}

// Tally 计票，返回得票最多的所有 ID（已排序）
func Tally(votes map[string]string) []string {
	counts := make(map[string]int, len(votes))
	top := 0
	for _, target := range votes {
		counts[target]++
		top = max(top, counts[target])
	}

	var leaders []string
	for target, n := range counts {
		if n == top {
			leaders = append(leaders, target)
		}
	}
	slices.Sort(leaders)
	return leaders
}
