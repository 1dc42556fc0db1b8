package cardgame

import "strconv"

// 牌的颜色。万能牌打出前为黑色
const (
	Red    = "red"
	Blue   = "blue"
	Green  = "green"
	Yellow = "yellow"
	Black  = "black"
)

// 数字以外的牌面
const (
	Skip    = "skip"
	Reverse = "reverse"
	Draw2   = "draw2"
	Wild    = "wild"
	Draw4   = "draw4"
)

// 牌的种类
const (
	KindNumber = "number"
	KindAction = "action"
	KindWild   = "wild"
)

// Colors 按牌堆顺序列出四种颜色
var Colors = []string{Red, Blue, Green, Yellow}

// Card 一张牌
type Card struct {
	Color string `json:"color"`
	Value string `json:"value"`
	Kind  string `json:"type"`
}

// IsWild 是否可以打在任何牌上
func (c Card) IsWild() bool { return c.Color == Black }

// NewDeck 按固定顺序返回 108 张牌：每种颜色一张 0、1-9 和功能牌各两张，
// 再加四张万能牌和四张万能 +4
func NewDeck() []Card {
	deck := make([]Card, 0, 108)
	for _, color := range Colors {
		deck = append(deck, Card{Color: color, Value: "0", Kind: KindNumber})
		for n := 1; n <= 9; n++ {
			v := strconv.Itoa(n)
			deck = append(deck,
				Card{Color: color, Value: v, Kind: KindNumber},
				Card{Color: color, Value: v, Kind: KindNumber})
		}
		for range 2 {
			deck = append(deck,
				Card{Color: color, Value: Skip, Kind: KindAction},
				Card{Color: color, Value: Reverse, Kind: KindAction},
				Card{Color: color, Value: Draw2, Kind: KindAction})
		}
	}
	for range 4 {
		deck = append(deck,
			Card{Color: Black, Value: Wild, Kind: KindWild},
			Card{Color: Black, Value: Draw4, Kind: KindWild})
	}
	return deck
}

func validColor(c string) bool {
	switch c {
	case Red, Blue, Green, Yellow:
		return true
	}
	return false
}
