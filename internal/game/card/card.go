package card

import (
	"fmt"
	"slices"
)

// Color 定义牌的颜色
type Color string

const (
	Red    Color = "red"
	Yellow Color = "yellow"
	Green  Color = "green"
	Blue   Color = "blue"
	Wild   Color = "wild"
)

// Colors 四种可选颜色（不含万能色）
var Colors = []Color{Red, Yellow, Green, Blue}

// Value 定义牌面
type Value string

const (
	Skip         Value = "Skip"
	Reverse      Value = "Reverse"
	DrawTwo      Value = "DrawTwo"
	WildCard     Value = "Wild"
	WildDrawFour Value = "WildDrawFour"
)

// Card 定义一张牌
// ChosenColor 只在万能牌被选色后设置，不会修改 Color
type Card struct {
	Color       Color `json:"color"`
	Value       Value `json:"value"`
	ChosenColor Color `json:"chosenColor,omitempty"`
}

// Source 随机数来源，*rand.Rand 满足该接口
type Source interface {
	IntN(n int) int
}

// catalog 54 张牌面：4 色 × (0-9, Skip, Reverse, DrawTwo) + 2 张万能牌
var catalog = buildCatalog()

func buildCatalog() []Card {
	cards := make([]Card, 0, 54)
	for _, c := range Colors {
		for n := range 10 {
			cards = append(cards, Card{Color: c, Value: Value(fmt.Sprint(n))})
		}
		cards = append(cards,
			Card{Color: c, Value: Skip},
			Card{Color: c, Value: Reverse},
			Card{Color: c, Value: DrawTwo},
		)
	}
	return append(cards,
		Card{Color: Wild, Value: WildCard},
		Card{Color: Wild, Value: WildDrawFour},
	)
}

// Catalog 返回牌面目录的副本
func Catalog() []Card {
	return slices.Clone(catalog)
}

// Random 从牌面目录中均匀随机抽一张，牌不会耗尽
func Random(src Source) Card {
	return catalog[src.IntN(len(catalog))]
}

// Deal 抽 n 张牌
func Deal(src Source, n int) []Card {
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = Random(src)
	}
	return cards
}

// RandomStarter 抽一张起始牌，重抽直到既不是万能牌也不是功能牌
func RandomStarter(src Source) Card {
	for {
		c := Random(src)
		if !c.IsWild() && !c.IsAction() {
			return c
		}
	}
}

// IsWild 是否万能牌
func (c Card) IsWild() bool {
	return c.Color == Wild
}

// IsAction 是否功能牌（Skip / Reverse / DrawTwo）
func (c Card) IsAction() bool {
	switch c.Value {
	case Skip, Reverse, DrawTwo:
		return true
	}
	return false
}

// Valid 是否目录中的牌面
func (c Card) Valid() bool {
	return slices.ContainsFunc(catalog, func(e Card) bool { return e.Same(c) })
}

// Same 比较颜色和牌面，忽略 ChosenColor
func (c Card) Same(other Card) bool {
	return c.Color == other.Color && c.Value == other.Value
}

func (c Card) String() string {
	if c.ChosenColor != "" {
		return fmt.Sprintf("%s %s(%s)", c.Color, c.Value, c.ChosenColor)
	}
	return fmt.Sprintf("%s %s", c.Color, c.Value)
}

// ParseColor 解析客户端选择的颜色，只接受四种普通颜色
func ParseColor(s string) (Color, bool) {
	c := Color(s)
	if slices.Contains(Colors, c) {
		return c, true
	}
	return "", false
}
