package card

// Effect 出牌后的效果
type Effect struct {
	Skip        bool // 下家被跳过
	Reverse     bool // 方向反转
	Draw        int  // 下家摸牌数
	ChooseColor bool // 进入选色子状态
}

// CanPlay 判断 candidate 能否压在 active 上
func CanPlay(candidate, active Card) bool {
	if candidate.IsWild() {
		return true
	}
	if active.ChosenColor != "" {
		return candidate.Color == active.ChosenColor
	}
	return candidate.Color == active.Color || candidate.Value == active.Value
}

// EffectOf 返回牌的效果
func EffectOf(c Card) Effect {
	switch c.Value {
	case Skip:
		return Effect{Skip: true}
	case Reverse:
		return Effect{Reverse: true}
	case DrawTwo:
		return Effect{Skip: true, Draw: 2}
	case WildCard:
		return Effect{ChooseColor: true}
	case WildDrawFour:
		return Effect{Skip: true, Draw: 4, ChooseColor: true}
	default:
		return Effect{}
	}
}
