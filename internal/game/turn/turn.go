// Package turn 计算下一个出牌座位
package turn

// Direction 出牌方向
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// Flip 反转方向
func (d Direction) Flip() Direction {
	return -d
}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return ""
	}
}

// Result 一次扫描的结果
type Result struct {
	Index   int   // 下一个可出牌的座位
	Skipped []int // 扫描中跳过的不可用座位，按经过顺序
	OK      bool  // 除当前座位外没有可用座位时为 false
}

// Next 从 current 开始按 dir 逐个座位前进，跳过 eligible 返回 false 的座位，
// 最多扫描一圈
func Next(n, current int, dir Direction, eligible func(i int) bool) Result {
	if n <= 0 {
		return Result{}
	}
	step := int(dir)
	if step == 0 {
		step = int(Forward)
	}

	var skipped []int
	idx := current
	for range n - 1 {
		idx = ((idx+step)%n + n) % n
		if eligible(idx) {
			return Result{Index: idx, Skipped: skipped, OK: true}
		}
		skipped = append(skipped, idx)
	}
	return Result{Skipped: skipped}
}
