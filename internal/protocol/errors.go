package protocol

// 错误码
const (
	ErrCodeUnknown      = 1000
	ErrCodeInvalidMsg   = 1001
	ErrCodeRateLimit    = 1002 // 速率限制
	ErrCodeUnauthorized = 1003 // 身份无效

	ErrCodeRoomNotFound   = 2001
	ErrCodeRoomFull       = 2002
	ErrCodeNotInRoom      = 2003
	ErrCodeGameStarted    = 2004 // 游戏已开始
	ErrCodeInOtherRoom    = 2005 // 已在其他房间
	ErrCodeNotOwner       = 2006 // 仅房主可操作
	ErrCodeNotEnoughSeats = 2007 // 人数不足

	ErrCodeGameNotStart    = 3001
	ErrCodeNotYourTurn     = 3002
	ErrCodeCardNotInHand   = 3003
	ErrCodeIllegalCard     = 3004
	ErrCodeAlreadyDrew     = 3005
	ErrCodeMustDrawFirst   = 3006
	ErrCodeCannotCallUno   = 3007
	ErrCodeInvalidAccuse   = 3008
	ErrCodeNotChoosing     = 3009
	ErrCodeInvalidColor    = 3010
	ErrCodeChoosingColor   = 3011 // 等待选色中
	ErrCodeLeaveInProgress = 3012 // 对局中不能离开

	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:      "未知错误",
	ErrCodeInvalidMsg:   "无效的消息格式",
	ErrCodeRateLimit:    "请求过于频繁",
	ErrCodeUnauthorized: "身份验证失败",

	ErrCodeRoomNotFound:   "房间不存在或已关闭",
	ErrCodeRoomFull:       "房间已满",
	ErrCodeNotInRoom:      "您不在房间中",
	ErrCodeGameStarted:    "游戏已开始",
	ErrCodeInOtherRoom:    "您已在其他房间中，请先退出",
	ErrCodeNotOwner:       "只有房主可以执行此操作",
	ErrCodeNotEnoughSeats: "至少需要 3 名玩家才能开始",

	ErrCodeGameNotStart:    "游戏尚未开始",
	ErrCodeNotYourTurn:     "还没轮到您",
	ErrCodeCardNotInHand:   "您没有这张牌",
	ErrCodeIllegalCard:     "这张牌现在不能出",
	ErrCodeAlreadyDrew:     "本回合已经摸过牌",
	ErrCodeMustDrawFirst:   "请先摸牌再过",
	ErrCodeCannotCallUno:   "只剩一张牌时才能喊 UNO",
	ErrCodeInvalidAccuse:   "举报无效",
	ErrCodeNotChoosing:     "当前不需要选色",
	ErrCodeInvalidColor:    "无效的颜色",
	ErrCodeChoosingColor:   "请先选择颜色",
	ErrCodeLeaveInProgress: "对局进行中，无法离开",

	ErrCodeServerMaintenance: "服务器维护中",
}
