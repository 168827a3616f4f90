package apperrors

import (
	"github.com/palemoky/uno-server/internal/protocol"
)

// Kind 错误类别，决定错误如何回报给玩家
type Kind int

const (
	KindValidation    Kind = iota // 规则/参数校验失败，只告知操作者
	KindAuthorization             // 非房主执行房主操作
	KindNotFound                  // 房间或座位已不存在，客户端应离开房间
	KindInternal                  // 基础设施错误，只记录日志
)

// GameError 游戏错误（房间和会话共享）
type GameError struct {
	Code    int
	Kind    Kind
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// LeaveRoom 客户端是否应离开房间
func (e *GameError) LeaveRoom() bool {
	return e.Kind == KindNotFound
}

func newError(code int, kind Kind) *GameError {
	return &GameError{Code: code, Kind: kind, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	ErrRoomNotFound = newError(protocol.ErrCodeRoomNotFound, KindNotFound)
	ErrNotInRoom    = newError(protocol.ErrCodeNotInRoom, KindNotFound)

	ErrNotOwner = newError(protocol.ErrCodeNotOwner, KindAuthorization)

	ErrRoomFull       = newError(protocol.ErrCodeRoomFull, KindValidation)
	ErrGameStarted    = newError(protocol.ErrCodeGameStarted, KindValidation)
	ErrInOtherRoom    = newError(protocol.ErrCodeInOtherRoom, KindValidation)
	ErrNotEnoughSeats = newError(protocol.ErrCodeNotEnoughSeats, KindValidation)
	ErrGameNotStart   = newError(protocol.ErrCodeGameNotStart, KindValidation)
	ErrNotYourTurn    = newError(protocol.ErrCodeNotYourTurn, KindValidation)
	ErrCardNotInHand  = newError(protocol.ErrCodeCardNotInHand, KindValidation)
	ErrIllegalCard    = newError(protocol.ErrCodeIllegalCard, KindValidation)
	ErrAlreadyDrew    = newError(protocol.ErrCodeAlreadyDrew, KindValidation)
	ErrMustDrawFirst  = newError(protocol.ErrCodeMustDrawFirst, KindValidation)
	ErrCannotCallUno  = newError(protocol.ErrCodeCannotCallUno, KindValidation)
	ErrInvalidAccuse  = newError(protocol.ErrCodeInvalidAccuse, KindValidation)
	ErrNotChoosing    = newError(protocol.ErrCodeNotChoosing, KindValidation)
	ErrInvalidColor   = newError(protocol.ErrCodeInvalidColor, KindValidation)
	ErrChoosingColor  = newError(protocol.ErrCodeChoosingColor, KindValidation)
	ErrLeaveInGame    = newError(protocol.ErrCodeLeaveInProgress, KindValidation)
	ErrInvalidMessage = newError(protocol.ErrCodeInvalidMsg, KindValidation)
)
