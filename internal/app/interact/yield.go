package interact

import "time"

type YieldKind int

const (
	// YieldFrame asks to be resumed with the next world snapshot.
	YieldFrame YieldKind = iota + 1
	// YieldDelay asks to be resumed once Until has passed.
	YieldDelay
	YieldDone
)

// Yield is what a Step hands back to the scheduler.
type Yield struct {
	Kind  YieldKind
	Until time.Time
}

func NextFrame() Yield            { return Yield{Kind: YieldFrame} }
func WaitUntil(t time.Time) Yield { return Yield{Kind: YieldDelay, Until: t} }
func Finished() Yield             { return Yield{Kind: YieldDone} }

func (y Yield) Done() bool { return y.Kind == YieldDone }

func (y Yield) String() string {
	switch y.Kind {
	case YieldFrame:
		return "next_frame"
	case YieldDelay:
		return "delay"
	case YieldDone:
		return "done"
	default:
		return "unknown"
	}
}
