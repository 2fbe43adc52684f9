package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies the current time. Due dates and overdue checks read it.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return RealClock{} }),
)
