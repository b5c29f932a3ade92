package sim

import (
	"go.uber.org/zap"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// Phase starts at Start seconds.
type Phase struct {
	Name  string
	Start float64
}

// Schedule switches flight phases by time. It is an observer, so a switch
// seen on tick t takes effect from tick t+dt.
type Schedule struct {
	Phases []Phase
	Select func(name string) error
	Logger *zap.Logger

	next int
}

func (s *Schedule) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	for s.next < len(s.Phases) && t >= s.Phases[s.next].Start {
		p := s.Phases[s.next]
		s.next++
		if err := s.Select(p.Name); err != nil {
			s.logger().Error("phase switch failed", zap.String("phase", p.Name), zap.Float64("t", t), zap.Error(err))
			continue
		}
		s.logger().Info("phase", zap.String("phase", p.Name), zap.Float64("t", t))
	}
}

// Current returns the last phase entered, or "" before the first.
func (s *Schedule) Current() string {
	if s.next == 0 {
		return ""
	}
	return s.Phases[s.next-1].Name
}

func (s *Schedule) Reset() { s.next = 0 }

func (s *Schedule) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.L()
}
