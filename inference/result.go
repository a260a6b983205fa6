package inference

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Label is the binary risk decision.
type Label int

const (
	LowRisk  Label = 0
	HighRisk Label = 1
)

func (l Label) String() string {
	switch l {
	case LowRisk:
		return "LowRisk"
	case HighRisk:
		return "HighRisk"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

func (l Label) MarshalText() ([]byte, error) {
	switch l {
	case LowRisk, HighRisk:
		return []byte(l.String()), nil
	default:
		return nil, fmt.Errorf("invalid label %d", int(l))
	}
}

func (l *Label) UnmarshalText(text []byte) error {
	switch string(text) {
	case "LowRisk":
		*l = LowRisk
	case "HighRisk":
		*l = HighRisk
	default:
		return fmt.Errorf("invalid label %q", text)
	}
	return nil
}

// Result is the outcome of one prediction. Probability is P(HighRisk).
type Result struct {
	Label       Label   `json:"label"`
	Probability float64 `json:"probability"`
}

// Message renders the result the way it is shown to an analyst, with the
// probability formatted for tag.
func (r Result) Message(tag language.Tag) string {
	p := message.NewPrinter(tag)
	if r.Label == HighRisk {
		return p.Sprintf("High Credit Risk Detected! Probability: %.2f%%", r.Probability*100)
	}
	return p.Sprintf("Low Credit Risk. Probability: %.2f%%", r.Probability*100)
}
