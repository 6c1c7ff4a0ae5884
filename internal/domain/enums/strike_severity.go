package enums

type StrikeSeverity string

const (
	StrikeSeverityWarning StrikeSeverity = "warning"
	StrikeSeverityFirst   StrikeSeverity = "strike_1"
	StrikeSeveritySecond  StrikeSeverity = "strike_2"
	StrikeSeverityThird   StrikeSeverity = "strike_3"
)

func (s StrikeSeverity) Valid() bool {
	switch s {
	case StrikeSeverityWarning, StrikeSeverityFirst, StrikeSeveritySecond, StrikeSeverityThird:
		return true
	}
	return false
}
