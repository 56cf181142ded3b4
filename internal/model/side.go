package model

// Side names one half of the market. Values are stable; they appear in
// history labels and API responses.
type Side string

const (
	SideDemand Side = "demand"
	SideSupply Side = "supply"
)

func (s Side) Valid() bool {
	return s == SideDemand || s == SideSupply
}
