package stove

import "strconv"

// Registers are buffer offsets on the stove controller board.
type Registers struct {
	Status      int
	Power       int
	Temperature int
}

// DefaultRegisters match the NOBIS controller board.
var DefaultRegisters = Registers{Status: 33, Power: 58, Temperature: 53}

const (
	powerOff = 0
	powerOn  = 1
)

var statusNames = map[int]string{
	0: ModeOff,
	1: "START",
	2: "LOAD_PELLETS",
	3: "FLAME_LIGHT",
	4: StatusOn,
	5: "CLEANING_FIRE_POT",
	6: "FINAL_CLEANING",
	7: "ECO_STOP",
	8: "ALARM",
}

// translateStatus maps the status register to a name; unknown codes stay visible as CODE_<n>.
func translateStatus(code int) string {
	if s, ok := statusNames[code]; ok {
		return s
	}
	return "CODE_" + strconv.Itoa(code)
}
