package consts

const (
	BOLTZMANN = 1.380649e-23    // J/K
	CHARGE    = 1.602176634e-19 // C

	ROOM_TEMP = 300.15 // K, 27 degC
)

// ThermalVoltage returns kT/q for the given temperature in Kelvin.
func ThermalVoltage(temp float64) float64 {
	if temp <= 0 {
		temp = ROOM_TEMP
	}
	return BOLTZMANN * temp / CHARGE
}
