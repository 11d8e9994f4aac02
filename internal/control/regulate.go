package control

// Regulate runs the heater while the water is below the setpoint.
func Regulate(temperature, setpoint float32, heater Actuator) {
	if temperature < setpoint {
		heater.Start()
	} else {
		heater.Stop()
	}
}
