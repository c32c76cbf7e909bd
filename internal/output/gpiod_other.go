//go:build !linux

package output

import "fmt"

func openGPIOD(Config) (Driver, error) {
	return nil, fmt.Errorf("output: gpiod backend unsupported on this platform")
}
