//go:build !linux

package gps

import (
	"io"
	"time"

	"github.com/jacobsa/go-serial/serial"
)

func openSerial(path string, baud int, readTimeout time.Duration) (io.ReadWriteCloser, error) {
	// go-serial wants the timeout in whole tenths of a second, as ms.
	timeoutMs := uint(silenceTenths(readTimeout)) * 100
	return serial.Open(serial.OpenOptions{
		PortName:              path,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       1,
		InterCharacterTimeout: timeoutMs,
	})
}
