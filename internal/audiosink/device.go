package audiosink

// Device is the narrow interface the Sink worker drives. Frames are
// always interleaved 16-bit little-endian stereo samples at 44.1 kHz,
// the fixed format this system supports (spec Non-goals: no format
// negotiation).
//
// ErrUnderrun, when returned from Write, signals a recoverable
// condition: the sink logs a warning and keeps running rather than
// failing the write.
type Device interface {
	// Open opens the device, selecting deviceName if non-empty,
	// otherwise the platform default output device.
	Open(deviceName string) error
	// Write delivers frames (int16 samples, interleaved stereo) to the
	// device and returns how many frames were accepted.
	Write(frames []int16) (accepted int, err error)
	// Close releases the device.
	Close() error
}

// ErrUnderrun wraps an underlying device error to signal the Write call
// hit a recoverable underrun rather than a fatal failure.
type ErrUnderrun struct {
	Err error
}

func (e *ErrUnderrun) Error() string { return "audio device underrun: " + e.Err.Error() }
func (e *ErrUnderrun) Unwrap() error { return e.Err }
