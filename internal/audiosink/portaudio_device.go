package audiosink

import (
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

const (
	sampleRate      = 44100
	channels        = 2
	framesPerBuffer = 1024
)

// PortAudioDevice drives a real sound card via github.com/gordonklaus/portaudio.
// It is the production Device implementation; tests use a fake instead.
type PortAudioDevice struct {
	stream *portaudio.Stream
	buf    []int16
}

// NewPortAudioDevice creates an unopened PortAudioDevice.
func NewPortAudioDevice() *PortAudioDevice {
	return &PortAudioDevice{}
}

// Open initializes the PortAudio library and opens an output stream on
// deviceName, or the host API's default output device if deviceName is
// empty.
func (d *PortAudioDevice) Open(deviceName string) error {
	if err := portaudio.Initialize(); err != nil {
		return errors.Wrap(err, "failed to initialize portaudio")
	}

	out, err := resolveOutputDevice(deviceName)
	if err != nil {
		portaudio.Terminate()
		return err
	}

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   out,
			Channels: channels,
			Latency:  out.DefaultLowOutputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}

	d.buf = make([]int16, framesPerBuffer*channels)

	stream, err := portaudio.OpenStream(params, &d.buf)
	if err != nil {
		portaudio.Terminate()
		return errors.Wrap(err, "failed to open audio stream")
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return errors.Wrap(err, "failed to start audio stream")
	}

	d.stream = stream
	return nil
}

func resolveOutputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" || name == "default" {
		return portaudio.DefaultOutputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate audio devices")
	}
	for _, dv := range devices {
		if dv.Name == name && dv.MaxOutputChannels > 0 {
			return dv, nil
		}
	}
	return nil, errors.Errorf("audio device %q not found", name)
}

// Write delivers frames to the stream in framesPerBuffer-sized chunks,
// zero-padding the final partial chunk. A portaudio.OutputUnderflowed
// error is reported via ErrUnderrun rather than treated as fatal.
func (d *PortAudioDevice) Write(frames []int16) (accepted int, err error) {
	chunk := framesPerBuffer * channels
	var underran error

	for len(frames) > 0 {
		n := chunk
		if n > len(frames) {
			n = len(frames)
		}
		copy(d.buf, frames[:n])
		for i := n; i < len(d.buf); i++ {
			d.buf[i] = 0
		}

		if err := d.stream.Write(); err != nil {
			if err == portaudio.OutputUnderflowed {
				underran = err
			} else {
				return accepted + n/channels, errors.Wrap(err, "audio stream write failed")
			}
		}

		accepted += n / channels
		frames = frames[n:]
	}

	if underran != nil {
		return accepted, &ErrUnderrun{Err: underran}
	}
	return accepted, nil
}

// Close stops the stream, closes it, and terminates the PortAudio
// library.
func (d *PortAudioDevice) Close() error {
	if d.stream == nil {
		return nil
	}
	err := d.stream.Close()
	portaudio.Terminate()
	d.stream = nil
	return err
}
