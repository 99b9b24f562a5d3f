package session

import "sync"

// fakeDeviceForBridge is a minimal audiosink.Device used only to
// observe what the Bridge forwards to the sink.
type fakeDeviceForBridge struct {
	mu      sync.Mutex
	written []int16
}

func (f *fakeDeviceForBridge) Open(string) error { return nil }

func (f *fakeDeviceForBridge) Write(frames []int16) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, frames...)
	return len(frames) / 2, nil
}

func (f *fakeDeviceForBridge) Close() error { return nil }
