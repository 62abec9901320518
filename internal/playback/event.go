package playback

// Event is a media-element notification. The concrete types below are the
// only implementations.
type Event interface {
	mediaEvent()
}

// Ready reports the media is loaded and can start.
type Ready struct{}

// BufferingStarted reports playback stalled waiting for data.
type BufferingStarted struct{}

// BufferingStopped reports enough data is buffered again.
type BufferingStopped struct{}

// Failed reports an unrecoverable media error.
type Failed struct {
	Reason string
}

// Ended reports the media reached its end.
type Ended struct{}

func (Ready) mediaEvent()            {}
func (BufferingStarted) mediaEvent() {}
func (BufferingStopped) mediaEvent() {}
func (Failed) mediaEvent()           {}
func (Ended) mediaEvent()            {}

// Player is the media element a session drives.
type Player interface {
	Play() error
	Pause() error
	Rewind() error
	SetMuted(muted bool) error
}
