package player

import (
	"time"

	"github.com/vecplay/vecplay/anim"
)

// Update is an event on the controller's stream. The success path yields
// exactly one InformationReady followed by ongoing DisplayFrameRequest
// events; the failure path yields exactly one Failure and the stream
// closes.
type Update interface {
	isUpdate()
}

// InformationReady reports the validated metadata snapshot, emitted once
// when the controller reaches Ready.
type InformationReady struct {
	Information anim.Information
}

// DisplayFrameRequest asks the consumer to paint the current frame. The
// position is the playback position inside the document at display time.
type DisplayFrameRequest struct {
	Position time.Duration
}

// Failure is the terminal error event. No events follow it.
type Failure struct {
	Err error
}

func (InformationReady) isUpdate()    {}
func (DisplayFrameRequest) isUpdate() {}
func (Failure) isUpdate()             {}
