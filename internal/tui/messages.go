package tui

import (
	"github.com/gorilla/websocket"

	"factline/internal/timeline"
)

type contentLoadedMsg struct {
	overview string
	tl       timeline.CuratedTimeline
}

// contentErrMsg covers both real failures and the "no data" states; noData
// distinguishes them so the view can say which.
type contentErrMsg struct {
	err    error
	noData string
}

// articlesDoneMsg fires when a loader run has worked through every batch.
type articlesDoneMsg struct{}

// loaderTickMsg polls loader progress into the view while batches run.
type loaderTickMsg struct{}

// retryArticlesMsg re-runs the loader over ids deferred by backpressure or a
// transient batch failure.
type retryArticlesMsg struct{}

// searchCommittedMsg arrives when the debounced query commits.
type searchCommittedMsg struct {
	query string
}

// highlightOffMsg removes the deep-link highlight after its fixed duration.
type highlightOffMsg struct{}

// contentUpdatedMsg arrives over the websocket feed when editors change the
// figure's content.
type contentUpdatedMsg struct {
	figureID string
}

// updatesConnMsg delivers the established websocket connection so the read
// loop can be re-armed after every message.
type updatesConnMsg struct {
	conn *websocket.Conn
}

type openErrMsg struct {
	err error
}
