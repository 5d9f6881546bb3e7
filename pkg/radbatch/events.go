package radbatch

import "time"

// CaseDoneEvent is emitted after a case was extracted and its maps written.
type CaseDoneEvent struct {
	CaseID   string
	Features int
	Maps     int
	Duration time.Duration
}

// CaseErrorEvent is emitted when a case fails.
type CaseErrorEvent struct {
	CaseID string
	Error  error
}

// EventHandler receives per-case notifications.
// Implementations should return quickly; they run on the batch goroutine.
type EventHandler interface {
	OnCaseDone(event CaseDoneEvent)
	OnCaseError(event CaseErrorEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to
// override only the events you need.
type BaseEventHandler struct{}

func (BaseEventHandler) OnCaseDone(CaseDoneEvent)   {}
func (BaseEventHandler) OnCaseError(CaseErrorEvent) {}

// eventEmitterWrapper adapts EventHandler to app.CaseEventEmitter.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnCaseDone(caseID string, features, maps int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnCaseDone(CaseDoneEvent{
		CaseID:   caseID,
		Features: features,
		Maps:     maps,
		Duration: duration,
	})
}

func (e *eventEmitterWrapper) OnCaseError(caseID string, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnCaseError(CaseErrorEvent{CaseID: caseID, Error: err})
}
