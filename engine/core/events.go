package core

import "sync"

type EventContext struct {
	Data struct {
		U64 [2]uint64
		U32 [4]uint32
		U16 [8]uint16
	}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * u32 width = data.data.u32[0];
	 * u32 height = data.data.u32[1];
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	// The renderer detected a removed or reset device and finished
	// rebuilding the device graph.
	EVENT_CODE_DEVICE_RESTORED SystemEventCode = 0x09

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type FnOnEvent func(code SystemEventCode, sender interface{}, context EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type eventSystem struct {
	mu         sync.Mutex
	registered map[SystemEventCode][]*registeredEvent
}

var events *eventSystem

func EventSystemInitialize() bool {
	if events != nil {
		return false
	}
	events = &eventSystem{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
	return true
}

func EventSystemShutdown() {
	events = nil
}

func EventRegister(code SystemEventCode, listener interface{}, callback FnOnEvent) bool {
	if events == nil {
		return false
	}
	events.mu.Lock()
	defer events.mu.Unlock()
	events.registered[code] = append(events.registered[code], &registeredEvent{
		listener: listener,
		callback: callback,
	})
	return true
}

// EventFire dispatches synchronously to the listeners registered for code,
// in registration order. A listener returning true consumes the event and
// stops propagation.
func EventFire(code SystemEventCode, sender interface{}, context EventContext) bool {
	if events == nil {
		return false
	}
	events.mu.Lock()
	listeners := append([]*registeredEvent(nil), events.registered[code]...)
	events.mu.Unlock()

	for _, re := range listeners {
		if re.callback(code, sender, context) {
			return true
		}
	}
	return false
}
