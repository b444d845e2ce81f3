package models

// EventKind tags a canonical event.
type EventKind int

const (
	EventLiveTick EventKind = iota
	EventRoundSnapshot
	EventRoundFinalized
	EventHistoryBatch
	EventPrediction
	EventServiceStatus
	EventJoinAck
)

var eventKindNames = [...]string{
	"LiveTick", "RoundSnapshot", "RoundFinalized", "HistoryBatch",
	"Prediction", "ServiceStatus", "JoinAck",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "Unknown"
}

// MLiveTick carries an in-flight value only.
type MLiveTick struct {
	Value  float64
	Number *int
	Color  string
}

// MRoundSnapshot is a full or partial round update from the server.
// Has* flags mark which fields were present in the payload.
type MRoundSnapshot struct {
	RoundID          string
	Phase            RoundPhase
	MaxMultiplier    float64
	LiveValue        float64
	Number           *int
	Color            string
	Aggregates       MRoundAggregates
	HasAggregates    bool
	HasLiveValue     bool
	HasMaxMultiplier bool
}

// MJoinAck is the server's answer to a join request.
type MJoinAck struct {
	Success bool
	History []MHistoryEntry
	Status  *MServiceStatus
}

// MCanonicalEvent is the normalizer's output. Exactly one payload field is
// set, matching Kind.
type MCanonicalEvent struct {
	Kind       EventKind
	Tick       *MLiveTick
	Snapshot   *MRoundSnapshot
	History    []MHistoryEntry
	Prediction *MPrediction
	Status     *MServiceStatus
	JoinAck    *MJoinAck
}

// FrameKind tags what the transport delivered.
type FrameKind int

const (
	FrameEvent FrameKind = iota
	FrameConnected
	FrameDisconnected
	FrameConnectError
)

// MFrame is one item of a transport's ordered inbound stream. Connectivity
// changes travel on the same stream as events so consumers see them in order.
type MFrame struct {
	Kind    FrameKind
	Event   string
	Payload []byte
	Err     error
}
