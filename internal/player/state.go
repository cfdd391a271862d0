package player

// State is the Player connection/session state machine (spec §4.4).
type State int

const (
	// Disconnected: no socket, no session. Invariant: state == Disconnected
	// iff the player's socket is nil (§3).
	Disconnected State = iota
	// Connected: socket assigned, handshake not yet complete.
	Connected
	// LoggingIn: handshake complete, credential verification in progress.
	LoggingIn
	// LoggedIn: credentials verified, save loaded, session fully active.
	LoggedIn
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connected:
		return "Connected"
	case LoggingIn:
		return "LoggingIn"
	case LoggedIn:
		return "LoggedIn"
	default:
		return "Unknown"
	}
}

// UpdateFlag is a bit in the Player's pending-update bitset (§3).
type UpdateFlag uint32

const (
	FlagAppearance UpdateFlag = 1 << iota
	FlagAnimation
	FlagChat
	FlagForcedMove
	FlagVisibility
)

// FlagHardInvisible is the reserved bit (index 16) that hides a player from
// every other player's visibility computation regardless of distance (§4.7
// rule 5).
const FlagHardInvisible UpdateFlag = 1 << 16
