package engine

import "github.com/DoyleJ11/hangman-client/pkg/types"

// Verdict is the session filter's decision for one inbound envelope.
type Verdict int

const (
	// VerdictAccept hands the message to the reconciler.
	VerdictAccept Verdict = iota
	// VerdictReject drops a message that belongs to another lobby.
	VerdictReject
	// VerdictConflict is an ERROR pointing at an active game elsewhere. It is
	// handled even though it does not belong to the current lobby.
	VerdictConflict
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccept:
		return "accept"
	case VerdictReject:
		return "reject"
	case VerdictConflict:
		return "conflict"
	}
	return "unknown"
}

// Admit scopes an envelope to lobbyCode. A message is rejected only when it
// names a different lobby, either at the top level or in sharedGameState.
func Admit(env types.Envelope, lobbyCode string) Verdict {
	if env.Type == types.MsgError && env.ActiveGameInfo != nil &&
		env.ActiveGameInfo.LobbyCode != "" && env.ActiveGameInfo.LobbyCode != lobbyCode {
		return VerdictConflict
	}
	if origin := env.OriginLobby(); origin != "" && origin != lobbyCode {
		return VerdictReject
	}
	return VerdictAccept
}
