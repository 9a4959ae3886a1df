package types

// Client -> server command types. Commands are fire-and-forget: no reply is
// correlated with them.
type CommandType string

const (
	CmdJoin                  CommandType = "HANGMAN_JOIN"
	CmdGetCategories         CommandType = "HANGMAN_GET_CATEGORIES"
	CmdGetLanguageCategories CommandType = "HANGMAN_GET_LANGUAGE_CATEGORIES"
	CmdStart                 CommandType = "HANGMAN_START"
	CmdGuessLetter           CommandType = "HANGMAN_GUESS_LETTER"
	CmdGuessWord             CommandType = "HANGMAN_GUESS_WORD"
	CmdEndGame               CommandType = "HANGMAN_END_GAME"
)

// Word source modes.
const (
	WordSourceServer = "server"
	WordSourceHost   = "host"
)

type ClientCommand struct {
	Type           CommandType `json:"type"`
	LobbyCode      string      `json:"lobbyCode,omitempty"`
	Language       string      `json:"language,omitempty"`
	Category       string      `json:"category,omitempty"`
	CustomWord     string      `json:"customWord,omitempty"`
	CustomCategory string      `json:"customCategory,omitempty"`
	LanguageMode   string      `json:"languageMode,omitempty"`
	WordSourceMode string      `json:"wordSourceMode,omitempty"`
	Letter         string      `json:"letter,omitempty"`
	Word           string      `json:"word,omitempty"`
}

// StartOptions is what the host picked in the setup dialog.
type StartOptions struct {
	Category       string
	CustomWord     string
	CustomCategory string
	LanguageMode   string
	WordSourceMode string
}

func Join(lobbyCode string) ClientCommand {
	return ClientCommand{Type: CmdJoin, LobbyCode: lobbyCode}
}

func GetCategories() ClientCommand {
	return ClientCommand{Type: CmdGetCategories}
}

func GetLanguageCategories(language string) ClientCommand {
	return ClientCommand{Type: CmdGetLanguageCategories, Language: language}
}

// Start sends either the chosen category (server word source) or the host's own
// word and category.
func Start(lobbyCode string, opts StartOptions) ClientCommand {
	cmd := ClientCommand{
		Type:           CmdStart,
		LobbyCode:      lobbyCode,
		LanguageMode:   opts.LanguageMode,
		WordSourceMode: opts.WordSourceMode,
	}
	if opts.WordSourceMode == WordSourceHost {
		cmd.CustomWord = opts.CustomWord
		cmd.CustomCategory = opts.CustomCategory
	} else {
		cmd.Category = opts.Category
	}
	return cmd
}

func GuessLetter(lobbyCode, letter string) ClientCommand {
	return ClientCommand{Type: CmdGuessLetter, LobbyCode: lobbyCode, Letter: letter}
}

func GuessWord(lobbyCode, word string) ClientCommand {
	return ClientCommand{Type: CmdGuessWord, LobbyCode: lobbyCode, Word: word}
}

func EndGame(lobbyCode string) ClientCommand {
	return ClientCommand{Type: CmdEndGame, LobbyCode: lobbyCode}
}
