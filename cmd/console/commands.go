package main

import (
	"strconv"
	"strings"

	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

type commandKind int

const (
	cmdNone commandKind = iota
	cmdOpen
	cmdSkipIntro
	cmdChoose
	cmdNameInsight
	cmdInterpret
	cmdCustom
	cmdReflect
	cmdFocus
	cmdAttune
	cmdSynthEchoes
	cmdSynthFragments
	cmdRetry
	cmdRestart
	cmdDismiss
	cmdModal
	cmdNote
	cmdLanguage
	cmdMute
	cmdVolume
	cmdExport
	cmdCopy
	cmdHelp
	cmdQuit
	cmdUnknown
)

// command is one parsed line of player input.
type command struct {
	kind  commandKind
	arg   string
	ids   []string
	modal state.Modal
	n     int
}

var modalCommands = map[string]state.Modal{
	"/journal":  state.ModalJournal,
	"/history":  state.ModalHistory,
	"/notes":    state.ModalNotes,
	"/map":      state.ModalMap,
	"/weaving":  state.ModalWeaving,
	"/settings": state.ModalSettings,
	"/close":    state.ModalNone,
}

// parseInput turns a line of input into a command for the given state. Plain text
// means different things depending on the phase; a bare number picks from the
// choices or interpretation options on screen.
func parseInput(gs state.GameState, input string) command {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "/") {
		return parseSlash(input)
	}

	switch gs.Phase() {
	case state.PhaseHome:
		return command{kind: cmdOpen}
	case state.PhaseIntroVideo:
		return command{kind: cmdSkipIntro}
	case state.PhaseError:
		return command{kind: cmdDismiss}
	case state.PhaseAwaitingNameInput:
		if input == "" {
			return command{kind: cmdNone}
		}
		return command{kind: cmdNameInsight, arg: input}
	case state.PhaseAwaitingLoreInterpretation:
		if opt, ok := pick(input, gs.LoreToInterpret.Options); ok {
			return command{kind: cmdInterpret, arg: opt}
		}
		if input == "" {
			return command{kind: cmdNone}
		}
		return command{kind: cmdInterpret, arg: input}
	}

	if input == "" {
		return command{kind: cmdNone}
	}
	if choice, ok := pick(input, gs.Choices); ok {
		return command{kind: cmdChoose, arg: choice}
	}
	return command{kind: cmdChoose, arg: input}
}

func parseSlash(input string) command {
	name, rest, _ := strings.Cut(input, " ")
	name = strings.ToLower(name)
	rest = strings.TrimSpace(rest)

	if modal, ok := modalCommands[name]; ok {
		return command{kind: cmdModal, modal: modal}
	}

	switch name {
	case "/surge":
		return withArg(cmdCustom, rest)
	case "/reflect":
		return command{kind: cmdReflect}
	case "/focus":
		return command{kind: cmdFocus}
	case "/attune":
		return withArg(cmdAttune, rest)
	case "/echoes":
		return command{kind: cmdSynthEchoes, ids: strings.Fields(rest)}
	case "/fragments":
		return command{kind: cmdSynthFragments, ids: strings.Fields(rest)}
	case "/retry":
		return command{kind: cmdRetry}
	case "/restart":
		return command{kind: cmdRestart}
	case "/dismiss":
		return command{kind: cmdDismiss}
	case "/note":
		return withArg(cmdNote, rest)
	case "/lang", "/language":
		return withArg(cmdLanguage, rest)
	case "/mute":
		return command{kind: cmdMute}
	case "/volume":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return command{kind: cmdUnknown, arg: input}
		}
		return command{kind: cmdVolume, n: n}
	case "/export":
		return command{kind: cmdExport}
	case "/copy":
		return command{kind: cmdCopy}
	case "/help":
		return command{kind: cmdHelp}
	case "/quit", "/exit":
		return command{kind: cmdQuit}
	}
	return command{kind: cmdUnknown, arg: input}
}

func withArg(kind commandKind, arg string) command {
	if arg == "" {
		return command{kind: cmdUnknown}
	}
	return command{kind: kind, arg: arg}
}

// pick resolves a 1-based index into options.
func pick(input string, options []string) (string, bool) {
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(options) {
		return "", false
	}
	return options[n-1], true
}

// splitNote reads "title: content". Without a colon the whole text is the content.
func splitNote(arg string) (string, string) {
	title, content, ok := strings.Cut(arg, ":")
	if !ok {
		return "Note", strings.TrimSpace(arg)
	}
	return strings.TrimSpace(title), strings.TrimSpace(content)
}
