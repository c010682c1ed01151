package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/echo-chronicle/internal/export"
	"github.com/jwebster45206/echo-chronicle/internal/game"
	"github.com/jwebster45206/echo-chronicle/internal/turn"
	"github.com/jwebster45206/echo-chronicle/pkg/state"
	"github.com/jwebster45206/echo-chronicle/pkg/textfilter"
)

const PlaceHolderText = "Choose a number, type an action, or /help..."

// ConsoleUI is the BubbleTea model that runs the UI. It never changes game state
// itself: every change goes through the orchestrator or the store inside a tea.Cmd,
// and the resulting state comes back as a stateMsg.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	ctx       context.Context
	orch      *turn.Orchestrator
	store     *game.Store
	exportDir string

	gs           state.GameState
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	status       string
	showHelp     bool

	showQuitModal bool
	progressTick  int
	introURL      string
}

// stateMsg carries the state produced by a dispatch.
type stateMsg struct {
	gs state.GameState
}

type statusMsg struct {
	text string
}

// introMsg carries the prologue video URL once it is ready.
type introMsg struct {
	url string
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141")). // violet
			Bold(true)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	whisperStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("183")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(ctx context.Context, orch *turn.Orchestrator, store *game.Store, dataDir string) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		ctx:          ctx,
		orch:         orch,
		store:        store,
		exportDir:    filepath.Join(dataDir, "exports"),
		gs:           store.State(),
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.requestHomeImage())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.refresh()

	case stateMsg:
		wasLoading := m.gs.IsLoading
		m.gs = msg.gs
		m.refresh()
		if m.gs.IsLoading && !wasLoading {
			m.progressTick = 0
			return m, progressTick()
		}
		return m, nil

	case statusMsg:
		m.status = msg.text
		m.refresh()
		return m, nil

	case introMsg:
		m.introURL = msg.url
		m.refresh()
		return m, nil

	case progressTickMsg:
		if m.gs.IsLoading {
			m.progressTick++
			m.refresh()
			return m, progressTick()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEsc:
			if m.gs.OpenModal != state.ModalNone {
				return m, m.dispatch(state.CloseModal{})
			}
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			input := m.textarea.Value()
			m.textarea.Reset()
			return m.handle(parseInput(m.gs, input))
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// handle maps a command to the work that carries it out.
func (m ConsoleUI) handle(c command) (tea.Model, tea.Cmd) {
	m.status = ""
	m.showHelp = false

	switch c.kind {
	case cmdNone:
		return m, nil
	case cmdHelp:
		m.showHelp = true
		m.refresh()
		return m, nil
	case cmdQuit:
		m.showQuitModal = true
		return m, nil
	case cmdUnknown:
		m.status = "Unknown command. Try /help."
		m.refresh()
		return m, nil
	case cmdOpen:
		return m, func() tea.Msg {
			url, _ := m.orch.PlayIntro(m.ctx)
			return introMsg{url}
		}
	case cmdSkipIntro:
		m.introURL = ""
		return m, m.run(m.orch.SkipIntro)
	case cmdChoose:
		return m, m.run(func(ctx context.Context) error { return m.orch.ChooseByText(ctx, c.arg) })
	case cmdNameInsight:
		return m, m.run(func(ctx context.Context) error { return m.orch.NameInsight(ctx, c.arg) })
	case cmdInterpret:
		return m, m.run(func(ctx context.Context) error { return m.orch.InterpretLore(ctx, c.arg) })
	case cmdCustom:
		return m, m.run(func(ctx context.Context) error { return m.orch.CustomAction(ctx, c.arg) })
	case cmdReflect:
		return m, m.run(m.orch.RequestReflection)
	case cmdFocus:
		return m, m.run(m.orch.FocusSenses)
	case cmdAttune:
		return m, m.run(func(ctx context.Context) error { return m.orch.AttuneArtifact(ctx, c.arg) })
	case cmdSynthEchoes:
		return m, m.run(func(ctx context.Context) error { return m.orch.SynthesizeEchoes(ctx, c.ids) })
	case cmdSynthFragments:
		return m, m.run(func(ctx context.Context) error { return m.orch.SynthesizeFragments(ctx, c.ids) })
	case cmdRetry:
		return m, m.run(m.orch.Retry)
	case cmdRestart:
		return m, func() tea.Msg {
			m.store.Restart(m.ctx)
			return statusMsg{"A new chronicle awaits. Press Enter to begin."}
		}
	case cmdDismiss:
		return m, m.dispatch(state.DismissError{})
	case cmdModal:
		if c.modal == state.ModalNone {
			return m, m.dispatch(state.CloseModal{})
		}
		return m, m.dispatch(state.OpenModal{Modal: c.modal})
	case cmdNote:
		title, content := splitNote(c.arg)
		return m, m.dispatch(state.NewPlayerNote(title, content))
	case cmdLanguage:
		return m, m.dispatch(state.SetLanguage{Language: c.arg})
	case cmdMute:
		return m, m.dispatch(state.SetMuted{Muted: !m.gs.Settings.Muted})
	case cmdVolume:
		return m, m.dispatch(state.SetVolume{Volume: c.n})
	case cmdExport:
		return m, m.exportChronicle()
	case cmdCopy:
		return m, m.copyScene()
	}
	return m, nil
}

// run performs a generator-backed operation off the UI goroutine. Failures are
// already reflected in state by the orchestrator.
func (m ConsoleUI) run(op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		_ = op(m.ctx)
		return nil
	}
}

// dispatch sends a plain action. It must not run inside Update since listeners
// deliver straight back into the program.
func (m ConsoleUI) dispatch(a state.Action) tea.Cmd {
	return func() tea.Msg {
		m.store.Dispatch(a)
		return nil
	}
}

func (m ConsoleUI) requestHomeImage() tea.Cmd {
	return func() tea.Msg {
		m.orch.RequestHomeImage()
		return nil
	}
}

func (m ConsoleUI) exportChronicle() tea.Cmd {
	return func() tea.Msg {
		path, err := export.WriteChronicle(m.store.State(), m.exportDir, time.Now())
		if err != nil {
			return statusMsg{"Export failed: " + err.Error()}
		}
		return statusMsg{"Chronicle exported to " + path}
	}
}

func (m ConsoleUI) copyScene() tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(m.store.State().SceneText); err != nil {
			return statusMsg{"Copy failed: " + err.Error()}
		}
		return statusMsg{"Scene copied to clipboard."}
	}
}

func progressTick() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

// refresh redraws both panels for the current state and width.
func (m *ConsoleUI) refresh() {
	if !m.ready {
		return
	}
	width := m.chatViewport.Width - 6
	var body string
	switch {
	case m.showHelp:
		body = renderHelp()
	case m.gs.OpenModal != state.ModalNone:
		body = renderModal(m.gs, width)
	default:
		body = renderScene(m.gs, m.introURL, width, m.progressTick)
	}
	if m.status != "" {
		body += "\n" + promptStyle.Render(wordwrap.String(m.status, width)) + "\n"
	}
	m.chatViewport.SetContent(body)
	if m.gs.IsLoading {
		m.chatViewport.GotoBottom()
	}
	m.metaViewport.SetContent(renderMeta(m.gs))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "Loading..."
	}
	chat := lipgloss.JoinVertical(lipgloss.Left, m.chatViewport.View(), "", m.textarea.View())
	return lipgloss.JoinHorizontal(lipgloss.Top,
		chatPanelStyle.Render(chat),
		metaPanelStyle.Render(m.metaViewport.View()))
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
	case stateMsg:
		m.gs = msg.gs
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		case tea.KeyEsc:
			m.showQuitModal = false
			return m, textarea.Blink
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}
	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the Chronicle?"))
	content.WriteString("\n\n")
	content.WriteString("Your chronicle is saved and will be here when you return.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

// renderScene draws the narrative panel: scene text (or the partial stream while a
// turn is in flight), choices and any one-shot prompts.
func renderScene(gs state.GameState, introURL string, width, tick int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ECHO CHRONICLE") + "\n\n")

	switch gs.Phase() {
	case state.PhaseHome:
		b.WriteString("The bells of Bellmarsh have fallen silent.\n\n")
		if gs.HomeImageURL != "" {
			b.WriteString(promptStyle.Render(gs.HomeImageURL) + "\n\n")
		}
		if gs.ConfigMissing {
			b.WriteString(errorStyle.Render("No generator key is configured. Set GEMINI_API_KEY or ANTHROPIC_API_KEY.") + "\n\n")
		}
		b.WriteString(promptStyle.Render("Press Enter to begin.") + "\n")
		return b.String()
	case state.PhaseIntroVideo:
		if introURL != "" {
			b.WriteString("The prologue is ready: " + promptStyle.Render(introURL) + "\n\n")
		} else {
			b.WriteString(loadingStyle.Render("The prologue is taking shape...") + "\n\n")
		}
		b.WriteString(promptStyle.Render("Press Enter to skip the prologue.") + "\n")
		return b.String()
	}

	b.WriteString(separatorStyle.Render(strings.Repeat("─", max(width-6, 1))) + "\n\n")

	scene := gs.SceneText
	if gs.IsLoading && gs.StreamingSceneText != "" {
		scene = textfilter.PartialScene(gs.StreamingSceneText)
	}
	if scene != "" {
		b.WriteString(wordwrap.String(scene, width) + "\n\n")
	}
	if gs.LastChoice != "" && !gs.IsLoading {
		b.WriteString(playerStyle.Render("You: ") + wordwrap.String(gs.LastChoice, width-5) + "\n\n")
	}

	if gs.PendingReflection != "" {
		b.WriteString(whisperStyle.Render(wordwrap.String(gs.PendingReflection, width)) + "\n\n")
	}
	if gs.PendingDream != "" {
		b.WriteString(whisperStyle.Render(wordwrap.String("Dream: "+gs.PendingDream, width)) + "\n\n")
	}

	switch gs.Phase() {
	case state.PhaseError:
		b.WriteString(errorStyle.Render(wordwrap.String(gs.Error, width)) + "\n")
		b.WriteString(promptStyle.Render("Press Enter to dismiss, or /retry.") + "\n")
		return b.String()
	case state.PhaseAwaitingNameInput:
		b.WriteString(whisperStyle.Render(wordwrap.String(gs.InsightToName.Context, width)) + "\n")
		b.WriteString(promptStyle.Render("Name this insight.") + "\n")
		return b.String()
	case state.PhaseAwaitingLoreInterpretation:
		b.WriteString(whisperStyle.Render(gs.LoreToInterpret.Title) + "\n")
		b.WriteString(numbered(gs.LoreToInterpret.Options, width))
		return b.String()
	}

	if gs.IsLoading {
		b.WriteString(renderProgressBar(tick))
		return b.String()
	}
	b.WriteString(numbered(gs.Choices, width))
	return b.String()
}

func numbered(options []string, width int) string {
	var b strings.Builder
	for i, o := range options {
		line := fmt.Sprintf("%d. %s", i+1, o)
		b.WriteString(choiceStyle.Render(wordwrap.String(line, width)) + "\n")
	}
	return b.String()
}

func renderProgressBar(tick int) string {
	const width = 20
	pos := tick % width
	bar := strings.Repeat("·", pos) + "◆" + strings.Repeat("·", width-pos-1)
	return loadingStyle.Render("The echoes stir "+bar) + "\n"
}

// renderMeta draws the side panel.
func renderMeta(gs state.GameState) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("CHRONICLE") + "\n\n")

	if p := gs.Profile; p != nil {
		b.WriteString(p.Name + "\n")
		b.WriteString(fmt.Sprintf("%s of %s\n%s\n\n", p.Archetype, p.Origin, p.Background))
	}
	b.WriteString(fmt.Sprintf("Renown: %d\n", gs.Renown))
	if gs.IsResonanceSurgeAvailable {
		b.WriteString("Surge: ready\n")
	} else {
		b.WriteString(fmt.Sprintf("Surge: %d turns\n", gs.ResonanceSurgeCooldown))
	}
	if loc, ok := gs.CurrentLocation(); ok {
		b.WriteString("Location: " + loc.Name + "\n")
	}
	b.WriteString("\n")

	if len(gs.Inventory) > 0 {
		b.WriteString("Inventory:\n")
		items := make([]string, 0, len(gs.Inventory))
		for name := range gs.Inventory {
			items = append(items, name)
		}
		sort.Strings(items)
		for _, name := range items {
			it := gs.Inventory[name]
			b.WriteString(fmt.Sprintf("• %s x%d\n", name, it.Count))
		}
		b.WriteString("\n")
	}
	if len(gs.PlayerConditions) > 0 {
		b.WriteString("Conditions:\n")
		for _, c := range gs.PlayerConditions {
			b.WriteString("• " + c.Type + "\n")
		}
		b.WriteString("\n")
	}
	if len(gs.WhisperingEchoes) > 0 {
		b.WriteString("Echoes:\n")
		for _, e := range gs.WhisperingEchoes {
			b.WriteString(fmt.Sprintf("• %s (%s)\n", textfilter.Truncate(e.Text, 32), e.ID))
		}
		b.WriteString("\n")
	}
	if n := unlinked(gs.LoreFragments); len(n) > 0 {
		b.WriteString("Fragments:\n")
		for _, f := range n {
			b.WriteString(fmt.Sprintf("• %s (%s)\n", f.Title, f.ID))
		}
		b.WriteString("\n")
	}

	b.WriteString(promptStyle.Render("Esc: close · Ctrl+C: quit · /help") + "\n")
	return b.String()
}

func unlinked(fragments []state.LoreFragment) []state.LoreFragment {
	var out []state.LoreFragment
	for _, f := range fragments {
		if !f.Linked {
			out = append(out, f)
		}
	}
	return out
}

// renderModal draws the open overlay in place of the scene.
func renderModal(gs state.GameState, width int) string {
	var b strings.Builder
	switch gs.OpenModal {
	case state.ModalJournal:
		b.WriteString(titleStyle.Render("LORE JOURNAL") + "\n\n")
		for _, l := range gs.LoreJournal {
			title := l.Title
			if l.ID == gs.NewestLoreEntryID {
				title += " (new)"
			}
			b.WriteString(choiceStyle.Render(title) + "\n" + wordwrap.String(l.Content, width) + "\n\n")
		}
	case state.ModalHistory:
		b.WriteString(titleStyle.Render("HISTORY") + "\n\n")
		if gs.StorySummary != nil {
			b.WriteString(whisperStyle.Render(wordwrap.String(*gs.StorySummary, width)) + "\n\n")
		}
		for _, e := range gs.HistoryLog {
			if e.Type == state.HistoryChoice {
				b.WriteString(playerStyle.Render("> "+e.Content) + "\n\n")
				continue
			}
			b.WriteString(wordwrap.String(e.Content, width) + "\n\n")
		}
	case state.ModalNotes:
		b.WriteString(titleStyle.Render("NOTES") + "\n\n")
		for _, n := range gs.PlayerNotes {
			b.WriteString(choiceStyle.Render(n.Title) + "\n" + wordwrap.String(n.Content, width) + "\n\n")
		}
		b.WriteString(promptStyle.Render("/note title: text adds a note") + "\n")
	case state.ModalMap:
		b.WriteString(titleStyle.Render("MAP") + "\n\n")
		for _, l := range gs.DiscoveredLocations {
			marker := "  "
			if gs.CurrentLocationID != nil && *gs.CurrentLocationID == l.ID {
				marker = "◆ "
			}
			b.WriteString(marker + l.Name + "\n")
		}
	case state.ModalWeaving:
		b.WriteString(titleStyle.Render("WEAVING") + "\n\n")
		b.WriteString("/echoes <id> <id> ... synthesizes whispering echoes\n")
		b.WriteString("/fragments <id> <id> ... synthesizes lore fragments\n")
	case state.ModalSettings:
		b.WriteString(titleStyle.Render("SETTINGS") + "\n\n")
		s := gs.Settings
		b.WriteString(fmt.Sprintf("Volume: %d (/volume n)\nMuted: %t (/mute)\nLanguage: %s (/lang en|pt|es)\n", s.Volume, s.Muted, s.Language))
	}
	b.WriteString("\n" + promptStyle.Render("Esc to close") + "\n")
	return b.String()
}

func renderHelp() string {
	return titleStyle.Render("HELP") + `

Playing:
• 1, 2, 3... - pick a choice
• any text - act freely
• /surge <action> - Resonance Surge (when ready)
• /focus - focus your senses
• /attune <item> - attune an artifact
• /echoes <ids> / /fragments <ids> - synthesize
• /reflect - pause and reflect

Chronicle:
• /journal /history /notes /map /weaving /settings
• /note title: text - add a note
• /export - write a PDF of the chronicle
• /copy - copy the scene to the clipboard
• /retry - retry a failed turn
• /restart - start over
• Ctrl+C - quit
`
}
