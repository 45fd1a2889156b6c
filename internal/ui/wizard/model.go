package wizard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	capturedto "poolintake/internal/modules/capture/dto"
	"poolintake/internal/modules/onboarding/domain"
	"poolintake/internal/modules/onboarding/dto"
	"poolintake/internal/ui/components"
	"poolintake/internal/ui/theme"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface this screen requires; the concrete
// implementations are the module CLI handlers.

type intakePort interface {
	State(ctx context.Context) (dto.StateOutput, error)
	UpdateCustomerInfo(ctx context.Context, input dto.CustomerInfoInput) (dto.StateOutput, error)
	UpdateWaterChemistry(ctx context.Context, input dto.WaterChemistryInput) (dto.StateOutput, error)
	UpdatePoolDetails(ctx context.Context, input dto.PoolDetailsInput) (dto.StateOutput, error)
	UpdateEquipment(ctx context.Context, input dto.EquipmentInput) (dto.StateOutput, error)
	AddPhoto(ctx context.Context, input dto.AddPhotoInput) (dto.StateOutput, error)
	SetVoiceNote(ctx context.Context, input dto.VoiceNoteInput) (dto.StateOutput, error)
	Advance(ctx context.Context) (dto.StateOutput, error)
	Retreat(ctx context.Context) (dto.StateOutput, error)
	SaveAndExit(ctx context.Context) (dto.StateOutput, error)
	Complete(ctx context.Context) (dto.CompleteOutput, error)
}

type capturePort interface {
	CapturePhoto(ctx context.Context, sessionID, targetDir string) (capturedto.PhotoOutput, error)
	RecordVoice(ctx context.Context, sessionID, targetDir string, maxSeconds int) (capturedto.VoiceOutput, error)
}

// ─── async messages ───────────────────────────────────────────────────────────

type stateMsg struct {
	state dto.StateOutput
	err   error
}

type advancedMsg struct {
	state dto.StateOutput
	err   error
}

type completedMsg struct {
	out dto.CompleteOutput
	err error
}

type photoDoneMsg struct {
	out capturedto.PhotoOutput
	err error
}

type voiceDoneMsg struct {
	out capturedto.VoiceOutput
	err error
}

// autosaveTickMsg fires after the debounce window; only the newest sequence
// number triggers a write so a typing burst collapses into one save.
type autosaveTickMsg struct{ seq int }

const autosaveDebounce = 750 * time.Millisecond

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Next     key.Binding
	Back     key.Binding
	Photo    key.Binding
	Record   key.Binding
	Complete key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Next:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next step")),
		Back:     key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "previous step")),
		Photo:    key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "capture photo")),
		Record:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "record voice note")),
		Complete: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "complete intake")),
		Help:     key.NewBinding(key.WithKeys("ctrl+h"), key.WithHelp("ctrl+h", "help")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "save and exit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Back, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Back, k.Complete},
		{k.Photo, k.Record},
		{k.Help, k.Quit},
	}
}

var stepLabels = [domain.StepCount]string{
	"Customer", "Chemistry", "Pool", "Equipment", "Voice Note",
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the intake wizard: one card per step, field edits saved in the
// background, step advance gated on the current step's validator.
type Model struct {
	handler  intakePort
	capture  capturePort
	saver    *Autosaver
	mediaDir string

	state     dto.StateOutput
	form      components.Form
	keys      keyMap
	help      help.Model
	showHelp  bool
	status    string
	errText   string
	saveSeq   int
	saving    bool
	busy      bool
	completed bool
	width     int
	height    int
}

func NewModel(handler intakePort, capture capturePort, mediaDir string, initial dto.StateOutput) Model {
	m := Model{
		handler:  handler,
		capture:  capture,
		saver:    NewAutosaver(),
		mediaDir: mediaDir,
		state:    initial,
		keys:     defaultKeys(),
		help:     help.New(),
		status:   "ready",
	}
	m.form = m.formForStep(initial.Step)
	return m
}

// Close stops the background save worker. Call after the program exits.
func (m Model) Close() error { return m.saver.Close() }

// Completed reports whether the run ended with a successful completion, so
// the command layer can print the confirmation after the program exits.
func (m Model) Completed() bool { return m.completed }

func (m Model) Init() tea.Cmd {
	return m.form.Focus()
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case components.FieldChangedMsg:
		m.saveSeq++
		m.saving = true
		seq := m.saveSeq
		return m, tea.Tick(autosaveDebounce, func(time.Time) tea.Msg {
			return autosaveTickMsg{seq: seq}
		})

	case autosaveTickMsg:
		if msg.seq != m.saveSeq {
			return m, nil
		}
		step := m.state.Step
		values := m.form.Values()
		m.saver.Save(func(ctx context.Context) error {
			_, err := m.pushStep(ctx, step, values)
			return err
		})
		return m, m.refreshAfterSaveCmd()

	case stateMsg:
		m.saving = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		m.state = msg.state
		m.status = "saved"
		return m, nil

	case advancedMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		m.state = msg.state
		m.form = m.formForStep(msg.state.Step)
		m.status = "step " + strconv.Itoa(msg.state.Step+1) + " of " + strconv.Itoa(domain.StepCount)
		return m, m.form.Focus()

	case completedMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = "completion failed, draft kept: " + msg.err.Error()
			return m, nil
		}
		m.completed = true
		m.status = "intake completed for " + msg.out.CustomerID
		return m, tea.Quit

	case photoDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = "photo capture: " + msg.err.Error()
			return m, nil
		}
		if msg.out.Cancelled {
			m.status = "photo capture cancelled"
			return m, nil
		}
		m.status = "photo attached"
		return m, m.addPhotoCmd(msg.out.URI)

	case voiceDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = "voice recording: " + msg.err.Error()
			return m, nil
		}
		m.form.SetValue("uri", msg.out.URI)
		m.form.SetValue("duration", strconv.Itoa(msg.out.DurationSeconds))
		m.status = fmt.Sprintf("recorded %ds", msg.out.DurationSeconds)
		return m, m.setVoiceCmd(dto.VoiceNoteInput{URI: msg.out.URI, DurationSeconds: msg.out.DurationSeconds})

	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, m.saveAndQuitCmd()
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.Next):
			m.busy = true
			return m, m.advanceCmd()
		case key.Matches(msg, m.keys.Back):
			m.busy = true
			return m, m.retreatCmd()
		case key.Matches(msg, m.keys.Complete):
			if m.state.Step == domain.LastStep {
				m.busy = true
				m.status = "uploading and completing…"
				return m, m.completeCmd()
			}
			m.errText = "finish the remaining steps first"
			return m, nil
		case key.Matches(msg, m.keys.Photo):
			if m.capture == nil {
				m.errText = "no capture device configured"
				return m, nil
			}
			m.busy = true
			m.status = "capturing photo…"
			return m, m.capturePhotoCmd()
		case key.Matches(msg, m.keys.Record):
			if m.capture == nil {
				m.errText = "no capture device configured"
				return m, nil
			}
			if m.state.Step != domain.StepVoiceNote {
				m.errText = "recording happens on the voice note step"
				return m, nil
			}
			m.busy = true
			m.status = "recording…"
			return m, m.recordVoiceCmd()
		}
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.showHelp {
		return theme.App.Render(m.help.FullHelpView(m.keys.FullHelp()))
	}

	header := m.renderHeader()
	card := theme.CardActive.Width(max(m.width-6, 40)).Render(
		theme.Title.Render(stepLabels[m.state.Step]) + "\n\n" + m.form.View() + m.stepFooter(),
	)
	status := m.renderStatusBar()
	return theme.App.Render(lipgloss.JoinVertical(lipgloss.Left, header, card, status))
}

func (m Model) renderHeader() string {
	parts := make([]string, domain.StepCount)
	for i := 0; i < domain.StepCount; i++ {
		label := stepLabels[i]
		marker := "○"
		if m.state.StepsComplete[i] {
			marker = "●"
		}
		text := marker + " " + label
		switch {
		case i == m.state.Step:
			parts[i] = theme.Hot.Render(text)
		case m.state.StepsComplete[i]:
			parts[i] = theme.Good.Render(text)
		default:
			parts[i] = theme.Muted.Render(text)
		}
	}
	title := theme.Title.Render("Pool Intake") + "  " + theme.Muted.Render(m.state.Session.CustomerName)
	return title + "\n" + strings.Join(parts, theme.Muted.Render("  ·  ")) + "\n"
}

func (m Model) stepFooter() string {
	switch m.state.Step {
	case domain.StepEquipment:
		count := 0
		if m.state.Session.Equipment != nil {
			count = len(m.state.Session.Equipment.Photos)
		}
		count += len(m.state.Session.Photos)
		return "\n" + theme.Muted.Render(fmt.Sprintf("%d photo(s) attached  ·  ctrl+p to capture", count))
	case domain.StepVoiceNote:
		return "\n" + theme.Muted.Render(fmt.Sprintf(
			"note must run %d–%d seconds  ·  ctrl+r to record", domain.MinVoiceNoteSeconds, domain.MaxVoiceNoteSeconds))
	}
	return ""
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.saving {
		left = "saving…"
	}
	if m.errText != "" {
		left = theme.Bad.Render(m.errText)
	}
	gate := theme.Bad.Render("step incomplete")
	if m.state.CanAdvance {
		gate = theme.Good.Render("step complete")
	}
	right := gate + "  " + theme.Muted.Render("ctrl+n:next  ctrl+b:back  ctrl+h:help  esc:save+exit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}
	return "\n" + left + strings.Repeat(" ", gap) + right
}

// ─── forms ───────────────────────────────────────────────────────────────────

func (m Model) formForStep(step int) components.Form {
	session := m.state.Session
	switch step {
	case domain.StepCustomerInfo:
		info := domain.CustomerInfo{}
		if session.CustomerInfo != nil {
			info = *session.CustomerInfo
		}
		return components.NewForm([]components.Field{
			{Key: "first_name", Label: "First name", Value: info.FirstName},
			{Key: "last_name", Label: "Last name", Value: info.LastName},
			{Key: "email", Label: "Email", Placeholder: "name@example.com", Value: info.Email},
			{Key: "phone", Label: "Phone", Value: info.Phone},
			{Key: "street", Label: "Street", Value: info.Street},
			{Key: "city", Label: "City", Value: info.City},
			{Key: "state", Label: "State", Value: info.State},
			{Key: "zip", Label: "ZIP", Value: info.Zip},
		})

	case domain.StepWaterChemistry:
		chem := domain.WaterChemistry{}
		if session.WaterChemistry != nil {
			chem = *session.WaterChemistry
		}
		return components.NewForm([]components.Field{
			{Key: "chlorine", Label: "Free chlorine (ppm)", Value: floatValue(chem.Chlorine)},
			{Key: "ph", Label: "pH", Placeholder: "7.4", Value: floatValue(chem.PH)},
			{Key: "alkalinity", Label: "Total alkalinity (ppm)", Placeholder: "100", Value: floatValue(chem.Alkalinity)},
			{Key: "cyanuric_acid", Label: "Cyanuric acid (ppm)", Placeholder: "40", Value: floatValue(chem.CyanuricAcid)},
			{Key: "salt", Label: "Salt (ppm, optional)", Value: extraValue(chem.Extras, "salt")},
			{Key: "calcium", Label: "Calcium hardness (ppm, optional)", Value: extraValue(chem.Extras, "calcium")},
		})

	case domain.StepPoolDetails:
		details := domain.PoolDetails{}
		if session.PoolDetails != nil {
			details = *session.PoolDetails
		}
		return components.NewForm([]components.Field{
			{Key: "type", Label: "Pool type", Placeholder: "inground", Value: details.Type},
			{Key: "shape", Label: "Shape", Value: details.Shape},
			{Key: "volume_gallons", Label: "Volume (gallons)", Value: nonZeroFloat(details.VolumeGallons)},
			{Key: "length_ft", Label: "Length (ft)", Value: nonZeroFloat(details.LengthFt)},
			{Key: "width_ft", Label: "Width (ft)", Value: nonZeroFloat(details.WidthFt)},
			{Key: "avg_depth_ft", Label: "Average depth (ft)", Value: nonZeroFloat(details.AvgDepthFt)},
			{Key: "surface", Label: "Surface", Placeholder: "plaster", Value: details.Surface},
		})

	case domain.StepEquipment:
		equip := domain.Equipment{}
		if session.Equipment != nil {
			equip = *session.Equipment
		}
		return components.NewForm([]components.Field{
			{Key: "pump_type", Label: "Pump type", Placeholder: "variable-speed", Value: equip.Pump.Type},
			{Key: "pump_brand", Label: "Pump brand", Value: equip.Pump.Brand},
			{Key: "filter_type", Label: "Filter type", Placeholder: "cartridge", Value: equip.Filter.Type},
			{Key: "filter_brand", Label: "Filter brand", Value: equip.Filter.Brand},
			{Key: "sanitizer_type", Label: "Sanitizer type", Placeholder: "salt cell", Value: equip.Sanitizer.Type},
			{Key: "heater_type", Label: "Heater type (optional)", Value: equip.Heater.Type},
		})

	default:
		note := domain.VoiceNote{}
		if session.VoiceNote != nil {
			note = *session.VoiceNote
		}
		duration := ""
		if note.DurationSeconds > 0 {
			duration = strconv.Itoa(note.DurationSeconds)
		}
		return components.NewForm([]components.Field{
			{Key: "uri", Label: "Recording", Placeholder: "ctrl+r to record", Value: note.URI},
			{Key: "duration", Label: "Duration (seconds)", Value: duration},
			{Key: "transcription", Label: "Transcription (optional)", Value: note.Transcription},
		})
	}
}

// ─── async commands ───────────────────────────────────────────────────────────

// refreshAfterSaveCmd waits for the queue to drain, then re-reads state so
// the gate verdicts in the header and status bar stay current.
func (m Model) refreshAfterSaveCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.saver.Flush(ctx); err != nil {
			return stateMsg{err: err}
		}
		state, err := m.handler.State(ctx)
		return stateMsg{state: state, err: err}
	}
}

func (m Model) pushStep(ctx context.Context, step int, values map[string]string) (dto.StateOutput, error) {
	switch step {
	case domain.StepCustomerInfo:
		return m.handler.UpdateCustomerInfo(ctx, dto.CustomerInfoInput{
			FirstName: values["first_name"],
			LastName:  values["last_name"],
			Email:     values["email"],
			Phone:     values["phone"],
			Street:    values["street"],
			City:      values["city"],
			State:     values["state"],
			Zip:       values["zip"],
		})

	case domain.StepWaterChemistry:
		input := dto.WaterChemistryInput{
			Chlorine:     parseFloat(values["chlorine"]),
			PH:           parseFloat(values["ph"]),
			Alkalinity:   parseFloat(values["alkalinity"]),
			CyanuricAcid: parseFloat(values["cyanuric_acid"]),
		}
		for _, extra := range []string{"salt", "calcium"} {
			if v := parseFloat(values[extra]); v != nil {
				if input.Extras == nil {
					input.Extras = map[string]float64{}
				}
				input.Extras[extra] = *v
			}
		}
		return m.handler.UpdateWaterChemistry(ctx, input)

	case domain.StepPoolDetails:
		return m.handler.UpdatePoolDetails(ctx, dto.PoolDetailsInput{
			Type:          nonEmpty(values["type"]),
			Shape:         nonEmpty(values["shape"]),
			VolumeGallons: parseFloat(values["volume_gallons"]),
			LengthFt:      parseFloat(values["length_ft"]),
			WidthFt:       parseFloat(values["width_ft"]),
			AvgDepthFt:    parseFloat(values["avg_depth_ft"]),
			Surface:       nonEmpty(values["surface"]),
		})

	case domain.StepEquipment:
		input := dto.EquipmentInput{}
		if values["pump_type"] != "" || values["pump_brand"] != "" {
			input.Pump = &domain.EquipmentComponent{Type: values["pump_type"], Brand: values["pump_brand"]}
		}
		if values["filter_type"] != "" || values["filter_brand"] != "" {
			input.Filter = &domain.EquipmentComponent{Type: values["filter_type"], Brand: values["filter_brand"]}
		}
		if values["sanitizer_type"] != "" {
			input.Sanitizer = &domain.EquipmentComponent{Type: values["sanitizer_type"]}
		}
		if values["heater_type"] != "" {
			input.Heater = &domain.EquipmentComponent{Type: values["heater_type"]}
		}
		return m.handler.UpdateEquipment(ctx, input)

	default:
		if values["uri"] == "" {
			return m.handler.State(ctx)
		}
		seconds := 0
		if v, err := strconv.Atoi(values["duration"]); err == nil {
			seconds = v
		}
		return m.handler.SetVoiceNote(ctx, dto.VoiceNoteInput{
			URI:             values["uri"],
			DurationSeconds: seconds,
			Transcription:   values["transcription"],
		})
	}
}

func (m Model) advanceCmd() tea.Cmd {
	step := m.state.Step
	values := m.form.Values()
	return func() tea.Msg {
		ctx := context.Background()
		_ = m.saver.Flush(ctx)
		if _, err := m.pushStep(ctx, step, values); err != nil {
			return advancedMsg{err: err}
		}
		state, err := m.handler.Advance(ctx)
		return advancedMsg{state: state, err: err}
	}
}

func (m Model) retreatCmd() tea.Cmd {
	step := m.state.Step
	values := m.form.Values()
	return func() tea.Msg {
		ctx := context.Background()
		_ = m.saver.Flush(ctx)
		if _, err := m.pushStep(ctx, step, values); err != nil {
			return advancedMsg{err: err}
		}
		state, err := m.handler.Retreat(ctx)
		return advancedMsg{state: state, err: err}
	}
}

func (m Model) completeCmd() tea.Cmd {
	values := m.form.Values()
	return func() tea.Msg {
		ctx := context.Background()
		_ = m.saver.Flush(ctx)
		if _, err := m.pushStep(ctx, domain.StepVoiceNote, values); err != nil {
			return completedMsg{err: err}
		}
		out, err := m.handler.Complete(ctx)
		return completedMsg{out: out, err: err}
	}
}

func (m Model) saveAndQuitCmd() tea.Cmd {
	step := m.state.Step
	values := m.form.Values()
	return func() tea.Msg {
		ctx := context.Background()
		_ = m.saver.Flush(ctx)
		_, _ = m.pushStep(ctx, step, values)
		_, _ = m.handler.SaveAndExit(ctx)
		return tea.Quit()
	}
}

func (m Model) capturePhotoCmd() tea.Cmd {
	sessionID := m.state.Session.ID
	return func() tea.Msg {
		out, err := m.capture.CapturePhoto(context.Background(), sessionID, m.mediaDir)
		return photoDoneMsg{out: out, err: err}
	}
}

func (m Model) recordVoiceCmd() tea.Cmd {
	sessionID := m.state.Session.ID
	return func() tea.Msg {
		out, err := m.capture.RecordVoice(context.Background(), sessionID, m.mediaDir, domain.MaxVoiceNoteSeconds)
		return voiceDoneMsg{out: out, err: err}
	}
}

func (m Model) addPhotoCmd(uri string) tea.Cmd {
	capturedAt := time.Now().UTC()
	return func() tea.Msg {
		state, err := m.handler.AddPhoto(context.Background(), dto.AddPhotoInput{URI: uri, CapturedAt: capturedAt})
		return stateMsg{state: state, err: err}
	}
}

func (m Model) setVoiceCmd(input dto.VoiceNoteInput) tea.Cmd {
	return func() tea.Msg {
		state, err := m.handler.SetVoiceNote(context.Background(), input)
		return stateMsg{state: state, err: err}
	}
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func nonEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func floatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func nonZeroFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func extraValue(extras map[string]float64, key string) string {
	v, ok := extras[key]
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
