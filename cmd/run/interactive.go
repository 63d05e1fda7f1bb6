package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/multierr"

	"github.com/wippyai/wasm-bridge/guest"
	"github.com/wippyai/wasm-bridge/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD166"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	rt       *runtime.Runtime
	linked   *runtime.LinkedModule
	instance *runtime.Instance
	source   string
	data     []byte
	opts     []runtime.Option
	result   string
	funcs    []funcInfo
	inputs   []textinput.Model
	stores   int
	selected int
	focusIdx int
	state    modelState
}

type funcInfo struct {
	name    string
	params  []paramInfo
	results []string
}

type paramInfo struct {
	name    string
	typeStr string
	valType api.ValueType
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(source string, data []byte, opts []runtime.Option) *interactiveModel {
	return &interactiveModel{
		source: source,
		data:   data,
		opts:   opts,
		state:  stateSelectFunc,
	}
}

type loadedMsg struct {
	err    error
	rt     *runtime.Runtime
	linked *runtime.LinkedModule
	funcs  []funcInfo
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadModule
}

// loadModule compiles and links the module. The TUI owns the terminal, so
// the runtime and the host table log nowhere.
func (m *interactiveModel) loadModule() tea.Msg {
	ctx := context.Background()

	rt, err := runtime.New(ctx, m.opts...)
	if err != nil {
		return loadedMsg{err: err}
	}

	table, err := guest.NewHostTable(nil)
	if err != nil {
		return loadedMsg{err: multierr.Append(err, rt.Close(ctx))}
	}
	mod, err := rt.CompileWithWIT(ctx, m.data, guest.WIT)
	if err != nil {
		return loadedMsg{err: multierr.Append(err, rt.Close(ctx))}
	}
	linked, err := rt.Link(ctx, mod, table)
	if err != nil {
		return loadedMsg{err: multierr.Append(err, rt.Close(ctx))}
	}

	var funcs []funcInfo
	for _, exp := range mod.Exports() {
		funcs = append(funcs, describe(exp, mod.Interface()))
	}
	return loadedMsg{rt: rt, linked: linked, funcs: funcs}
}

// describe prefers WIT types when the interface declares the export.
func describe(exp runtime.Export, iface *runtime.Interface) funcInfo {
	var decl *runtime.FuncDecl
	if iface != nil {
		decl = iface.Exports[exp.Name]
	}

	fi := funcInfo{name: exp.Name}
	for i, vt := range exp.Params {
		p := paramInfo{
			name:    fmt.Sprintf("arg%d", i),
			typeStr: api.ValueTypeName(vt),
			valType: vt,
		}
		if decl != nil && i < len(decl.Params) {
			p.typeStr = witTypeStr(decl.Params[i])
		}
		fi.params = append(fi.params, p)
	}

	switch {
	case decl != nil && decl.Fallible:
		ok := "_"
		if len(decl.Results) > 0 {
			ok = witTypeStr(decl.Results[0])
		}
		fi.results = []string{"result<" + ok + ">"}
	case decl != nil && len(decl.Results) == len(exp.Results):
		for _, t := range decl.Results {
			fi.results = append(fi.results, witTypeStr(t))
		}
	default:
		for _, vt := range exp.Results {
			fi.results = append(fi.results, api.ValueTypeName(vt))
		}
	}
	return fi
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, m.quit()

		case "q":
			if m.state != stateInputArgs {
				return m, m.quit()
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "n":
			if m.state == stateSelectFunc {
				m.dropInstance()
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.funcs) == 0 {
					break
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.funcs = msg.funcs
		m.rt = msg.rt
		m.linked = msg.linked

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) quit() tea.Cmd {
	ctx := context.Background()
	m.dropInstance()
	if m.rt != nil {
		_ = m.rt.Close(ctx)
	}
	return tea.Quit
}

// dropInstance discards the current instance; the next call starts a new store.
func (m *interactiveModel) dropInstance() {
	if m.instance != nil {
		_ = m.instance.Close(context.Background())
		m.instance = nil
	}
}

func (m *interactiveModel) prepareInputs() {
	f := m.funcs[m.selected]
	m.inputs = make([]textinput.Model, len(f.params))
	for i, p := range f.params {
		ti := textinput.New()
		ti.Placeholder = p.typeStr
		ti.Prompt = p.name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callFunction() tea.Msg {
	ctx := context.Background()

	if m.instance == nil {
		if m.linked == nil {
			return callResultMsg{err: fmt.Errorf("module not loaded")}
		}
		inst, err := m.rt.Instantiate(ctx, m.linked, m.rt.NewStore(&guest.HostState{}))
		if err != nil {
			return callResultMsg{err: err}
		}
		m.instance = inst
		m.stores++
	}

	f := m.funcs[m.selected]
	args := make([]uint64, len(m.inputs))
	for i, input := range m.inputs {
		v, err := convertArg(input.Value(), f.params[i].valType)
		if err != nil {
			return callResultMsg{err: fmt.Errorf("%s: %w", f.params[i].name, err)}
		}
		args[i] = v
	}

	var (
		out runtime.Outcome
		err error
	)
	fault := runtime.RecoverHostFault(func() {
		out, err = m.instance.Call(ctx, f.name, args...)
	})
	if fault != nil {
		return callResultMsg{err: fmt.Errorf("%w; store discarded, press n for a new one", fault)}
	}
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: out.String()}
}

func convertArg(value string, vt api.ValueType) (uint64, error) {
	value = strings.TrimSpace(value)
	switch vt {
	case api.ValueTypeI32:
		if v, err := strconv.ParseInt(value, 10, 32); err == nil {
			return api.EncodeI32(int32(v)), nil
		}
		if value == "true" {
			return 1, nil
		}
		if value == "false" {
			return 0, nil
		}
		v, err := strconv.ParseUint(value, 10, 32)
		return uint64(uint32(v)), err
	case api.ValueTypeI64:
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return api.EncodeI64(v), nil
		}
		return strconv.ParseUint(value, 10, 64)
	case api.ValueTypeF32:
		v, err := strconv.ParseFloat(value, 32)
		return api.EncodeF32(float32(v)), err
	case api.ValueTypeF64:
		v, err := strconv.ParseFloat(value, 64)
		return api.EncodeF64(v), err
	default:
		return 0, fmt.Errorf("unsupported value type %s", api.ValueTypeName(vt))
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.linked == nil {
		return "Loading module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("WASM Bridge"))
	b.WriteString(" ")
	b.WriteString(m.source)
	b.WriteString("\n")
	b.WriteString(m.instanceStatus())
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + m.formatFunc(f)))
			} else {
				b.WriteString(cursor + m.formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • n new store • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(f.params[i].typeStr))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) instanceStatus() string {
	if m.instance == nil {
		return helpStyle.Render(fmt.Sprintf("no instance (stores used: %d)", m.stores))
	}
	store := m.instance.Store()
	status := fmt.Sprintf("store #%d • %s • entries %d", m.stores, m.instance.Liveness(), store.Entries())
	if st, ok := store.Data.(*guest.HostState); ok {
		status += fmt.Sprintf(" • host calls %d", st.Calls)
	}
	switch {
	case store.Discarded():
		return errorStyle.Render(status + " • discarded")
	case m.instance.Liveness() == runtime.Poisoned:
		return warnStyle.Render(status)
	default:
		return resultStyle.Render(status)
	}
}

func (m *interactiveModel) formatFunc(f funcInfo) string {
	var params []string
	for _, p := range f.params {
		params = append(params, p.name+": "+typeStyle.Render(p.typeStr))
	}
	result := ""
	switch len(f.results) {
	case 0:
	case 1:
		result = " -> " + typeStyle.Render(f.results[0])
	default:
		result = " -> (" + typeStyle.Render(strings.Join(f.results, ", ")) + ")"
	}
	return funcStyle.Render(f.name) + "(" + strings.Join(params, ", ") + ")" + result
}

func witTypeStr(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func runInteractive(source string, data []byte, opts []runtime.Option) error {
	p := tea.NewProgram(newInteractiveModel(source, data, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
