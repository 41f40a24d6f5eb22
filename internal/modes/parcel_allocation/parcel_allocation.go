// internal/modes/parcel_allocation/parcel_allocation.go
//
// Parcel allocation mode: the item/parcel selection matrix. Candidates are
// deduplicated out of the shipment's delivery notes, the user distributes
// them across the declared parcels, and submit dispatches the resulting
// partition through exactly one creation strategy.
//
// AllocationState is the single source of truth: every keypress funnels
// through State.Toggle, and the rendered checkboxes are a pure projection
// of the state — selections are never read back out of the view.

package parcel_allocation

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fruttersoft/shipdeck/internal/allocation"
	"github.com/fruttersoft/shipdeck/internal/carrier"
	"github.com/fruttersoft/shipdeck/internal/dispatch"
	"github.com/fruttersoft/shipdeck/internal/document"
	"github.com/fruttersoft/shipdeck/internal/modes"
	"github.com/fruttersoft/shipdeck/internal/workflow"
)

// Mode handles the parcel allocation phase
type Mode struct {
	modes.BaseMode
	offering *carrier.ServiceOffering

	candidates allocation.CandidateSet
	keys       []allocation.ItemKey
	state      *allocation.State

	cursorParcel int // 1-based parcel under the cursor
	cursorItem   int // 0-based candidate index under the cursor
	loaded       bool
	busy         bool
	width        int
	height       int
	errorMsg     string
}

// New creates a new parcel allocation mode. The offering is nil on the
// rule-based path and required on the service path; the dispatcher enforces
// the pairing at submit time.
func New(offering *carrier.ServiceOffering) *Mode {
	return &Mode{
		BaseMode:     modes.NewBaseMode("Parcel Allocation", workflow.PhaseAllocation),
		offering:     offering,
		state:        allocation.NewState(),
		cursorParcel: 1,
	}
}

// Init initializes the allocation mode
func (m *Mode) Init(ctx *modes.ModeContext) tea.Cmd {
	m.SetContext(ctx)
	if ctx != nil && ctx.Logbook != nil {
		ctx.Logbook.Info("Loading items from %d delivery note(s)", len(ctx.Shipment.DeliveryNotes))
	}
	m.SetStatusMsg("Loading delivery note items...")
	return m.loadCandidates()
}

// Update handles messages for the allocation mode
func (m *Mode) Update(msg tea.Msg) (modes.Mode, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, func() tea.Msg {
				return modes.ModeErrorMsg{Error: workflow.ErrCancelled}
			}
		case "up", "k":
			m.moveItem(-1)
		case "down", "j":
			m.moveItem(1)
		case "left", "h":
			m.moveParcel(-1)
		case "right", "l", "tab":
			m.moveParcel(1)
		case " ":
			m.toggleCursor()
		case "enter":
			return m.submit()
		}
		return m, nil

	case candidatesLoadedMsg:
		m.errorMsg = ""
		m.loaded = true
		m.candidates = msg.candidates
		m.keys = msg.candidates.Keys()
		if len(m.candidates) == 0 {
			m.SetStatusMsg("No items found in the delivery notes")
		} else {
			m.SetStatusMsg(fmt.Sprintf("%d unique item(s) across %d parcel(s)",
				len(m.candidates), m.parcelCount()))
		}
		m.logInfo("Deduplicated to %d candidate item(s)", len(m.candidates))
		return m, nil

	case dispatchFinishedMsg:
		m.busy = false
		if msg.err != nil {
			// Allocation state survives so the user can resubmit.
			m.errorMsg = msg.err.Error()
			m.SetStatusMsg("An error occurred while creating the shipment")
			m.logWarn("Dispatch failed: %v", msg.err)
			return m, nil
		}
		m.errorMsg = ""
		m.SetComplete(true)
		m.SetStatusMsg(fmt.Sprintf("Shipment created · AWB %s", msg.result.AWBNumber))
		m.logInfo("Shipment created · AWB %s · provider %s", msg.result.AWBNumber, msg.result.ServiceProvider)
		return m, func() tea.Msg {
			return modes.ModeCompleteMsg{NextPhase: workflow.PhaseComplete}
		}
	}

	return m, nil
}

func (m *Mode) parcelCount() int {
	ctx := m.Context()
	if ctx == nil || ctx.Invocation == nil {
		return 0
	}
	return ctx.Invocation.ParcelCount
}

func (m *Mode) moveItem(delta int) {
	if len(m.candidates) == 0 {
		return
	}
	next := m.cursorItem + delta
	switch {
	case next < 0:
		// Wrap to the previous parcel's last item.
		if m.cursorParcel > 1 {
			m.cursorParcel--
			m.cursorItem = len(m.candidates) - 1
		}
	case next >= len(m.candidates):
		if m.cursorParcel < m.parcelCount() {
			m.cursorParcel++
			m.cursorItem = 0
		}
	default:
		m.cursorItem = next
	}
}

func (m *Mode) moveParcel(delta int) {
	next := m.cursorParcel + delta
	if next < 1 || next > m.parcelCount() {
		return
	}
	m.cursorParcel = next
}

// toggleCursor flips the item under the cursor in the cursor's parcel.
// Cells disabled by the exclusivity rule are inert, mirroring a greyed-out
// checkbox.
func (m *Mode) toggleCursor() {
	if m.cursorItem >= len(m.keys) {
		return
	}
	key := m.keys[m.cursorItem]
	if !m.state.IsEligible(key, m.cursorParcel) {
		held, _ := m.state.ParcelOf(key)
		m.SetStatusMsg(fmt.Sprintf("Item already assigned to parcel %d", held))
		return
	}
	result := m.state.Toggle(key, m.cursorParcel)
	if result.Parcel == 0 {
		m.SetStatusMsg(fmt.Sprintf("Removed %s from parcel %d", allocation.Label(m.candidates[m.cursorItem]), m.cursorParcel))
	} else {
		m.SetStatusMsg(fmt.Sprintf("Assigned %s to parcel %d", allocation.Label(m.candidates[m.cursorItem]), result.Parcel))
	}
}

// submit extracts the partition from the allocation state and dispatches it
func (m *Mode) submit() (modes.Mode, tea.Cmd) {
	if !m.loaded || m.busy {
		return m, nil
	}
	m.busy = true
	m.errorMsg = ""
	if m.offering == nil {
		m.SetStatusMsg("Creating Rule Based Shipment... Please wait...")
	} else {
		m.SetStatusMsg("Creating Shipment... Please wait...")
	}
	return m, m.dispatchPartition()
}

// Message types
type candidatesLoadedMsg struct {
	candidates allocation.CandidateSet
}

type dispatchFinishedMsg struct {
	result carrier.CreationResult
	err    error
}

// loadCandidates fans out the delivery-note fetches and deduplicates
func (m *Mode) loadCandidates() tea.Cmd {
	return func() tea.Msg {
		ctx := m.Context()
		candidates, err := allocation.Deduplicate(context.Background(), ctx.Store, ctx.Shipment.DeliveryNotes)
		if err != nil {
			return modes.ModeErrorMsg{Error: err}
		}
		return candidatesLoadedMsg{candidates: candidates}
	}
}

// dispatchPartition runs the creation call and applies the booking fields
func (m *Mode) dispatchPartition() tea.Cmd {
	return func() tea.Msg {
		ctx := m.Context()
		part := allocation.Build(m.candidates, m.parcelCount(), m.state)
		d := dispatch.New(ctx.Backend, ctx.Logbook)
		result, err := d.Dispatch(context.Background(), ctx.Invocation, ctx.Shipment, part, m.offering)
		if err != nil {
			return dispatchFinishedMsg{err: err}
		}
		if err := ctx.Store.ApplyBooking(ctx.Shipment.Name, bookingUpdate(result)); err != nil {
			// The shipment exists at the carrier now; a failed field write
			// is logged, not turned into a creation failure.
			m.logWarn("Booking created but document update failed: %v", err)
		}
		return dispatchFinishedMsg{result: result}
	}
}

// View renders the parcel/item matrix
func (m *Mode) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#6BCB77")).
		MarginBottom(1)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1)

	header := titleStyle.Render("⬡ SELECT ITEMS FOR PARCELS")
	content := m.renderMatrix()
	if m.errorMsg != "" {
		errBlock := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1).
			Render(fmt.Sprintf("⚠ %s", m.errorMsg))
		content = fmt.Sprintf("%s\n\n%s", content, errBlock)
	}
	hints := "Space → toggle    ←/→ → switch parcel    Enter → submit    Esc → cancel"
	if m.busy {
		hints = "Working..."
	}
	footer := statusStyle.Render(fmt.Sprintf("%s\n%s", hints, m.StatusMsg()))

	return fmt.Sprintf("%s\n%s\n%s", header, content, footer)
}

func (m *Mode) renderMatrix() string {
	if !m.loaded {
		return "Loading items..."
	}
	parcelTitle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#CD5C5C"))
	disabledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	cursorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))

	var sections []string
	for parcel := 1; parcel <= m.parcelCount(); parcel++ {
		lines := []string{parcelTitle.Render(fmt.Sprintf("Parcel %d", parcel))}
		if len(m.candidates) == 0 {
			lines = append(lines, disabledStyle.Render("  No items found in the delivery notes."))
		}
		for i, item := range m.candidates {
			line := fmt.Sprintf("%s %s", m.checkbox(m.keys[i], parcel), allocation.Label(item))
			if held, ok := m.state.ParcelOf(m.keys[i]); ok && held != parcel {
				line = disabledStyle.Render(fmt.Sprintf("%s · in parcel %d", line, held))
			}
			prefix := "  "
			if parcel == m.cursorParcel && i == m.cursorItem {
				prefix = cursorStyle.Render("▸ ")
				line = cursorStyle.Render(line)
			}
			lines = append(lines, prefix+line)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

// checkbox renders the selection control for one (item, parcel) cell:
// [x] assigned here, [ ] selectable, [-] held by another parcel. Held items
// stay visible so the user can see why a cell is locked.
func (m *Mode) checkbox(key allocation.ItemKey, parcel int) string {
	held, ok := m.state.ParcelOf(key)
	switch {
	case ok && held == parcel:
		return "[x]"
	case ok:
		return "[-]"
	default:
		return "[ ]"
	}
}

func bookingUpdate(result carrier.CreationResult) document.BookingUpdate {
	return document.BookingUpdate{
		LabelURL:           result.LabelURL,
		AWBNumber:          result.AWBNumber,
		ServiceProvider:    result.ServiceProvider,
		CarrierService:     result.ServiceType,
		ShipmentID:         result.ShipmentID,
		TrackingStatusInfo: result.TrackingStatus,
	}
}

func (m *Mode) logInfo(format string, args ...any) {
	ctx := m.Context()
	if ctx == nil || ctx.Logbook == nil {
		return
	}
	ctx.Logbook.Info(format, args...)
}

func (m *Mode) logWarn(format string, args ...any) {
	ctx := m.Context()
	if ctx == nil || ctx.Logbook == nil {
		return
	}
	ctx.Logbook.Warn(format, args...)
}
