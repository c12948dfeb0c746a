package cli

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mosaicview/mosaic/pkg/cache"
	"github.com/mosaicview/mosaic/pkg/query"
	"github.com/mosaicview/mosaic/pkg/store/mongostore"
	"github.com/mosaicview/mosaic/pkg/timeline"
)

// Terminal cells are not pixels; the scroller maps one cell to a fixed pixel
// extent so the layout engine works in its native units.
const (
	cellWidth  = 10.0
	cellHeight = 22.0

	scrollStep = 80.0 // pixels per key press
)

// viewCommand creates the view command: an interactive terminal scroller
// driving a live engine, for inspecting geometry and load behavior.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		demo  bool
		terms string
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Scroll a timeline interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			var src timeline.Source
			switch {
			case demo:
				src = timeline.StaticSource{ID: "demo", Assets: demoAssets(400)}
			default:
				store, err := mongostore.New(ctx, mongostore.Config{
					URI:        cfg.Mongo.URI,
					Database:   cfg.Mongo.Database,
					Collection: cfg.Mongo.Collection,
					Semantic:   cfg.Mongo.Semantic,
				}, c.Logger)
				if err != nil {
					return fmt.Errorf("connect asset store: %w", err)
				}
				defer func() { _ = store.Close(context.Background()) }()

				pageCache := c.newCache(ctx, cfg)
				defer func() { _ = pageCache.Close() }()
				searcher := query.NewCachedSearcher(store, pageCache, cache.NewDefaultKeyer(), c.Logger)

				if terms != "" {
					src = timeline.SearchSource{
						Criteria: query.Criteria{Terms: terms},
						Searcher: searcher,
					}
				} else {
					src = timeline.BucketSource{Lister: store, Searcher: searcher}
				}
			}

			mgr, err := timeline.New(ctx, src, cfg.Timeline, c.Logger)
			if err != nil {
				return err
			}
			defer mgr.Close()

			model := newScrollModel(ctx, mgr)
			_, err = tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "scroll a synthetic in-memory collection")
	cmd.Flags().StringVar(&terms, "terms", "", "scroll a search result instead of the month timeline")
	return cmd
}

// demoAssets builds a synthetic collection with varied aspect ratios spread
// over recent months.
func demoAssets(n int) []query.Asset {
	rng := rand.New(rand.NewSource(42))
	ratios := []float64{0.66, 0.75, 1.0, 1.33, 1.5, 1.78, 2.35}
	now := time.Now().UTC()

	assets := make([]query.Asset, n)
	for i := range assets {
		assets[i] = query.Asset{
			ID:      uuid.NewString(),
			Ratio:   ratios[rng.Intn(len(ratios))],
			TakenAt: now.Add(-time.Duration(i) * 7 * time.Hour),
			Title:   fmt.Sprintf("demo %04d", i),
			Visible: true,
		}
	}
	return assets
}

// =============================================================================
// Scroll Model
// =============================================================================

type tickMsg time.Time

// scrollModel is the bubbletea model for the timeline scroller.
type scrollModel struct {
	ctx    context.Context
	mgr    *timeline.Manager
	scroll float64
	cols   int
	rows   int
	ready  bool
	err    error
}

func newScrollModel(ctx context.Context, mgr *timeline.Manager) scrollModel {
	return scrollModel{ctx: ctx, mgr: mgr}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m scrollModel) Init() tea.Cmd {
	return tick()
}

func (m scrollModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.setScroll(m.scroll - scrollStep)
		case "down", "j":
			m.setScroll(m.scroll + scrollStep)
		case "pgup":
			m.setScroll(m.scroll - m.viewportHeight())
		case "pgdown", " ":
			m.setScroll(m.scroll + m.viewportHeight())
		case "g":
			m.setScroll(0)
		case "G":
			m.setScroll(m.mgr.MaxScroll())
		}
	case tea.WindowSizeMsg:
		m.cols = msg.Width
		m.rows = msg.Height
		if err := m.mgr.UpdateViewport(m.ctx, float64(msg.Width)*cellWidth, m.viewportHeight()); err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.ready = true
	case tickMsg:
		// Async loads change geometry without input; keep the view fresh.
		return m, tick()
	}
	return m, nil
}

func (m *scrollModel) viewportHeight() float64 {
	rows := m.rows - 4 // chrome: title, status, help
	if rows < 1 {
		rows = 1
	}
	return float64(rows) * cellHeight
}

func (m *scrollModel) setScroll(s float64) {
	if s < 0 {
		s = 0
	}
	if max := m.mgr.MaxScroll(); s > max {
		s = max
	}
	m.scroll = s
	m.mgr.SetScrolling(true)
	m.mgr.UpdateSlidingWindow(m.ctx, s)
}

var (
	viewHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	viewLoadedStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	viewLoadingStyle = lipgloss.NewStyle().Foreground(colorYellow)
	viewFailedStyle  = lipgloss.NewStyle().Foreground(colorRed)
	viewDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

func (m scrollModel) View() string {
	if !m.ready {
		return "measuring viewport..."
	}

	var b strings.Builder
	b.WriteString(viewHeaderStyle.Render("mosaic timeline"))
	b.WriteString(viewDimStyle.Render(fmt.Sprintf("  %.0f/%.0fpx  %.0f%%",
		m.scroll, m.mgr.TimelineHeight(), m.mgr.MaxScrollPercent()*100)))
	if m.mgr.Scrolling() {
		b.WriteString(viewDimStyle.Render("  scrolling"))
	}
	b.WriteString("\n\n")

	for _, seg := range m.mgr.Snapshot() {
		if !seg.Intersecting {
			continue
		}
		b.WriteString(m.renderSegment(seg))
	}

	b.WriteString("\n")
	b.WriteString(viewDimStyle.Render("↑/↓ scroll  pgup/pgdn page  g/G ends  q quit"))
	return b.String()
}

// renderSegment draws one intersecting segment: a header line and one line
// per packed row, with a glyph per item. Items outside the exact window are
// dimmed, mirroring what a renderer would virtualize.
func (m scrollModel) renderSegment(seg timeline.SegmentView) string {
	var b strings.Builder

	state := seg.State.String()
	style := viewDimStyle
	switch seg.State {
	case timeline.SegmentLoaded:
		style = viewLoadedStyle
	case timeline.SegmentLoading:
		style = viewLoadingStyle
	case timeline.SegmentFailed:
		style = viewFailedStyle
	}
	b.WriteString(fmt.Sprintf("%s %s %s\n",
		viewHeaderStyle.Render(seg.ID),
		style.Render(state),
		viewDimStyle.Render(fmt.Sprintf("top %.0f h %.0f items %d", seg.Top, seg.Height, len(seg.Items)))))

	var line strings.Builder
	lastTop := -1.0
	for _, it := range seg.Items {
		if it.Box.Top != lastTop {
			if line.Len() > 0 {
				b.WriteString(line.String() + "\n")
				line.Reset()
			}
			lastTop = it.Box.Top
			line.WriteString("  ")
		}
		cells := int(it.Box.Width/cellWidth + 0.5)
		if cells < 1 {
			cells = 1
		}
		glyph := strings.Repeat("█", cells)
		if it.ActuallyIntersecting {
			line.WriteString(viewLoadedStyle.Render(glyph))
		} else if it.Intersecting {
			line.WriteString(viewDimStyle.Render(glyph))
		}
		line.WriteString(" ")
	}
	if line.Len() > 0 {
		b.WriteString(line.String() + "\n")
	}
	return b.String()
}
