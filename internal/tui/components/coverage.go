package components

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"

	"github.com/rendis/storetap/internal/model"
	"github.com/rendis/storetap/internal/tui/styles"
)

// CoverageMap plots discovered locations as Braille dots, framed by an
// optional crawl bound.
type CoverageMap struct {
	width, height int
	points        []model.GeoPoint
	frame         *orb.Bound
}

func NewCoverageMap(width, height int) CoverageMap {
	return CoverageMap{width: width, height: height}
}

func (m *CoverageMap) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetFrame fixes the viewport. Without a frame the viewport fits the points.
func (m *CoverageMap) SetFrame(b *orb.Bound) {
	m.frame = b
}

func (m *CoverageMap) SetPoints(points []model.GeoPoint) {
	m.points = points
}

func (m CoverageMap) viewport() (orb.Bound, bool) {
	if m.frame != nil {
		return *m.frame, true
	}
	if len(m.points) == 0 {
		return orb.Bound{}, false
	}
	b := orb.Bound{Min: m.points[0].Orb(), Max: m.points[0].Orb()}
	for _, p := range m.points[1:] {
		b = b.Extend(p.Orb())
	}
	return b.Pad(math.Max(0.05, 0.05*math.Max(b.Right()-b.Left(), b.Top()-b.Bottom()))), true
}

// Each Braille cell is a 2x4 dot grid; bit order per Unicode U+2800.
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

func (m CoverageMap) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	blank := strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", m.width)+"\n", m.height), "\n")

	vp, ok := m.viewport()
	if !ok {
		return blank
	}
	latSpan := vp.Top() - vp.Bottom()
	lngSpan := vp.Right() - vp.Left()
	if latSpan <= 0 || lngSpan <= 0 {
		return blank
	}

	dotW, dotH := m.width*2, m.height*4
	cells := make([][]rune, m.height)
	for i := range cells {
		cells[i] = make([]rune, m.width)
	}

	for _, p := range m.points {
		x := int((p.Lng - vp.Left()) / lngSpan * float64(dotW-1))
		y := int((vp.Top() - p.Lat) / latSpan * float64(dotH-1))
		if x < 0 || x >= dotW || y < 0 || y >= dotH {
			continue
		}
		cells[y/4][x/2] |= dotBits[y%4][x%2]
	}

	dot := lipgloss.NewStyle().Foreground(styles.Success)
	var sb strings.Builder
	for row, line := range cells {
		for _, bits := range line {
			if bits == 0 {
				sb.WriteRune(' ')
				continue
			}
			sb.WriteString(dot.Render(string(0x2800 + bits)))
		}
		if row < len(cells)-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

// Plotted counts the points that fall inside the viewport.
func (m CoverageMap) Plotted() int {
	vp, ok := m.viewport()
	if !ok {
		return 0
	}
	n := 0
	for _, p := range m.points {
		if vp.Contains(p.Orb()) {
			n++
		}
	}
	return n
}
